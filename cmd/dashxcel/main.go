package main

import (
	"dashxcel/internal/config"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
	v       = viper.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dashxcel",
	Short: "DashXcel - interactive Excel dashboard",
	Long: `DashXcel classifies the columns of an uploaded spreadsheet and builds
line, bar, pie, scatter and treemap charts from them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dashxcel.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, console)")
	rootCmd.PersistentFlags().String("sheet", "", "Worksheet to read from xlsx files (default: first)")
	rootCmd.PersistentFlags().String("empty-columns", "categorical", "Group for columns without values (categorical, temporal)")

	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("upload.sheet", rootCmd.PersistentFlags().Lookup("sheet"))
	_ = v.BindPFlag("classify.empty_columns", rootCmd.PersistentFlags().Lookup("empty-columns"))

	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
