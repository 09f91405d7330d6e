package main

import (
	"dashxcel/internal/analysis"
	"dashxcel/internal/models"
	"dashxcel/internal/service"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var (
	analyzeSel    models.Selection
	analyzeExport string
	analyzePretty bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Classify a spreadsheet and print its chart requests",
	Long: `Read an xlsx, csv or parquet file, classify its columns and print the
classification and chart requests as JSON.

Use --export to also write the processed dataset as csv or parquet.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeSel.DateColumn, "date-column", "", "date column for the time series chart")
	f.StringVar(&analyzeSel.TimeValueColumn, "time-value", "", "value column for the time series chart")
	f.StringVar(&analyzeSel.CategoryColumn, "category", "", "category column for bar and pie charts")
	f.StringVar(&analyzeSel.GroupValue, "group-value", "", "value column for bar and pie charts")
	f.StringVar(&analyzeSel.ScatterX, "scatter-x", "", "x column for the scatter chart")
	f.StringVar(&analyzeSel.ScatterY, "scatter-y", "", "y column for the scatter chart")
	f.StringVar(&analyzeSel.TreemapLevel1, "treemap-level1", "", "first treemap level")
	f.StringVar(&analyzeSel.TreemapLevel2, "treemap-level2", "", "second treemap level")
	f.StringVar(&analyzeSel.TreemapValue, "treemap-value", "", "treemap value column")
	f.StringVar(&analyzeExport, "export", "", "write the processed dataset to this .csv or .parquet file")
	f.BoolVar(&analyzePretty, "pretty", false, "indent JSON output")
}

type analyzeOutput struct {
	File           string                `json:"file"`
	Rows           int                   `json:"rows"`
	Columns        []string              `json:"columns"`
	Classification models.Classification `json:"classification"`
	Selection      models.Selection      `json:"selection"`
	Charts         []models.ChartRequest `json:"charts"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ingest := service.NewIngestService(service.IngestOptions{Sheet: cfg.Upload.Sheet})
	ds, err := ingest.Decode(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return err
	}

	svc := analysis.NewService(cfg.ClassifierOptions())
	res := svc.Analyze(ds)
	charts := slices.Collect(svc.Charts(res, analyzeSel))
	if charts == nil {
		charts = []models.ChartRequest{}
	}

	if analyzeExport != "" {
		if err := exportDataset(analyzeExport, res.Dataset); err != nil {
			return err
		}
	}

	return writeOutput(cmd.OutOrStdout(), analyzeOutput{
		File:           ds.Name,
		Rows:           res.Dataset.NumRows(),
		Columns:        res.Dataset.Names(),
		Classification: res.Classification,
		Selection:      analysis.ResolveSelection(res.Classification, analyzeSel),
		Charts:         charts,
	})
}

func writeOutput(w io.Writer, out analyzeOutput) error {
	enc := json.NewEncoder(w)
	if analyzePretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func exportDataset(path string, ds *models.Dataset) error {
	export := service.NewExportService()
	write := export.WriteCSV
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
	case ".parquet":
		write = export.WriteParquet
	default:
		return fmt.Errorf("unsupported export format %q (want .csv or .parquet)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	return f.Close()
}
