package config

import (
	"dashxcel/internal/analysis"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// DefaultConfigFileName is searched for in "." and /etc/dashxcel.
const DefaultConfigFileName = "dashxcel"

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Session  SessionConfig  `mapstructure:"session"`
	DB       DBConfig       `mapstructure:"db"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string     `mapstructure:"host"`
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig limits and tunes uploads.
type UploadConfig struct {
	MaxBytes int64  `mapstructure:"max_bytes"`
	Sheet    string `mapstructure:"sheet"` // xlsx worksheet, empty for the first
}

// ClassifyConfig tunes column classification.
type ClassifyConfig struct {
	EmptyColumns string `mapstructure:"empty_columns"` // categorical, temporal
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL   time.Duration `mapstructure:"ttl"`
	Sweep string        `mapstructure:"sweep"` // cron spec
}

// DBConfig holds database ingest settings.
type DBConfig struct {
	PreviewLimit int `mapstructure:"preview_limit"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("upload.max_bytes", 100*1024*1024) // 100MB
	v.SetDefault("upload.sheet", "")

	v.SetDefault("classify.empty_columns", string(analysis.EmptyAsCategorical))

	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.sweep", "@every 5m")

	v.SetDefault("db.preview_limit", 10000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads configuration from defaults, an optional config file and
// DASHXCEL_ environment variables, in increasing priority. Flags bound to v
// beforehand take precedence over all of them.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/dashxcel/")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix("DASHXCEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// Validate rejects configuration the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if _, err := analysis.ParseEmptyColumnPolicy(c.Classify.EmptyColumns); err != nil {
		return fmt.Errorf("classify.empty_columns: %w", err)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative, got %s", c.Session.TTL)
	}
	if _, err := cron.ParseStandard(c.Session.Sweep); err != nil {
		return fmt.Errorf("session.sweep: %w", err)
	}
	if c.DB.PreviewLimit < 1 {
		return fmt.Errorf("db.preview_limit must be at least 1, got %d", c.DB.PreviewLimit)
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ClassifierOptions converts the classify section.
func (c *Config) ClassifierOptions() analysis.Options {
	policy, err := analysis.ParseEmptyColumnPolicy(c.Classify.EmptyColumns)
	if err != nil {
		policy = analysis.EmptyAsCategorical
	}
	return analysis.Options{EmptyColumns: policy}
}
