package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger at level, writing json or console output.
// Stack traces are only attached at error level.
func New(level, format string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	logLevel := zap.InfoLevel
	if level != "" {
		if err := logLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(logLevel)

	switch format {
	case "", "json":
	case "console":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
}
