package core

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogConfig struct {
	// Level is one of debug, info, warn or error. Empty means debug in
	// development and info otherwise.
	Level string `mapstructure:"level"`
	// Format is json or console. Empty means console in development and
	// json otherwise.
	Format string `mapstructure:"format"`
}

// NewLogger builds the process logger. The environment picks the zap
// preset and cfg overrides its level and encoding.
func NewLogger(environment string, cfg LogConfig) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	if environment == "development" {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	switch cfg.Format {
	case "":
	case "json", "console":
		zc.Encoding = cfg.Format
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}
