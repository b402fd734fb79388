// Package observability provides logging utilities shared by the binaries.
package observability

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/rolling/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
// Every entry carries the service name.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]any{"service": service}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// RequestLogger returns a child of logger tagged with a fresh request id,
// and that id.
func RequestLogger(logger *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return logger.With(zap.String("request_id", id)), id
}

// CharacterLogger returns a child of logger tagged with the acting character.
func CharacterLogger(logger *zap.Logger, characterID string) *zap.Logger {
	return logger.With(zap.String("character", characterID))
}
