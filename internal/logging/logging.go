// Package logging builds the zap loggers used by the command line tool.
// Library packages never call it; they accept a *zap.Logger option.
package logging

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidMode indicates an unknown logger mode or level.
var ErrInvalidMode = errors.New("invalid log mode")

// Modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
	ModeSilent      = "silent"
)

// New builds a logger for mode at level. Empty mode means development,
// empty level means info.
func New(mode, level string) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", ModeProduction:
		cfg = zap.NewProductionConfig()
	case "", "dev", ModeDevelopment:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "none", ModeSilent:
		return zap.NewNop(), nil
	default:
		return nil, fmt.Errorf("%w: %q (must be development, production, or silent)", ErrInvalidMode, mode)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// Diagnostics go to stderr so PDF bytes can be piped to stdout.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return 0, fmt.Errorf("%w: level %q", ErrInvalidMode, level)
	}
	return lvl, nil
}

// Secret returns a field that records whether a credential is set
// without logging its value.
func Secret(key, value string) zap.Field {
	if value == "" {
		return zap.String(key, "")
	}
	return zap.String(key, "[REDACTED]")
}
