// Package logging builds the zap loggers used by the CLI and the server.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Mode selects the encoder and default level.
type Mode string

const (
	// ModeProduction logs JSON at info level.
	ModeProduction Mode = "production"
	// ModeDevelopment logs human-readable lines at debug level.
	ModeDevelopment Mode = "development"
	// ModeQuiet logs nothing.
	ModeQuiet Mode = "quiet"
)

// New creates a logger for mode. The CLI uses ModeQuiet unless --verbose is set.
func New(mode Mode) (*zap.Logger, error) {
	var cfg zap.Config
	switch mode {
	case ModeQuiet:
		return zap.NewNop(), nil
	case ModeDevelopment:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// CLIMode returns the mode for a CLI invocation.
func CLIMode(verbose bool) Mode {
	if verbose {
		return ModeDevelopment
	}
	return ModeQuiet
}
