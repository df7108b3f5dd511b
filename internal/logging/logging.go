// Package logging builds the process-wide zap.Logger, grounded on
// codeNERD's cmd/nerd zap.NewProductionConfig setup (production JSON
// output by default, debug level under a verbose flag).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger. verbose lowers the level to debug; otherwise the
// engine logs at info level in structured JSON, matching the production
// config the CLI ships with by default.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// NewDevelopment builds a human-readable console logger. The `fractalic`
// CLI does not use it; its commands build their logger with New.
func NewDevelopment(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "" // terse console lines, no timestamp noise
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}
