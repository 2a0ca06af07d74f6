// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating configured loggers
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"

	chklog "github.com/msto63/chomsky/pkg/core/log"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json", "text" or "logfmt" (default: text)
	Format string

	// Output writer (default: stderr, stdout is reserved for results)
	Output io.Writer

	// Additional outputs
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "text",
	}
}

// NewLogger creates a new core logger from cfg
func NewLogger(cfg LoggerConfig) *chklog.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}

	if len(cfg.AdditionalOutputs) > 0 {
		writers := append([]io.Writer{output}, cfg.AdditionalOutputs...)
		output = io.MultiWriter(writers...)
	}

	format, err := chklog.ParseFormat(cfg.Format)
	if err != nil {
		format = chklog.FormatText
	}

	return chklog.NewWithConfig(chklog.Config{
		Level:  parseLevel(cfg.Level),
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
}

// Configure installs a logger built from cfg as the process default.
// Loggers created afterwards with New derive from it.
func Configure(cfg LoggerConfig) *chklog.Logger {
	logger := NewLogger(cfg)
	chklog.SetDefault(logger)
	return logger
}

// parseLevel converts a string level to chklog.Level
func parseLevel(level string) chklog.Level {
	lvl, err := chklog.ParseLevel(level)
	if err != nil {
		return chklog.LevelInfo
	}
	return lvl
}
