// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     logging
// Description: Key/value logger used by services and commands
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	chklog "github.com/msto63/chomsky/pkg/core/log"
)

// Logger wraps the core logger with key/value convenience methods
type Logger struct {
	*chklog.Logger
	name string
}

// New creates a named logger derived from the configured default logger
func New(name string) *Logger {
	return &Logger{
		Logger: chklog.GetDefault().WithName(name),
		name:   name,
	}
}

// Wrap turns a core logger into a key/value logger
func Wrap(l *chklog.Logger) *Logger {
	return &Logger{Logger: l, name: l.Name()}
}

// With returns a copy carrying the given key/value pairs on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.WithFields(toFields(keysAndValues...)),
		name:   l.name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to chklog.Fields
func toFields(keysAndValues ...interface{}) chklog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(chklog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
