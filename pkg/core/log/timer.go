// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     log
// Description: Operation timer that logs elapsed time
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package log

import (
	"time"
)

// Timer measures the duration of an operation and logs it when stopped
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	fields    Fields
}

// StartTimer creates and starts a new timer
func (l *Logger) StartTimer(operation string) *Timer {
	return &Timer{
		logger:    l,
		operation: operation,
		start:     time.Now(),
		fields:    make(Fields),
	}
}

// WithField adds a field logged when the timer stops
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop logs the elapsed time at info level and returns it
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.logger.LogDuration(t.operation+" completed", elapsed, t.fields, Fields{"operation": t.operation})
	return elapsed
}
