// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     log
// Description: Structured logging with levels, fields and formatters
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

/*
Package log provides structured logging for chomsky.

A Logger writes Entries through a Formatter (JSON, text or logfmt) to an
io.Writer. Loggers are immutable from the caller's point of view: WithField,
WithFields, WithLevel and friends return a modified copy, so a component can
derive its own logger without affecting others:

	logger := log.NewWithConfig(log.Config{Level: log.LevelDebug, Format: log.FormatText})
	parserLog := logger.WithField("component", "grammar-parser")
	parserLog.Debug("Parsing sentence", log.Fields{"sentence": s})

Coded errors from pkg/core/error are logged with LogError, which picks the
level from the error severity.
*/
package log
