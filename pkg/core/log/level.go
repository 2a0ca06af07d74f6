// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     log
// Description: Log levels and level parsing
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package log

import (
	"strings"
)

// Level orders log messages by severity
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// levelNames holds the JSON/logfmt name and the console tag of each level
var levelNames = [...]struct{ name, tag string }{
	LevelTrace: {"trace", "TRC"},
	LevelDebug: {"debug", "DBG"},
	LevelInfo:  {"info", "INF"},
	LevelWarn:  {"warn", "WRN"},
	LevelError: {"error", "ERR"},
	LevelFatal: {"fatal", "FTL"},
}

func (l Level) valid() bool {
	return l >= LevelTrace && l <= LevelFatal
}

func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levelNames[l].name
}

// ShortString returns the three letter tag used by the text formatter
func (l Level) ShortString() string {
	if !l.valid() {
		return "???"
	}
	return levelNames[l].tag
}

// ShouldLog reports whether a message at l passes the minimum level
func (l Level) ShouldLog(minLevel Level) bool {
	return l >= minLevel
}

// ParseLevel accepts level names and tags in any case, plus "warning".
// Unknown input yields LevelInfo and a *ParseError.
func ParseLevel(level string) (Level, error) {
	s := strings.ToLower(strings.TrimSpace(level))
	if s == "warning" {
		return LevelWarn, nil
	}
	for l, n := range levelNames {
		if s == n.name || s == strings.ToLower(n.tag) {
			return Level(l), nil
		}
	}
	return LevelInfo, &ParseError{Input: level, Type: "level"}
}

// ParseError reports an unknown level or format name
type ParseError struct {
	Input string
	Type  string
}

func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}

// DefaultLevel is the level of loggers created without a config
func DefaultLevel() Level {
	return LevelInfo
}
