// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     error
// Description: Severity levels for error classification
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates an expected outcome, e.g. a rejected sentence
	SeverityLow Severity = iota

	// SeverityMedium indicates an error that affects one operation
	SeverityMedium

	// SeverityHigh indicates an error that stops a command
	SeverityHigh

	// SeverityCritical indicates a programming defect
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeParserDefect, CodeInternal:
		return SeverityCritical

	case CodeConfigError, CodeLexiconInvalid, CodeStoreError, CodeServiceUnavailable:
		return SeverityHigh

	case CodeGrammarMismatch, CodeInvalidInput, CodeNotFound:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
