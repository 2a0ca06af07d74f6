// ============================================================================
// chomsky - Grammar Conformance Checker
// ============================================================================
//
// Package:     error
// Description: Error codes for consistent error classification
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"

	// Configuration and environment
	CodeConfigError    Code = "CONFIG_ERROR"
	CodeLexiconInvalid Code = "LEXICON_INVALID"

	// Grammar checking
	CodeGrammarMismatch Code = "GRAMMAR_MISMATCH"
	CodeParserDefect    Code = "PARSER_DEFECT"

	// Storage and I/O
	CodeStoreError Code = "STORE_ERROR"
	CodeIOError    Code = "IO_ERROR"

	// Service
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid reports whether c is one of the defined codes
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeInvalidInput, CodeNotFound,
		CodeConfigError, CodeLexiconInvalid,
		CodeGrammarMismatch, CodeParserDefect,
		CodeStoreError, CodeIOError, CodeServiceUnavailable:
		return true
	}
	return false
}
