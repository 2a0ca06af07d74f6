// File: errors.go
// Title: Grammar Errors
// Description: Structured grammar mismatch error returned for rejected
//              sentences and sentinel errors for recorder misuse.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial error definitions

package grammar

import (
	"errors"
	"fmt"

	chkerr "github.com/msto63/chomsky/pkg/core/error"
)

// DiagnosticPrefix starts every syntax error message
const DiagnosticPrefix = "SYNTAX ERROR: "

var (
	// ErrRecorderSealed is returned when recording after an error edge
	ErrRecorderSealed = errors.New("recorder sealed after syntax error")

	// ErrInvalidEdge is returned for edges to unknown nodes and for a second parent
	ErrInvalidEdge = errors.New("invalid parse tree edge")
)

// MismatchError reports that the token at the cursor does not belong to the
// category the grammar scheduled at that position
type MismatchError struct {
	Expected Category
	Found    string
	Node     NodeID // rule node the error edge starts from
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("'%s' was expected but '%s' was found.", e.Expected, e.Found)
}

// Diagnostic returns the message attached to the error node of the tree
func (e *MismatchError) Diagnostic() string {
	return DiagnosticPrefix + e.Error()
}

// Code classifies the error for the coded error helpers and the logger
func (e *MismatchError) Code() chkerr.Code {
	return chkerr.CodeGrammarMismatch
}

// IsMismatch reports whether err is, or wraps, a *MismatchError
func IsMismatch(err error) bool {
	var m *MismatchError
	return errors.As(err, &m)
}

// defect marks a parser logic error, never a user-facing verdict
func defect(err error, op string) error {
	return chkerr.Wrap(err, "parser defect").
		WithCode(chkerr.CodeParserDefect).
		WithOperation(op)
}
