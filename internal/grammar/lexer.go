// File: lexer.go
// Title: Lexeme Stream
// Description: Splits one sentence into whitespace-delimited lexemes,
//              appends the end marker and exposes single-token lookahead
//              to the parser.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial lexeme stream

package grammar

import (
	"fmt"
	"strings"
)

// Stream is the lexeme sequence of one sentence with a cursor. The cursor
// only moves forward and the last lexeme is always the end marker.
type Stream struct {
	lexicon *Lexicon
	lexemes []string
	pos     int
	current Token
}

// NewStream creates a stream classifying with lex (the built-in lexicon if nil).
// The stream starts out empty, parked at the end marker.
func NewStream(lex *Lexicon) *Stream {
	if lex == nil {
		lex = DefaultLexicon()
	}
	s := &Stream{lexicon: lex}
	s.Start("")
	return s
}

// Start resets the stream to the lexemes of sentence
func (s *Stream) Start(sentence string) {
	fields := strings.Fields(sentence)
	s.lexemes = append(fields, EndMarker)
	s.pos = 0
	s.classify()
}

// Current returns the token at the cursor without advancing
func (s *Stream) Current() Token {
	return s.current
}

// Advance moves the cursor to the next lexeme. Advancing while parked at
// the end marker is a parser defect: it returns an error and the cursor
// stays where it is.
func (s *Stream) Advance() error {
	if s.AtEnd() {
		return defect(fmt.Errorf("advance past end marker at position %d", s.pos), "grammar.Stream.Advance")
	}
	s.pos++
	s.classify()
	return nil
}

// AtEnd reports whether the cursor is on the appended end marker
func (s *Stream) AtEnd() bool {
	return s.pos == len(s.lexemes)-1
}

// Position returns the zero-based index of the current lexeme
func (s *Stream) Position() int {
	return s.pos
}

func (s *Stream) classify() {
	text := s.lexemes[s.pos]
	s.current = Token{Category: s.lexicon.Classify(text), Text: text}
}
