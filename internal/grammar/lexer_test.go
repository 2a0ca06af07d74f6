// File: lexer_test.go
// Title: Lexeme Stream Unit Tests
// Description: Tests lexeme splitting, the appended end marker, cursor
//              movement and the advance-past-end defect.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial stream tests

package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chkerr "github.com/msto63/chomsky/pkg/core/error"
)

func TestStream_Tokens(t *testing.T) {
	s := NewStream(nil)
	s.Start("the  fast\tdog unicorn")

	want := []Token{
		{CategoryArticle, "the"},
		{CategoryAdjective, "fast"},
		{CategoryNoun, "dog"},
		{CategoryUnknown, "unicorn"},
		{CategoryEndOfStatement, EndMarker},
	}

	for i, tok := range want {
		assert.Equal(t, i, s.Position())
		assert.Equal(t, tok, s.Current())
		assert.Equal(t, i == len(want)-1, s.AtEnd())
		if i < len(want)-1 {
			require.NoError(t, s.Advance())
		}
	}
}

func TestStream_AdvancePastEnd(t *testing.T) {
	s := NewStream(nil)
	s.Start("dog")
	require.NoError(t, s.Advance())
	require.True(t, s.AtEnd())

	err := s.Advance()
	require.Error(t, err)
	assert.True(t, chkerr.HasCode(err, chkerr.CodeParserDefect))

	// Cursor stays parked
	assert.Equal(t, 1, s.Position())
	assert.Equal(t, Token{CategoryEndOfStatement, EndMarker}, s.Current())
}

func TestStream_StartResets(t *testing.T) {
	s := NewStream(DefaultLexicon())
	assert.True(t, s.AtEnd(), "a new stream is parked at the end marker")

	s.Start("the dog")
	require.NoError(t, s.Advance())
	s.Start("a cat")

	assert.Equal(t, 0, s.Position())
	assert.Equal(t, Token{CategoryArticle, "a"}, s.Current())
}

func TestStream_BlankSentence(t *testing.T) {
	s := NewStream(nil)
	s.Start("   ")

	assert.True(t, s.AtEnd())
	assert.Equal(t, CategoryEndOfStatement, s.Current().Category)
}
