// File: token.go
// Title: Token Categories
// Description: Defines the grammar terminal categories and the immutable
//              token value produced by the lexeme stream.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial token definitions

package grammar

import (
	"fmt"
	"strings"
)

// EndMarker is the reserved lexeme appended to every sentence
const EndMarker = "$$"

// Category is the grammar terminal class of a lexeme
type Category int

const (
	CategoryUnknown Category = iota
	CategoryArticle
	CategoryNoun
	CategoryVerb
	CategoryAdjective
	CategoryEndOfStatement
)

var categoryNames = map[Category]string{
	CategoryUnknown:        "UNKNOWN",
	CategoryArticle:        "ARTICLE",
	CategoryNoun:           "NOUN",
	CategoryVerb:           "VERB",
	CategoryAdjective:      "ADJECTIVE",
	CategoryEndOfStatement: "END_OF_STATEMENT",
}

// String returns the upper-case category name used in diagnostics
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// WordCategories returns the categories that own a word set, in lexicon file order
func WordCategories() []Category {
	return []Category{CategoryArticle, CategoryNoun, CategoryVerb, CategoryAdjective}
}

// ParseCategory resolves a category name, case-insensitively
func ParseCategory(name string) (Category, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == upper {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// Token is a classified lexeme
type Token struct {
	Category Category
	Text     string
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Category, t.Text)
}
