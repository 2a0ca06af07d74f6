// File: lexicon.go
// Title: Token Classifier
// Description: Immutable word lists mapping lexemes to token categories.
//              Provides the built-in lexicon and loading, validation and
//              export of YAML lexicon files.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial classifier with YAML lexicon files

package grammar

import (
	"bytes"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	chkerr "github.com/msto63/chomsky/pkg/core/error"
)

// Lexicon maps lexemes to categories. It is immutable after construction
// and safe for concurrent use.
type Lexicon struct {
	words map[string]Category
	sets  map[Category][]string
}

// lexiconFile is the YAML layout of a lexicon file
type lexiconFile struct {
	Article   []string `yaml:"article"`
	Noun      []string `yaml:"noun"`
	Verb      []string `yaml:"verb"`
	Adjective []string `yaml:"adjective"`
}

var defaultLexicon = mustLexicon(map[Category][]string{
	CategoryArticle:   {"a", "the"},
	CategoryNoun:      {"dog", "cat", "rat", "house", "tree"},
	CategoryVerb:      {"loves", "hates", "eats", "chases", "stalks"},
	CategoryAdjective: {"fast", "slow", "furry", "sneaky", "tall"},
})

// DefaultLexicon returns the built-in lexicon
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// Classify classifies a lexeme with the built-in lexicon
func Classify(lexeme string) Category {
	return defaultLexicon.Classify(lexeme)
}

// NewLexicon builds a lexicon from per-category word sets. Every word
// category must be present and non-empty, and no word may belong to two
// categories: the adjective/noun decision takes one token of lookahead.
func NewLexicon(sets map[Category][]string) (*Lexicon, error) {
	lex := &Lexicon{
		words: make(map[string]Category),
		sets:  make(map[Category][]string),
	}

	for c := range sets {
		if !isWordCategory(c) {
			return nil, invalidLexicon("category %s cannot own words", c)
		}
	}

	for _, c := range WordCategories() {
		words := sets[c]
		if len(words) == 0 {
			return nil, invalidLexicon("category %s has no words", c)
		}

		seen := make(map[string]bool, len(words))
		for _, w := range words {
			switch {
			case w == "":
				return nil, invalidLexicon("category %s contains an empty word", c)
			case w == EndMarker:
				return nil, invalidLexicon("the end marker %q is reserved", EndMarker)
			case strings.IndexFunc(w, unicode.IsSpace) >= 0:
				return nil, invalidLexicon("word %q contains whitespace", w)
			}

			if other, ok := lex.words[w]; ok && other != c {
				return nil, invalidLexicon("word %q is both %s and %s", w, other, c)
			}
			if seen[w] {
				continue
			}
			seen[w] = true
			lex.words[w] = c
			lex.sets[c] = append(lex.sets[c], w)
		}
		sort.Strings(lex.sets[c])
	}

	return lex, nil
}

// ParseLexicon builds a lexicon from a YAML document. Unknown keys are rejected.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, chkerr.Wrap(err, "failed to parse lexicon").
			WithCode(chkerr.CodeLexiconInvalid)
	}

	return NewLexicon(map[Category][]string{
		CategoryArticle:   file.Article,
		CategoryNoun:      file.Noun,
		CategoryVerb:      file.Verb,
		CategoryAdjective: file.Adjective,
	})
}

// LoadLexicon reads a YAML lexicon file
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chkerr.Wrap(err, "failed to read lexicon").
			WithCode(chkerr.CodeIOError).
			WithDetail("path", path)
	}

	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, chkerr.Wrap(err, "invalid lexicon file").WithDetail("path", path)
	}
	return lex, nil
}

// Classify maps a lexeme to its category. Surrounding whitespace is
// ignored; an empty lexeme and the end marker are END_OF_STATEMENT.
// Matching is case-sensitive.
func (l *Lexicon) Classify(lexeme string) Category {
	lexeme = strings.TrimSpace(lexeme)
	if lexeme == "" || lexeme == EndMarker {
		return CategoryEndOfStatement
	}
	if c, ok := l.words[lexeme]; ok {
		return c
	}
	return CategoryUnknown
}

// Words returns a sorted copy of the words of a category
func (l *Lexicon) Words(c Category) []string {
	return append([]string(nil), l.sets[c]...)
}

// Size returns the number of distinct words
func (l *Lexicon) Size() int {
	return len(l.words)
}

// MarshalYAML exports the lexicon in the lexicon file layout
func (l *Lexicon) MarshalYAML() (interface{}, error) {
	return lexiconFile{
		Article:   l.Words(CategoryArticle),
		Noun:      l.Words(CategoryNoun),
		Verb:      l.Words(CategoryVerb),
		Adjective: l.Words(CategoryAdjective),
	}, nil
}

func isWordCategory(c Category) bool {
	for _, wc := range WordCategories() {
		if c == wc {
			return true
		}
	}
	return false
}

func invalidLexicon(format string, args ...interface{}) error {
	return chkerr.Newf(format, args...).
		WithCode(chkerr.CodeLexiconInvalid).
		WithOperation("grammar.NewLexicon")
}

func mustLexicon(sets map[Category][]string) *Lexicon {
	lex, err := NewLexicon(sets)
	if err != nil {
		panic(err)
	}
	return lex
}
