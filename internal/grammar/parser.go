// File: parser.go
// Title: Recursive Descent Grammar Parser
// Description: Checks one sentence against S ::= NP V NP EOS,
//              NP ::= A AN, AN ::= ADJ N | N with one procedure per
//              nonterminal, recording the derivation tree as it goes and
//              aborting on the first mismatch.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial parser implementation

package grammar

import (
	"context"
	"errors"

	chklog "github.com/msto63/chomsky/pkg/core/log"
)

// Rule labels as they appear on tree edges
const (
	LabelSentence   = "<S>"
	LabelNounPhrase = "<NP>"
	LabelAdjNoun    = "<AN>"
	LabelArticle    = "<A>"
	LabelNoun       = "<N>"
	LabelVerb       = "<V>"
	LabelAdjective  = "<ADJ>"
	LabelEnd        = "<EOS>"
)

// Parser checks sentences against the grammar. It keeps no per-sentence
// state and may be used from several goroutines.
type Parser struct {
	lexicon *Lexicon
	logger  *chklog.Logger
}

// Options configures parser behavior
type Options struct {
	Lexicon *Lexicon // defaults to DefaultLexicon()
	Logger  *chklog.Logger
}

// New creates a parser with the given options
func New(opts Options) *Parser {
	if opts.Lexicon == nil {
		opts.Lexicon = DefaultLexicon()
	}
	if opts.Logger == nil {
		opts.Logger = chklog.GetDefault()
	}

	return &Parser{
		lexicon: opts.Lexicon,
		logger:  opts.Logger.WithField("component", "grammar-parser"),
	}
}

// Lexicon returns the lexicon used for classification
func (p *Parser) Lexicon() *Lexicon {
	return p.lexicon
}

// Parse checks one sentence. The returned tree is never nil. The error is
// a *MismatchError for a rejected sentence, or a PARSER_DEFECT coded error
// if the parser itself misbehaved.
func (p *Parser) Parse(sentence string) (*Tree, error) {
	return p.parse(sentence)
}

// ParseContext is Parse for batch use: a cancelled context skips the
// sentence and returns the root-only tree with the context error.
func (p *Parser) ParseContext(ctx context.Context, sentence string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return NewRecorder().Tree(), err
	}
	return p.parse(sentence)
}

func (p *Parser) parse(sentence string) (*Tree, error) {
	st := &parseState{
		stream:   NewStream(p.lexicon),
		recorder: NewRecorder(),
	}
	st.stream.Start(sentence)

	_, err := st.sentence(RootID)
	tree := st.recorder.Tree()

	fields := chklog.Fields{
		"sentence": sentence,
		"nodes":    len(tree.nodes),
	}
	var m *MismatchError
	switch {
	case err == nil:
		p.logger.Debug("Sentence accepted", fields)
	case errors.As(err, &m):
		fields["expected"] = m.Expected.String()
		fields["found"] = m.Found
		p.logger.Debug("Sentence rejected", fields)
	default:
		p.logger.ErrorWithErr("Parser defect", err, fields)
	}

	return tree, err
}

// parseState is the explicit context of one parse: the stream and the
// recorder. Rule procedures return the id of the node they created.
type parseState struct {
	stream   *Stream
	recorder *Recorder
}

// rule expands a nonterminal below parent
type rule func(parent NodeID) (NodeID, error)

// sentence: S ::= NP V NP EOS
func (st *parseState) sentence(parent NodeID) (NodeID, error) {
	return st.sequence(parent, LabelSentence, st.nounPhrase, st.verb, st.nounPhrase, st.endOfSentence)
}

// nounPhrase: NP ::= A AN
func (st *parseState) nounPhrase(parent NodeID) (NodeID, error) {
	return st.sequence(parent, LabelNounPhrase, st.article, st.adjNoun)
}

// adjNoun: AN ::= ADJ N | N, decided by one token of lookahead
func (st *parseState) adjNoun(parent NodeID) (NodeID, error) {
	if st.stream.Current().Category == CategoryAdjective {
		return st.sequence(parent, LabelAdjNoun, st.adjective, st.noun)
	}
	return st.sequence(parent, LabelAdjNoun, st.noun)
}

func (st *parseState) article(parent NodeID) (NodeID, error) {
	return st.terminal(parent, LabelArticle, CategoryArticle)
}

func (st *parseState) verb(parent NodeID) (NodeID, error) {
	return st.terminal(parent, LabelVerb, CategoryVerb)
}

func (st *parseState) noun(parent NodeID) (NodeID, error) {
	return st.terminal(parent, LabelNoun, CategoryNoun)
}

func (st *parseState) adjective(parent NodeID) (NodeID, error) {
	return st.terminal(parent, LabelAdjective, CategoryAdjective)
}

// endOfSentence checks for the appended end marker and never advances.
// A "$$" typed before the last word does not end the sentence.
func (st *parseState) endOfSentence(parent NodeID) (NodeID, error) {
	node, err := st.enter(parent, LabelEnd, Terminal)
	if err != nil {
		return node, err
	}
	if tok := st.stream.Current(); tok.Category != CategoryEndOfStatement || !st.stream.AtEnd() {
		return node, st.mismatch(parent, CategoryEndOfStatement, tok)
	}
	return node, nil
}

// sequence creates a nonterminal node and expands its children left to right
func (st *parseState) sequence(parent NodeID, label string, children ...rule) (NodeID, error) {
	node, err := st.enter(parent, label, NonTerminal)
	if err != nil {
		return node, err
	}
	for _, child := range children {
		if _, err := child(node); err != nil {
			return node, err
		}
	}
	return node, nil
}

// terminal matches the current token against want, records its lexeme and advances
func (st *parseState) terminal(parent NodeID, label string, want Category) (NodeID, error) {
	node, err := st.enter(parent, label, Terminal)
	if err != nil {
		return node, err
	}

	tok := st.stream.Current()
	if tok.Category != want {
		return node, st.mismatch(parent, want, tok)
	}
	if err := st.recorder.RecordLeaf(node, tok.Text); err != nil {
		return node, defect(err, "grammar.terminal")
	}
	return node, st.stream.Advance()
}

func (st *parseState) enter(parent NodeID, label string, kind NodeKind) (NodeID, error) {
	node := st.recorder.NewNode(label, kind)
	if err := st.recorder.RecordEdge(parent, node, label, ShapeOval); err != nil {
		return node, defect(err, "grammar.enter")
	}
	return node, nil
}

// mismatch records the error edge from the rule node that expanded the
// failing terminal and builds the error
func (st *parseState) mismatch(parent NodeID, want Category, found Token) error {
	m := &MismatchError{Expected: want, Found: found.Text, Node: parent}
	if err := st.recorder.RecordErrorEdge(parent, m.Diagnostic()); err != nil {
		return defect(err, "grammar.mismatch")
	}
	return m
}
