// File: doc.go
// Title: Grammar Package Documentation
// Description: Documents the tokenizer, recursive descent parser and parse
//              tree recorder that check sentences against the noun phrase
//              grammar and render derivation trees as Graphviz documents.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial grammar package

/*
Package grammar checks single sentences against a small fixed grammar:

	S   ::= NP V NP EOS
	NP  ::= A AN
	AN  ::= ADJ N | N

It consists of four parts:

  - Lexicon classifies a raw lexeme into a Category (ARTICLE, NOUN, VERB,
    ADJECTIVE, END_OF_STATEMENT or UNKNOWN).
  - Stream splits a sentence on whitespace, appends the reserved end marker
    "$$" and offers one token of lookahead.
  - Recorder collects the derivation tree (nodes, edges, lexeme leaves and
    at most one error edge) and produces an immutable Tree that renders as
    a Graphviz DOT document.
  - Parser runs one procedure per nonterminal over a per-parse state.

A Parser holds no per-sentence state and may be shared between goroutines:

	p := grammar.New(grammar.Options{})
	tree, err := p.Parse("the fast dog chases a slow rat")
	var mismatch *grammar.MismatchError
	if errors.As(err, &mismatch) {
		fmt.Println("SYNTAX ERROR:", mismatch)
	}
	fmt.Print(tree.Render())

The tree is returned for rejected sentences too; it then ends in an edge to
the syntax error message.
*/
package grammar
