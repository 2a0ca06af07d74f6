// File: recorder.go
// Title: Parse Tree Recorder
// Description: Allocates parse tree node ids, records rule and lexeme
//              edges plus the terminating syntax error edge, and renders
//              the result as a Graphviz DOT document.
// Author: msto63
// Version: v1.0.0
// Created: 2026-10-18
// Modified: 2026-10-18
//
// Change History:
// - 2026-10-18 v1.0.0: Initial recorder and DOT rendering

package grammar

import (
	"fmt"
	"io"
	"strings"
)

// NodeID identifies a parse tree node. Ids increase in creation order.
type NodeID int

// RootID is the id of the diamond root node of every tree
const RootID NodeID = 0

// RootLabel labels the root node
const RootLabel = "PARSE TREE"

// NodeKind distinguishes rule expansions from matched terminals
type NodeKind int

const (
	NonTerminal NodeKind = iota
	Terminal
)

func (k NodeKind) String() string {
	if k == Terminal {
		return "terminal"
	}
	return "nonterminal"
}

// Shape is the rendering hint of an edge target
type Shape string

const (
	ShapeOval Shape = "oval"
	ShapeRect Shape = "rect"
)

// Node is a parse tree node
type Node struct {
	ID    NodeID
	Label string
	Kind  NodeKind
}

// Edge connects a parent node to a child node
type Edge struct {
	Parent NodeID
	Child  NodeID
	Label  string
	Shape  Shape
}

// Leaf attaches the matched lexeme to a terminal node
type Leaf struct {
	Node   NodeID
	Lexeme string
}

type entryKind int

const (
	entryEdge entryKind = iota
	entryLeaf
)

// entry keeps edges and leaves in recording order for rendering
type entry struct {
	kind  entryKind
	index int
}

// Tree is an immutable snapshot of a recorded parse tree
type Tree struct {
	nodes    []Node
	edges    []Edge
	leaves   []Leaf
	order    []entry
	parents  map[NodeID]NodeID
	errNode  NodeID
	errMsg   string
	hasError bool
}

// Recorder builds the parse tree of one sentence. It is not safe for
// concurrent use; each parse owns its recorder.
type Recorder struct {
	tree   *Tree
	sealed bool
}

// NewRecorder creates a recorder holding only the root node
func NewRecorder() *Recorder {
	return &Recorder{
		tree: &Tree{
			nodes:   []Node{{ID: RootID, Label: RootLabel, Kind: NonTerminal}},
			parents: make(map[NodeID]NodeID),
		},
	}
}

// NewNode allocates the next node id. No edge is recorded.
func (r *Recorder) NewNode(label string, kind NodeKind) NodeID {
	id := NodeID(len(r.tree.nodes))
	r.tree.nodes = append(r.tree.nodes, Node{ID: id, Label: label, Kind: kind})
	return id
}

// RecordEdge appends a parent to child edge. The child must not have a parent yet.
func (r *Recorder) RecordEdge(parent, child NodeID, label string, shape Shape) error {
	if r.sealed {
		return ErrRecorderSealed
	}
	if !r.known(parent) || !r.known(child) {
		return fmt.Errorf("%w: unknown node in %d -> %d", ErrInvalidEdge, parent, child)
	}
	if child == RootID || child == parent {
		return fmt.Errorf("%w: %d cannot be a child of %d", ErrInvalidEdge, child, parent)
	}
	if p, ok := r.tree.parents[child]; ok {
		return fmt.Errorf("%w: node %d already has parent %d", ErrInvalidEdge, child, p)
	}

	r.tree.parents[child] = parent
	r.tree.order = append(r.tree.order, entry{kind: entryEdge, index: len(r.tree.edges)})
	r.tree.edges = append(r.tree.edges, Edge{Parent: parent, Child: child, Label: label, Shape: shape})
	return nil
}

// RecordLeaf attaches a matched lexeme to a terminal node
func (r *Recorder) RecordLeaf(node NodeID, lexeme string) error {
	if r.sealed {
		return ErrRecorderSealed
	}
	if !r.known(node) {
		return fmt.Errorf("%w: unknown node %d", ErrInvalidEdge, node)
	}
	for _, l := range r.tree.leaves {
		if l.Node == node {
			return fmt.Errorf("%w: node %d already has a lexeme", ErrInvalidEdge, node)
		}
	}

	r.tree.order = append(r.tree.order, entry{kind: entryLeaf, index: len(r.tree.leaves)})
	r.tree.leaves = append(r.tree.leaves, Leaf{Node: node, Lexeme: lexeme})
	return nil
}

// RecordErrorEdge appends the final edge into the error message node and
// seals the recorder
func (r *Recorder) RecordErrorEdge(parent NodeID, message string) error {
	if r.sealed {
		return ErrRecorderSealed
	}
	if !r.known(parent) {
		return fmt.Errorf("%w: unknown node %d", ErrInvalidEdge, parent)
	}

	r.tree.errNode = parent
	r.tree.errMsg = message
	r.tree.hasError = true
	r.sealed = true
	return nil
}

// Sealed reports whether an error edge has been recorded
func (r *Recorder) Sealed() bool {
	return r.sealed
}

// Tree returns a snapshot of the recorded tree. Later recording does not
// change a returned snapshot.
func (r *Recorder) Tree() *Tree {
	t := *r.tree
	t.nodes = append([]Node(nil), r.tree.nodes...)
	t.edges = append([]Edge(nil), r.tree.edges...)
	t.leaves = append([]Leaf(nil), r.tree.leaves...)
	t.order = append([]entry(nil), r.tree.order...)
	t.parents = make(map[NodeID]NodeID, len(r.tree.parents))
	for k, v := range r.tree.parents {
		t.parents[k] = v
	}
	return &t
}

func (r *Recorder) known(id NodeID) bool {
	return id >= RootID && int(id) < len(r.tree.nodes)
}

// Nodes returns the nodes in creation order, root first
func (t *Tree) Nodes() []Node {
	return append([]Node(nil), t.nodes...)
}

// Edges returns the rule edges in recording order
func (t *Tree) Edges() []Edge {
	return append([]Edge(nil), t.edges...)
}

// Leaves returns the lexeme leaves in recording order
func (t *Tree) Leaves() []Leaf {
	return append([]Leaf(nil), t.leaves...)
}

// Labels returns the node labels in creation order
func (t *Tree) Labels() []string {
	labels := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		labels[i] = n.Label
	}
	return labels
}

// Parent returns the parent of a node; the root has none
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p, ok := t.parents[id]
	return p, ok
}

// Failed reports whether the tree ends in a syntax error edge
func (t *Tree) Failed() bool {
	return t.hasError
}

// ErrorNode returns the node the error edge starts from
func (t *Tree) ErrorNode() (NodeID, bool) {
	return t.errNode, t.hasError
}

// ErrorMessage returns the error node text, or "" for accepted sentences
func (t *Tree) ErrorMessage() string {
	return t.errMsg
}

// Render returns the DOT document of the tree
func (t *Tree) Render() string {
	var b strings.Builder
	_, _ = t.WriteTo(&b)
	return b.String()
}

// WriteTo writes the DOT document of the tree to w
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}

	cw.printf("digraph ParseTree {\n")
	cw.printf("    {%s [label=%s shape=diamond]};\n", quote(RootID.String()), quote(RootLabel))

	for _, e := range t.order {
		switch e.kind {
		case entryEdge:
			edge := t.edges[e.index]
			cw.printf("    %s -> {%s [label=%s, shape=%s]};\n",
				quote(edge.Parent.String()), quote(edge.Child.String()), quote(edge.Label), edge.Shape)
		case entryLeaf:
			leaf := t.leaves[e.index]
			cw.printf("    %s -> {%s [label=%s, shape=%s]};\n",
				quote(leaf.Node.String()), quote(leaf.Node.String()+"_term"), quote(leaf.Lexeme), ShapeRect)
		}
	}

	if t.hasError {
		cw.printf("    %s -> {%s};\n", quote(t.errNode.String()), quote(t.errMsg))
	}

	cw.printf("}\n")
	return cw.n, cw.err
}

// String returns the decimal id
func (id NodeID) String() string {
	return fmt.Sprintf("%d", int(id))
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// quote returns s as a DOT quoted string
func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// countingWriter keeps the first write error and the byte count
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) printf(format string, args ...interface{}) {
	if c.err != nil {
		return
	}
	n, err := fmt.Fprintf(c.w, format, args...)
	c.n += int64(n)
	c.err = err
}
