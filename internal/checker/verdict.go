package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/msto63/chomsky/internal/grammar"
)

// Separator follows the output of every sentence
var Separator = strings.Repeat("-", 59)

// Verdict is the outcome of checking one sentence
type Verdict struct {
	Sentence string `json:"sentence"`
	Accepted bool   `json:"accepted"`
	Expected string `json:"expected,omitempty"` // category name, set on mismatch
	Found    string `json:"found,omitempty"`
	Message  string `json:"message"`
	Tree     string `json:"tree"`

	// Err is a non-mismatch failure (parser defect, cancellation)
	Err error `json:"-"`
}

// Evaluate parses one sentence and builds its verdict
func Evaluate(p *grammar.Parser, sentence string) Verdict {
	tree, err := p.Parse(sentence)
	return NewVerdict(sentence, tree, err)
}

// NewVerdict builds a verdict from a parse result
func NewVerdict(sentence string, tree *grammar.Tree, err error) Verdict {
	v := Verdict{Sentence: sentence}
	if tree != nil {
		v.Tree = tree.Render()
	}

	var m *grammar.MismatchError
	switch {
	case err == nil:
		v.Accepted = true
		v.Message = AcceptedText(sentence)
	case errors.As(err, &m):
		v.Expected = m.Expected.String()
		v.Found = m.Found
		v.Message = m.Diagnostic()
	default:
		v.Err = err
		v.Message = "ERROR: " + err.Error()
	}
	return v
}

// Lines returns the verdict lines in output order, without tree and separator
func (v Verdict) Lines() []string {
	if v.Accepted {
		return []string{v.Message}
	}
	return []string{v.Message, FailText(v.Sentence)}
}

// AcceptedText is the verdict line of an accepted sentence
func AcceptedText(sentence string) string {
	return fmt.Sprintf("The sentence '%s' follows the BNF grammar.", sentence)
}

// FailText is the summary line of a rejected sentence
func FailText(sentence string) string {
	return fmt.Sprintf("FAIL: The sentence '%s' does not follow the BNF grammar.", sentence)
}

// CommentText echoes a comment line
func CommentText(comment string) string {
	return "Comment: " + comment
}
