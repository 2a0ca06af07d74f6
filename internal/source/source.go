// Package source reads sentence files line by line. Lines are trimmed,
// blank lines are dropped and comment lines are reported separately so the
// checker can echo them.
package source

import (
	"bufio"
	"io"
	"os"
	"strings"

	chkerr "github.com/msto63/chomsky/pkg/core/error"
)

// DefaultCommentPrefix starts a comment line
const DefaultCommentPrefix = "#"

// StdinName is the source name of standard input
const StdinName = "-"

const maxLineSize = 1024 * 1024

// Kind classifies an input line
type Kind int

const (
	KindSentence Kind = iota
	KindComment
)

func (k Kind) String() string {
	if k == KindComment {
		return "comment"
	}
	return "sentence"
}

// Item is one non-blank input line
type Item struct {
	Source string // file name, "-" for stdin
	Line   int    // 1-based line number within Source
	Kind   Kind
	Text   string // trimmed sentence, or the comment text after the prefix
}

// Reader yields the items of one input
type Reader struct {
	name    string
	prefix  string
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a reader over r. An empty prefix uses DefaultCommentPrefix.
func NewReader(name string, r io.Reader, commentPrefix string) *Reader {
	if commentPrefix == "" {
		commentPrefix = DefaultCommentPrefix
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{name: name, prefix: commentPrefix, scanner: scanner}
}

// Next returns the next item, or io.EOF after the last one
func (r *Reader) Next() (Item, error) {
	for r.scanner.Scan() {
		r.line++
		item, ok := Classify(r.scanner.Text(), r.prefix)
		if !ok {
			continue
		}
		item.Source = r.name
		item.Line = r.line
		return item, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Item{}, chkerr.Wrap(err, "failed to read input").
			WithCode(chkerr.CodeIOError).
			WithDetail("source", r.name).
			WithDetail("line", r.line+1)
	}
	return Item{}, io.EOF
}

// Classify trims one line of input and tells sentences from comments. It
// reports false for blank text. An empty prefix uses DefaultCommentPrefix.
func Classify(text, commentPrefix string) (Item, bool) {
	if commentPrefix == "" {
		commentPrefix = DefaultCommentPrefix
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, false
	}

	if strings.HasPrefix(text, commentPrefix) {
		return Item{Kind: KindComment, Text: strings.TrimPrefix(text, commentPrefix)}, true
	}
	return Item{Kind: KindSentence, Text: text}, true
}

// ReadAll returns all items of r
func ReadAll(name string, r io.Reader, commentPrefix string) ([]Item, error) {
	reader := NewReader(name, r, commentPrefix)

	var items []Item
	for {
		item, err := reader.Next()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
}

// Collect reads the named files in order. No paths, or the path "-", read stdin.
func Collect(paths []string, stdin io.Reader, commentPrefix string) ([]Item, error) {
	if len(paths) == 0 {
		paths = []string{StdinName}
	}

	var items []Item
	for _, path := range paths {
		fileItems, err := collectOne(path, stdin, commentPrefix)
		if err != nil {
			return nil, err
		}
		items = append(items, fileItems...)
	}
	return items, nil
}

func collectOne(path string, stdin io.Reader, commentPrefix string) ([]Item, error) {
	if path == StdinName {
		return ReadAll(StdinName, stdin, commentPrefix)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, chkerr.Wrap(err, "failed to open input").
			WithCode(chkerr.CodeIOError).
			WithDetail("path", path)
	}
	defer f.Close()

	return ReadAll(path, f, commentPrefix)
}

// Name describes a set of inputs for run records
func Name(paths []string) string {
	if len(paths) == 0 {
		return StdinName
	}
	return strings.Join(paths, ",")
}
