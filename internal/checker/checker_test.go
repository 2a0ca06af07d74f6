package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/source"
	chklog "github.com/msto63/chomsky/pkg/core/log"
	"github.com/msto63/chomsky/pkg/core/logging"
)

func newTestChecker(workers int) *Checker {
	return New(Options{
		Parser:  grammar.New(grammar.Options{Logger: chklog.Discard()}),
		Workers: workers,
		Logger:  logging.Wrap(chklog.Discard()),
	})
}

func sentences(texts ...string) []source.Item {
	items := make([]source.Item, len(texts))
	for i, text := range texts {
		items[i] = source.Item{Source: "-", Line: i + 1, Kind: source.KindSentence, Text: text}
		if strings.HasPrefix(text, "#") {
			items[i].Kind = source.KindComment
			items[i].Text = strings.TrimPrefix(text, "#")
		}
	}
	return items
}

func TestRun_OutputMatchesDriverFormat(t *testing.T) {
	items := sentences("# demo", "the dog loves a cat", "dog loves a cat", "the dog loves")

	var out bytes.Buffer
	reporter := NewReporter(&out, false, ColorNever)

	summary, err := newTestChecker(1).Run(context.Background(), items, reporter)
	require.NoError(t, err)
	require.NoError(t, reporter.Summary(summary))

	sep := strings.Repeat("-", 59)
	want := strings.Join([]string{
		"Comment:  demo",
		"The sentence 'the dog loves a cat' follows the BNF grammar.",
		sep,
		"SYNTAX ERROR: 'ARTICLE' was expected but 'dog' was found.",
		"FAIL: The sentence 'dog loves a cat' does not follow the BNF grammar.",
		sep,
		"SYNTAX ERROR: 'ARTICLE' was expected but '$$' was found.",
		"FAIL: The sentence 'the dog loves' does not follow the BNF grammar.",
		sep,
		"Checked 3 sentences: 1 passed, 2 failed.",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.Comments)
}

func TestRun_EmitTree(t *testing.T) {
	var out bytes.Buffer
	_, err := newTestChecker(1).Run(context.Background(), sentences("dog"), NewReporter(&out, true, ColorNever))
	require.NoError(t, err)

	want := `digraph ParseTree {
    {"0" [label="PARSE TREE" shape=diamond]};
    "0" -> {"1" [label="<S>", shape=oval]};
    "1" -> {"2" [label="<NP>", shape=oval]};
    "2" -> {"3" [label="<A>", shape=oval]};
    "2" -> {"SYNTAX ERROR: 'ARTICLE' was expected but 'dog' was found."};
}
SYNTAX ERROR: 'ARTICLE' was expected but 'dog' was found.
FAIL: The sentence 'dog' does not follow the BNF grammar.
` + Separator + "\n"
	assert.Equal(t, want, out.String())
}

func TestRun_OrderPreservedForAnyWorkerCount(t *testing.T) {
	var texts []string
	for i := 0; i < 200; i++ {
		switch i % 3 {
		case 0:
			texts = append(texts, "the fast dog chases a slow rat")
		case 1:
			texts = append(texts, fmt.Sprintf("the dog loves a cat %d", i))
		default:
			texts = append(texts, "#"+fmt.Sprint(i))
		}
	}
	items := sentences(texts...)

	for _, workers := range []int{1, 2, 7, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var seen []int
			sink := SinkFunc(func(res Result) error {
				seen = append(seen, res.Seq)
				assert.Equal(t, items[res.Seq], res.Item)
				return nil
			})

			summary, err := newTestChecker(workers).Run(context.Background(), items, sink)
			require.NoError(t, err)

			require.Len(t, seen, len(items))
			for i, seq := range seen {
				assert.Equal(t, i, seq)
			}
			assert.Equal(t, 134, summary.Total)
			assert.Equal(t, 67, summary.Passed)
			assert.Equal(t, 67, summary.Failed)
		})
	}
}

func TestRun_SinkErrorStopsBatch(t *testing.T) {
	boom := errors.New("write failed")
	calls := 0
	sink := SinkFunc(func(res Result) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	items := sentences("the dog loves a cat", "the dog loves a cat", "the dog loves a cat")
	summary, err := newTestChecker(4).Run(context.Background(), items, sink)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, summary.Total)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	reported := 0
	sink := SinkFunc(func(res Result) error {
		mu.Lock()
		defer mu.Unlock()
		reported++
		if reported == 3 {
			cancel()
		}
		return nil
	})

	items := sentences(strings.Split(strings.Repeat("the dog loves a cat\n", 500), "\n")[:500]...)
	summary, err := newTestChecker(2).Run(ctx, items, sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, summary.Total, len(items))
	assert.GreaterOrEqual(t, summary.Total, 3)
}

func TestRun_CancelledReportsFinishedInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Result
	sink := SinkFunc(func(res Result) error {
		got = append(got, res)
		if len(got) == 1 {
			cancel()
		}
		return nil
	})

	items := sentences(strings.Split(strings.Repeat("the dog loves a cat\n", 200), "\n")[:200]...)
	summary, err := newTestChecker(4).Run(ctx, items, sink)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, len(got), summary.Total)
	assert.Less(t, summary.Total, len(items))
	for i, res := range got {
		assert.Equal(t, i, res.Seq)
		assert.NoError(t, res.Verdict.Err)
		assert.True(t, res.Verdict.Accepted)
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := sentences("# header", "the dog loves a cat", "the cat eats a rat")
	summary, err := newTestChecker(2).Run(ctx, items, SinkFunc(func(Result) error {
		t.Fatal("sink called after cancellation")
		return nil
	}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Comments)
}

func TestRun_Empty(t *testing.T) {
	summary, err := newTestChecker(3).Run(context.Background(), nil, SinkFunc(func(Result) error {
		t.Fatal("sink called for empty batch")
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "Checked 0 sentences: 0 passed, 0 failed.", summary.String())
}

func TestMultiSink(t *testing.T) {
	var order []string
	a := SinkFunc(func(Result) error { order = append(order, "a"); return nil })
	b := SinkFunc(func(Result) error { order = append(order, "b"); return errors.New("stop") })
	c := SinkFunc(func(Result) error { order = append(order, "c"); return nil })

	err := MultiSink(a, nil, b, c).Report(Result{})
	assert.EqualError(t, err, "stop")
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestChecker_Check(t *testing.T) {
	c := newTestChecker(1)

	v := c.Check("the fast dog chases a slow rat")
	assert.True(t, v.Accepted)
	assert.Equal(t, []string{"The sentence 'the fast dog chases a slow rat' follows the BNF grammar."}, v.Lines())

	v = c.Check("the dog loves")
	assert.False(t, v.Accepted)
	assert.Equal(t, "ARTICLE", v.Expected)
	assert.Equal(t, grammar.EndMarker, v.Found)
	assert.Contains(t, v.Tree, "SYNTAX ERROR")
	assert.NoError(t, v.Err)
}

func TestNewVerdict_Defect(t *testing.T) {
	v := NewVerdict("x", nil, errors.New("advance past end marker"))

	assert.False(t, v.Accepted)
	assert.Error(t, v.Err)
	assert.Equal(t, []string{
		"ERROR: advance past end marker",
		"FAIL: The sentence 'x' does not follow the BNF grammar.",
	}, v.Lines())
}

func TestReporter_ColorAlwaysKeepsText(t *testing.T) {
	var plain, styled bytes.Buffer
	items := sentences("the dog loves a cat", "dog")

	_, err := newTestChecker(1).Run(context.Background(), items, NewReporter(&plain, true, ColorNever))
	require.NoError(t, err)
	_, err = newTestChecker(1).Run(context.Background(), items, NewReporter(&styled, true, ColorAlways))
	require.NoError(t, err)

	assert.NotEqual(t, plain.String(), styled.String())
	assert.Equal(t, plain.String(), stripANSI(styled.String()))
}

// stripANSI removes SGR escape sequences
func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
