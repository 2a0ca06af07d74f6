// Package checker drives batches of input lines through the grammar parser
// and reports verdicts in input order.
package checker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/source"
	"github.com/msto63/chomsky/pkg/core/logging"
)

// Result is the outcome for one input item
type Result struct {
	Seq  int // 0-based position in the batch
	Item source.Item
	// Verdict is empty for comment items
	Verdict Verdict
}

// IsComment reports whether the result echoes a comment line
func (r Result) IsComment() bool {
	return r.Item.Kind == source.KindComment
}

// Sink consumes results in input order
type Sink interface {
	Report(res Result) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(res Result) error

// Report calls f
func (f SinkFunc) Report(res Result) error { return f(res) }

// MultiSink reports to every sink in order, stopping at the first error
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(res Result) error {
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Report(res); err != nil {
				return err
			}
		}
		return nil
	})
}

// Summary counts the checked sentences of a batch
type Summary struct {
	Total    int
	Passed   int
	Failed   int
	Comments int
	Duration time.Duration
}

// String returns the summary line printed after a batch
func (s Summary) String() string {
	return fmt.Sprintf("Checked %d sentences: %d passed, %d failed.", s.Total, s.Passed, s.Failed)
}

func (s *Summary) add(res Result) {
	if res.IsComment() {
		s.Comments++
		return
	}
	s.Total++
	if res.Verdict.Accepted {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Options configures a Checker
type Options struct {
	Parser  *grammar.Parser // defaults to a parser over the built-in lexicon
	Workers int             // defaults to 1
	Logger  *logging.Logger
}

// Checker runs batches. It may be reused for several batches.
type Checker struct {
	parser  *grammar.Parser
	workers int
	logger  *logging.Logger
}

// New creates a checker
func New(opts Options) *Checker {
	if opts.Parser == nil {
		opts.Parser = grammar.New(grammar.Options{})
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("checker")
	}
	return &Checker{parser: opts.Parser, workers: opts.Workers, logger: opts.Logger}
}

// Parser returns the parser used for sentences
func (c *Checker) Parser() *grammar.Parser {
	return c.parser
}

// Run checks items with the configured number of workers and hands the
// results to sink strictly in input order. A rejected sentence never stops
// the batch; a sink error or a cancelled context does. On cancellation the
// sentences already in flight are finished and reported first, and the run
// stops at the first sentence a worker picked up after the cancellation.
func (c *Checker) Run(ctx context.Context, items []source.Item, sink Sink) (Summary, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)

	slots := make([]chan Result, len(items))
	for i := range slots {
		slots[i] = make(chan Result, 1)
	}

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := range items {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] <- c.check(ctx, i, items[i])
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	var summary Summary
	for i := range items {
		res, ok := next(slots[i], done)
		if !ok || isCancellation(res.Verdict.Err) {
			summary.Duration = time.Since(start)
			return summary, c.cancelled(ctx, summary)
		}

		if res.Verdict.Err != nil {
			c.logger.Error("Sentence check failed", "line", res.Item.Line, "error", res.Verdict.Err)
		}
		summary.add(res)

		if err := sink.Report(res); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	c.logger.Info("Batch finished",
		"total", summary.Total,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"workers", c.workers,
		"duration", summary.Duration,
	)
	return summary, nil
}

// Check evaluates a single sentence
func (c *Checker) Check(sentence string) Verdict {
	return Evaluate(c.parser, sentence)
}

func (c *Checker) check(ctx context.Context, seq int, item source.Item) Result {
	res := Result{Seq: seq, Item: item}
	if item.Kind == source.KindComment {
		res.Verdict.Err = ctx.Err()
		return res
	}

	tree, err := c.parser.ParseContext(ctx, item.Text)
	res.Verdict = NewVerdict(item.Text, tree, err)
	return res
}

func (c *Checker) cancelled(ctx context.Context, summary Summary) error {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	c.logger.Warn("Batch cancelled", "checked", summary.Total, "error", err)
	return err
}

// next waits for the result in slot. It reports false once all workers
// have stopped without filling the slot.
func next(slot chan Result, done <-chan struct{}) (Result, bool) {
	select {
	case res := <-slot:
		return res, true
	case <-done:
		select {
		case res := <-slot:
			return res, true
		default:
			return Result{}, false
		}
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
