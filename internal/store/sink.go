package store

import (
	"context"

	"github.com/msto63/chomsky/internal/checker"
)

// RunSink records checker results of one run. Comment lines are skipped.
type RunSink struct {
	ctx   context.Context
	store Store
	run   *Run
}

// NewRunSink creates a sink writing into run
func NewRunSink(ctx context.Context, store Store, run *Run) *RunSink {
	return &RunSink{ctx: ctx, store: store, run: run}
}

// Report implements checker.Sink
func (s *RunSink) Report(res checker.Result) error {
	if res.IsComment() {
		return nil
	}

	v := res.Verdict
	return s.store.SaveResult(s.ctx, &Result{
		RunID:    s.run.ID,
		Seq:      res.Seq,
		Line:     res.Item.Line,
		Sentence: v.Sentence,
		Accepted: v.Accepted,
		Expected: v.Expected,
		Found:    v.Found,
		Tree:     v.Tree,
	})
}

// Finish stores the summary counts of the run
func (s *RunSink) Finish(summary checker.Summary) error {
	return s.store.FinishRun(s.ctx, s.run.ID, summary.Total, summary.Passed, summary.Failed)
}

// RunID returns the id of the recorded run
func (s *RunSink) RunID() string {
	return s.run.ID
}
