package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/source"
	chkerr "github.com/msto63/chomsky/pkg/core/error"
	chklog "github.com/msto63/chomsky/pkg/core/log"
	"github.com/msto63/chomsky/pkg/core/logging"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "nested", "chomsky.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStore_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	run, err := st.CreateRun(ctx, "sentences.txt")
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)

	require.NoError(t, st.SaveResult(ctx, &Result{RunID: run.ID, Seq: 1, Line: 3,
		Sentence: "dog loves a cat", Expected: "ARTICLE", Found: "dog", Tree: "digraph ParseTree {\n}\n"}))
	require.NoError(t, st.SaveResult(ctx, &Result{RunID: run.ID, Seq: 0, Line: 1,
		Sentence: "the dog loves a cat", Accepted: true}))
	require.NoError(t, st.FinishRun(ctx, run.ID, 2, 1, 1))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "sentences.txt", got.Source)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Passed)
	assert.Equal(t, 1, got.Failed)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))

	results, err := st.ListResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "the dog loves a cat", results[0].Sentence)
	assert.True(t, results[0].Accepted)
	assert.Empty(t, results[0].Expected)
	assert.Equal(t, "ARTICLE", results[1].Expected)
	assert.Equal(t, "dog", results[1].Found)
	assert.Equal(t, 3, results[1].Line)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.GetRun(ctx, "missing")
	assert.True(t, chkerr.HasCode(err, chkerr.CodeNotFound))

	_, err = st.ListResults(ctx, "missing")
	assert.True(t, chkerr.HasCode(err, chkerr.CodeNotFound))

	err = st.FinishRun(ctx, "missing", 0, 0, 0)
	assert.True(t, chkerr.HasCode(err, chkerr.CodeNotFound))
}

func TestStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx, "-")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Nil(t, runs[0].FinishedAt)

	all, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_StatsAndPrune(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	run, err := st.CreateRun(ctx, "-")
	require.NoError(t, err)
	require.NoError(t, st.SaveResult(ctx, &Result{RunID: run.ID, Sentence: "the dog loves a cat", Accepted: true}))
	require.NoError(t, st.Ping(ctx))

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Runs: 1, Results: 1, Accepted: 1}, stats)

	n, err := st.Prune(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = st.Prune(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err = st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats, "results are removed with their run")
}

func TestRunSink(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	run, err := st.CreateRun(ctx, "-")
	require.NoError(t, err)

	items := []source.Item{
		{Line: 1, Kind: source.KindComment, Text: " header"},
		{Line: 2, Kind: source.KindSentence, Text: "the dog loves a cat"},
		{Line: 4, Kind: source.KindSentence, Text: "the dog loves"},
	}
	c := checker.New(checker.Options{
		Parser: grammar.New(grammar.Options{Logger: chklog.Discard()}),
		Logger: logging.Wrap(chklog.Discard()),
	})

	sink := NewRunSink(ctx, st, run)
	summary, err := c.Run(ctx, items, sink)
	require.NoError(t, err)
	require.NoError(t, sink.Finish(summary))

	results, err := st.ListResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Seq)
	assert.True(t, results[0].Accepted)
	assert.Equal(t, 4, results[1].Line)
	assert.Equal(t, grammar.EndMarker, results[1].Found)
	assert.Contains(t, results[1].Tree, "SYNTAX ERROR")

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Failed)
}
