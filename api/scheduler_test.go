package api

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/smartspend/cashbook-engine/cashbook/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedulerEngine(t *testing.T) (*cashbook.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	eng := cashbook.Open(context.Background(), mem,
		cashbook.WithIDGenerator(&cashbook.SequenceGenerator{Prefix: "id"}),
		cashbook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() { _ = eng.Close(context.Background()) })
	return eng, mem
}

func TestCheckpointScheduler_StartStopImmediately(t *testing.T) {
	// GIVEN: A scheduler stopped right after it starts
	// WHEN: Repeating this many times
	// THEN: Neither call blocks or panics
	eng, _ := newSchedulerEngine(t)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < 500; i++ {
		cs := NewCheckpointScheduler(eng, time.Hour, quiet)
		cs.Start()
		cs.Stop()
	}
}

func TestCheckpointScheduler_RestartAndDoubleStop(t *testing.T) {
	eng, _ := newSchedulerEngine(t)
	cs := NewCheckpointScheduler(eng, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cs.Stop() // never started
	for i := 0; i < 3; i++ {
		cs.Start()
		cs.Start() // already running
		cs.Stop()
		cs.Stop()
	}
}

func TestCheckpointScheduler_TicksWriteState(t *testing.T) {
	// GIVEN: A short interval and a book in memory
	eng, mem := newSchedulerEngine(t)
	_, err := eng.Books.AddBook(cashbook.NewBook{Name: "Shop"})
	require.NoError(t, err)
	require.NoError(t, eng.Flush(context.Background()))
	saves := mem.Saves(cashbook.BooksKey)

	cs := NewCheckpointScheduler(eng, 5*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cs.Start()
	defer cs.Stop()

	// THEN: Checkpoints rewrite the snapshot without any new command
	require.Eventually(t, func() bool {
		return !cs.LastRun().At.IsZero() && mem.Saves(cashbook.BooksKey) > saves
	}, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, cs.LastRun().Err)
}

func TestCheckpointScheduler_DisabledDoesNothing(t *testing.T) {
	eng, _ := newSchedulerEngine(t)
	cs := NewCheckpointScheduler(eng, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cs.Start()
	cs.Stop()
	assert.True(t, cs.LastRun().At.IsZero())
}
