package cashbook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/smartspend/cashbook-engine/cashbook/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// errorSink collects errors handed to the engine's error handler.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) handle(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) all() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func openEngine(t *testing.T, st cashbook.BlobStore, opts ...cashbook.Option) *cashbook.Engine {
	t.Helper()
	base := []cashbook.Option{
		cashbook.WithIDGenerator(&cashbook.SequenceGenerator{Prefix: "id"}),
		cashbook.WithClock(cashbook.FixedClock(now)),
		cashbook.WithLocation(ist),
		cashbook.WithLogger(quiet),
	}
	eng := cashbook.Open(context.Background(), st, append(base, opts...)...)
	t.Cleanup(func() { _ = eng.Close(context.Background()) })
	return eng
}

// =============================================================================
// LOAD
// =============================================================================

func TestOpen_EmptyStoreStartsEmpty(t *testing.T) {
	sink := &errorSink{}
	eng := openEngine(t, store.NewMemory(), cashbook.WithErrorHandler(sink.handle))

	assert.Equal(t, 0, eng.Books.Len())
	assert.Equal(t, 0, eng.Ledger.Len())
	_, _, ok := eng.ActiveBalance()
	assert.False(t, ok)
	assert.Empty(t, sink.all())
}

func TestOpen_LoadFailureFallsBackToDefaults(t *testing.T) {
	mem := store.NewMemory()
	mem.FailLoads(errors.New("disk unplugged"))
	sink := &errorSink{}

	eng := openEngine(t, mem, cashbook.WithErrorHandler(sink.handle))

	assert.Equal(t, 0, eng.Books.Len())
	errs := sink.all()
	require.Len(t, errs, 1)
	assert.True(t, cashbook.IsPersistence(errs[0]))

	var perr *cashbook.PersistenceError
	require.ErrorAs(t, errs[0], &perr)
	assert.Equal(t, "load", perr.Op)

	// The engine still works
	_, err := eng.Books.AddBook(cashbook.NewBook{Name: "Shop"})
	assert.NoError(t, err)
}

func TestLoadState_OneBlobMissing(t *testing.T) {
	mem := store.NewMemory()
	blob, err := cashbook.EncodeBooks(cashbook.BooksState{
		Books:        []cashbook.Book{{ID: "b1", Name: "Shop", Color: cashbook.DefaultBookColor, CreatedAt: now}},
		ActiveBookID: "b1",
	})
	require.NoError(t, err)
	mem.Put(cashbook.BooksKey, blob)

	state, err := cashbook.LoadState(context.Background(), mem, quiet)
	require.NoError(t, err)
	require.Len(t, state.Books.Books, 1)
	assert.Equal(t, cashbook.BookID("b1"), state.Books.ActiveBookID)
	assert.Empty(t, state.Ledger.Transactions)
	assert.False(t, state.Ledger.Settings.MonthlyBudget.Valid)
}

// =============================================================================
// SAVE
// =============================================================================

func TestEngine_PersistsAcrossRestart(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	first := cashbook.Open(ctx, mem,
		cashbook.WithIDGenerator(&cashbook.SequenceGenerator{Prefix: "id"}),
		cashbook.WithClock(cashbook.FixedClock(now)),
		cashbook.WithLocation(ist),
		cashbook.WithLogger(quiet),
	)
	shop, err := first.Books.AddBook(cashbook.NewBook{Name: "Shop"})
	require.NoError(t, err)
	addTx(t, first.Ledger, shop.ID, cashbook.TxIn, "500", now)
	addTx(t, first.Ledger, shop.ID, cashbook.TxOut, "120", now)
	first.Ledger.SetSavingsGoal(dec("1000"))
	require.NoError(t, first.Close(ctx))

	second := openEngine(t, mem)

	book, bal, ok := second.ActiveBalance()
	require.True(t, ok)
	assert.Equal(t, "Shop", book.Name)
	assertDecimal(t, "380", bal.Balance)
	assert.True(t, second.Ledger.Settings().SavingsGoal.Valid)
}

func TestEngine_FlushWritesLatestSnapshot(t *testing.T) {
	mem := store.NewMemory()
	eng := openEngine(t, mem)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := eng.Books.AddBook(cashbook.NewBook{Name: "Book"})
		require.NoError(t, err)
	}
	require.NoError(t, eng.Flush(ctx))

	blob, err := mem.Load(ctx, cashbook.BooksKey)
	require.NoError(t, err)
	state, _ := cashbook.DecodeBooks(blob)
	assert.Len(t, state.Books, 20, "the last written snapshot is the newest")
	assert.GreaterOrEqual(t, mem.Saves(cashbook.BooksKey), 1)
}

func TestEngine_SaveFailureIsReportedNotRolledBack(t *testing.T) {
	mem := store.NewMemory()
	sink := &errorSink{}
	eng := openEngine(t, mem, cashbook.WithErrorHandler(sink.handle))
	ctx := context.Background()

	mem.FailSaves(errors.New("quota exceeded"))
	_, err := eng.Books.AddBook(cashbook.NewBook{Name: "Shop"})
	require.NoError(t, err, "the command itself succeeds")

	// The background writer may drain first, so Flush itself can return nil
	_ = eng.Flush(ctx)
	require.Eventually(t, func() bool { return len(sink.all()) > 0 }, testTimeout, testTick)
	assert.True(t, cashbook.IsPersistence(sink.all()[0]))

	assert.Equal(t, 1, eng.Books.Len(), "in-memory state is kept")
}

func TestEngine_SaveWritesBothSnapshots(t *testing.T) {
	mem := store.NewMemory()
	eng := openEngine(t, mem)
	ctx := context.Background()

	eng.Ledger.SetPrivateMode(true)
	require.NoError(t, eng.Save(ctx))

	blob, err := mem.Load(ctx, cashbook.TransactionsKey)
	require.NoError(t, err)
	ledger, _ := cashbook.DecodeLedger(blob)
	assert.True(t, ledger.Settings.PrivateMode)

	blob, err = mem.Load(ctx, cashbook.BooksKey)
	require.NoError(t, err)
	assert.NotNil(t, blob)
}

// gatedStore blocks the first books write after arm until release is closed.
type gatedStore struct {
	*store.Memory

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Memory: store.NewMemory()}
}

func (g *gatedStore) arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedStore) Save(ctx context.Context, key string, data []byte) error {
	g.mu.Lock()
	block := g.armed && key == cashbook.BooksKey
	if block {
		g.armed = false
	}
	entered, release := g.entered, g.release
	g.mu.Unlock()

	if block {
		close(entered)
		<-release
	}
	return g.Memory.Save(ctx, key, data)
}

func TestEngine_SaveIsOrderedWithQueuedSnapshots(t *testing.T) {
	// GIVEN: A full save stalled while writing the books snapshot {A}
	gated := newGatedStore()
	ctx := context.Background()
	eng := openEngine(t, gated)
	_, err := eng.Books.AddBook(cashbook.NewBook{Name: "A"})
	require.NoError(t, err)
	require.NoError(t, eng.Flush(ctx))

	gated.arm()
	saveDone := make(chan error, 1)
	go func() { saveDone <- eng.Save(ctx) }()
	<-gated.entered

	// WHEN: A newer book is added and flushed while the save is stalled
	_, err = eng.Books.AddBook(cashbook.NewBook{Name: "B"})
	require.NoError(t, err)
	flushDone := make(chan error, 1)
	go func() { flushDone <- eng.Flush(ctx) }()

	close(gated.release)
	require.NoError(t, <-saveDone)
	require.NoError(t, <-flushDone)
	require.NoError(t, eng.Close(ctx))

	// THEN: The store holds the newer snapshot after a restart
	reopened := openEngine(t, gated.Memory)
	require.Len(t, reopened.Books.Books(), 2)
	assert.Equal(t, "B", reopened.Books.Books()[0].Name)
}

func TestSaver_ExclusiveDrainsPendingFirst(t *testing.T) {
	mem := store.NewMemory()
	s := cashbook.NewSaver(mem, quiet, nil)
	ctx := context.Background()

	s.Submit(cashbook.BooksKey, []byte(`{"a":1}`))
	err := s.Exclusive(ctx, func(ctx context.Context) error {
		assert.Equal(t, 1, mem.Saves(cashbook.BooksKey), "pending blob written before the exclusive write")
		return mem.Save(ctx, cashbook.BooksKey, []byte(`{"a":2}`))
	})
	require.NoError(t, err)

	blob, _ := mem.Load(ctx, cashbook.BooksKey)
	assert.JSONEq(t, `{"a":2}`, string(blob))
}

func TestSaver_SubmitAfterCloseIsDropped(t *testing.T) {
	mem := store.NewMemory()
	s := cashbook.NewSaver(mem, quiet, nil)
	s.Start()
	require.NoError(t, s.Close(context.Background()))

	s.Submit(cashbook.BooksKey, []byte(`{}`))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, mem.Saves(cashbook.BooksKey))

	assert.NoError(t, s.Close(context.Background()), "close is idempotent")
}

func TestSaver_FlushWithoutStart(t *testing.T) {
	mem := store.NewMemory()
	s := cashbook.NewSaver(mem, quiet, nil)

	s.Submit(cashbook.BooksKey, []byte(`{"a":1}`))
	s.Submit(cashbook.BooksKey, []byte(`{"a":2}`))
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 1, mem.Saves(cashbook.BooksKey), "pending blobs coalesce")
	blob, _ := mem.Load(context.Background(), cashbook.BooksKey)
	assert.JSONEq(t, `{"a":2}`, string(blob))
}

// =============================================================================
// CROSS-STORE BEHAVIOR
// =============================================================================

func TestEngine_DeleteBookOrphansTransactions(t *testing.T) {
	eng := openEngine(t, store.NewMemory())

	shop, _ := eng.Books.AddBook(cashbook.NewBook{Name: "Shop"})
	addTx(t, eng.Ledger, shop.ID, cashbook.TxIn, "10", now)

	eng.Books.DeleteBook(shop.ID)

	assert.Equal(t, 1, eng.Ledger.Len(), "transactions are not cascaded")
	assertDecimal(t, "10", eng.Ledger.BookBalance(shop.ID).Balance)
}

func TestEngine_ResetAll(t *testing.T) {
	eng := openEngine(t, store.NewMemory())

	shop, _ := eng.Books.AddBook(cashbook.NewBook{Name: "Shop"})
	addTx(t, eng.Ledger, shop.ID, cashbook.TxIn, "10", now)
	eng.Ledger.SetGSTEnabled(true)

	eng.ResetAll()

	assert.Equal(t, 0, eng.Books.Len())
	assert.Equal(t, 0, eng.Ledger.Len())
	assert.True(t, eng.Ledger.Settings().GSTEnabled)
}
