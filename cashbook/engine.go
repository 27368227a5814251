/*
engine.go - The constructed ledger engine

PURPOSE:
  Wires the Registry, the Ledger and the persistence adapter together.
  An Engine is built once at process start and handed to every consumer;
  there are no package-level singletons.

STARTUP:
  Open awaits LoadState before returning, so the first query already sees
  persisted state. A load failure is reported through the error handler
  and the engine starts from defaults for the unreadable snapshot.

MUTATIONS:
  Every Registry or Ledger command hands its new state to a hook that
  encodes the full snapshot and submits it to the Saver. Encoding happens
  under the store's write lock, so snapshots are submitted in mutation order.

USAGE:
  eng := cashbook.Open(ctx, store, cashbook.WithLogger(logger))
  defer eng.Close(ctx)

  book, _ := eng.Books.AddBook(cashbook.NewBook{Name: "Shop"})
  eng.Ledger.AddTransaction(cashbook.NewTransaction{BookID: book.ID, ...})
  bal := eng.Ledger.BookBalance(book.ID)
*/
package cashbook

import (
	"context"
	"log/slog"
	"time"
)

type Engine struct {
	Books  *Registry
	Ledger *Ledger

	store  BlobStore
	saver  *Saver
	logger *slog.Logger
}

// =============================================================================
// OPTIONS
// =============================================================================

type engineConfig struct {
	ids     IDGenerator
	clock   Clock
	loc     *time.Location
	logger  *slog.Logger
	onError ErrorHandler
}

type Option func(*engineConfig)

func WithIDGenerator(g IDGenerator) Option { return func(c *engineConfig) { c.ids = g } }
func WithClock(clock Clock) Option         { return func(c *engineConfig) { c.clock = clock } }
func WithLocation(loc *time.Location) Option {
	return func(c *engineConfig) { c.loc = loc }
}
func WithLogger(l *slog.Logger) Option { return func(c *engineConfig) { c.logger = l } }

// WithErrorHandler receives load and save failures in addition to the log.
func WithErrorHandler(h ErrorHandler) Option { return func(c *engineConfig) { c.onError = h } }

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Open loads persisted state from store and returns a running engine.
func Open(ctx context.Context, store BlobStore, opts ...Option) *Engine {
	cfg := engineConfig{
		ids:    UUIDGenerator{},
		clock:  time.Now,
		loc:    time.Local,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		Books:  NewRegistry(cfg.ids, cfg.clock),
		Ledger: NewLedger(cfg.ids, cfg.clock, cfg.loc),
		store:  store,
		saver:  NewSaver(store, cfg.logger, cfg.onError),
		logger: cfg.logger,
	}

	state, err := LoadState(ctx, store, cfg.logger)
	if err != nil && cfg.onError != nil {
		cfg.onError(err)
	}
	e.Books.restore(state.Books)
	e.Ledger.restore(state.Ledger)
	cfg.logger.Info("cashbook state loaded",
		"books", e.Books.Len(),
		"transactions", e.Ledger.Len(),
	)

	e.Books.onChange = e.booksChanged
	e.Ledger.onChange = e.ledgerChanged
	e.saver.Start()
	return e
}

func (e *Engine) booksChanged(s BooksState) {
	data, err := EncodeBooks(s)
	if err != nil {
		e.logger.Error("encode books snapshot", "error", err)
		return
	}
	e.saver.Submit(BooksKey, data)
}

func (e *Engine) ledgerChanged(s LedgerState) {
	data, err := EncodeLedger(s)
	if err != nil {
		e.logger.Error("encode transactions snapshot", "error", err)
		return
	}
	e.saver.Submit(TransactionsKey, data)
}

// =============================================================================
// ENGINE-WIDE COMMANDS
// =============================================================================

// ResetAll deletes every book and every transaction. Settings are kept.
func (e *Engine) ResetAll() {
	e.Books.ClearAllBooks()
	e.Ledger.ClearAllTransactions()
}

// ActiveBalance is the balance of the active book, false when none is active.
func (e *Engine) ActiveBalance() (Book, Balance, bool) {
	book, ok := e.Books.ActiveBook()
	if !ok {
		return Book{}, Balance{}, false
	}
	return book, e.Ledger.BookBalance(book.ID), true
}

// State snapshots both stores.
func (e *Engine) State() State {
	return State{Books: e.Books.State(), Ledger: e.Ledger.State()}
}

// Save writes the full current state synchronously. It is ordered with the
// background writer, so a queued snapshot never lands before an older one.
func (e *Engine) Save(ctx context.Context) error {
	return e.saver.Exclusive(ctx, func(ctx context.Context) error {
		return SaveState(ctx, e.store, e.State())
	})
}

// Flush waits for queued snapshots to be written.
func (e *Engine) Flush(ctx context.Context) error {
	return e.saver.Flush(ctx)
}

// Close drains queued snapshots and stops the background writer.
func (e *Engine) Close(ctx context.Context) error {
	return e.saver.Close(ctx)
}
