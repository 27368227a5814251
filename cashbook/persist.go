/*
persist.go - Persistence adapter between the engine and a BlobStore

PURPOSE:
  Loads both snapshots at startup and mirrors every mutation back to the
  store. The in-memory state is the source of truth during a session; the
  store is a best-effort durability mirror.

LOAD:
  LoadState reads the two blobs concurrently. A missing blob yields the
  default empty state. A store failure on one blob yields defaults for that
  blob only and is returned as a *PersistenceError. A malformed blob is
  decoded field by field (see snapshot.go) and never fails the load.

SAVE:
  The Saver is fire-and-forget. Submit records the newest encoded snapshot
  per key and wakes a single background writer; it never blocks on the
  store. Because every snapshot is a full copy, only the newest pending
  blob per key needs writing. Writes for a key happen in submission order.
  Failures are logged and handed to the error handler, never rolled back.

LIFECYCLE:
  saver := NewSaver(store, logger, onError)
  saver.Start()
  saver.Submit(BooksKey, blob)
  ...
  saver.Close(ctx)   // drains pending writes

SEE ALSO:
  - snapshot.go: Encoding of each blob
  - engine.go:   Who calls Submit
*/
package cashbook

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrorHandler receives asynchronous persistence failures.
type ErrorHandler func(error)

// State is the full persisted state of both stores.
type State struct {
	Books  BooksState
	Ledger LedgerState
}

// =============================================================================
// LOAD / SAVE - Synchronous, both snapshots
// =============================================================================

// LoadState reads both snapshots. It always returns a usable state; the
// error, if any, joins one *PersistenceError per blob that could not be read.
func LoadState(ctx context.Context, store BlobStore, logger *slog.Logger) (State, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var state State
	var booksErr, ledgerErr error
	// Each goroutine owns its half of state and its own error; neither
	// returns an error to the group, so one failure never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		data, err := store.Load(ctx, BooksKey)
		if err != nil {
			booksErr = &PersistenceError{Op: "load", Key: BooksKey, Err: err}
			return nil
		}
		books, warnings := DecodeBooks(data)
		logWarnings(logger, BooksKey, warnings)
		state.Books = books
		return nil
	})
	g.Go(func() error {
		data, err := store.Load(ctx, TransactionsKey)
		if err != nil {
			ledgerErr = &PersistenceError{Op: "load", Key: TransactionsKey, Err: err}
			return nil
		}
		ledger, warnings := DecodeLedger(data)
		logWarnings(logger, TransactionsKey, warnings)
		state.Ledger = ledger
		return nil
	})
	_ = g.Wait()

	err := errors.Join(booksErr, ledgerErr)
	if err != nil {
		logger.Warn("falling back to empty state", "error", err)
	}
	return state, err
}

// SaveState writes both snapshots synchronously.
func SaveState(ctx context.Context, store BlobStore, state State) error {
	books, err := EncodeBooks(state.Books)
	if err != nil {
		return &PersistenceError{Op: "save", Key: BooksKey, Err: err}
	}
	ledger, err := EncodeLedger(state.Ledger)
	if err != nil {
		return &PersistenceError{Op: "save", Key: TransactionsKey, Err: err}
	}

	var errs []error
	if err := store.Save(ctx, BooksKey, books); err != nil {
		errs = append(errs, &PersistenceError{Op: "save", Key: BooksKey, Err: err})
	}
	if err := store.Save(ctx, TransactionsKey, ledger); err != nil {
		errs = append(errs, &PersistenceError{Op: "save", Key: TransactionsKey, Err: err})
	}
	return errors.Join(errs...)
}

func logWarnings(logger *slog.Logger, key string, warnings []error) {
	for _, w := range warnings {
		logger.Warn("snapshot field defaulted", "key", key, "error", w)
	}
}

// =============================================================================
// SAVER - Asynchronous, coalescing, ordered per key
// =============================================================================

type Saver struct {
	store   BlobStore
	logger  *slog.Logger
	onError ErrorHandler

	mu      sync.Mutex
	pending map[string][]byte

	// writeMu serializes drains. Taking the pending batch inside it means a
	// later drain always writes newer blobs than an earlier one.
	writeMu sync.Mutex

	wake    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
	closed  bool
}

// NewSaver creates a saver. Call Start before Submit takes effect in the
// background; Flush works either way.
func NewSaver(store BlobStore, logger *slog.Logger, onError ErrorHandler) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{
		store:   store,
		logger:  logger,
		onError: onError,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Start launches the background writer.
func (s *Saver) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.run()
}

// Submit queues data as the newest snapshot for key. Never blocks.
func (s *Saver) Submit(key string, data []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("save after close dropped", "key", key)
		return
	}
	s.pending[key] = data
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush writes everything pending now, in the caller's goroutine.
func (s *Saver) Flush(ctx context.Context) error {
	return s.drain(ctx)
}

// Close stops the background writer and drains what is left.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	if started {
		close(s.stop)
		s.wg.Wait()
	}
	return s.drain(ctx)
}

func (s *Saver) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.wake:
			_ = s.drain(context.Background())
		case <-s.stop:
			return
		}
	}
}

// Exclusive drains what is pending, then runs write before any later drain
// can start. Everything the saver writes afterwards is at least as new as
// what write stored.
func (s *Saver) Exclusive(ctx context.Context, write func(context.Context) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	drainErr := s.drainLocked(ctx)
	return errors.Join(drainErr, write(ctx))
}

func (s *Saver) drain(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.drainLocked(ctx)
}

func (s *Saver) drainLocked(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = make(map[string][]byte)
	s.mu.Unlock()

	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		if err := s.store.Save(ctx, key, batch[key]); err != nil {
			perr := &PersistenceError{Op: "save", Key: key, Err: err}
			s.logger.Warn("snapshot not saved", "key", key, "error", err)
			if s.onError != nil {
				s.onError(perr)
			}
			errs = append(errs, perr)
			continue
		}
		s.logger.Debug("snapshot saved", "key", key, "bytes", len(batch[key]))
	}
	return errors.Join(errs...)
}
