/*
store.go - Durable store interface

PURPOSE:
  The engine's only dependency on durable storage: an opaque key/value
  blob store with whole-blob replace semantics. No transactions, no
  partial updates.

IMPLEMENTATIONS:
  - cashbook/store/memory.go: In-memory for tests and ephemeral sessions
  - store/sqlite/sqlite.go:   SQLite-backed

SEE ALSO:
  - snapshot.go: What gets written under each key
  - persist.go:  When it gets written
*/
package cashbook

import "context"

// BlobStore persists opaque blobs by key.
type BlobStore interface {
	// Load returns the blob stored under key, or (nil, nil) if there is none.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, data []byte) error
}

// Storage keys. One snapshot per store.
const (
	BooksKey        = "@smartspend_books_v1"
	TransactionsKey = "@smartspend_transactions_v1"
)
