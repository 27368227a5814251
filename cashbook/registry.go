/*
registry.go - Book collection and the active-book pointer

PURPOSE:
  The Registry exclusively owns the set of cashbooks and which one is
  "active". New transactions and balance queries default to the active book.

ORDERING:
  Books are kept most-recent-first: AddBook prepends. Every listing and the
  active-pointer fallback on delete rely on that order.

ACTIVE POINTER:
  - Sticky: the first book added becomes active, later books do not steal it
  - Unchecked: SetActiveBook accepts any id; a dangling id yields no active book
  - Repaired on delete: deleting the active book activates the next most
    recent one, or clears the pointer when none remain

TRANSACTIONS:
  Deleting a book never touches transactions. Orphans stay in the ledger.

SEE ALSO:
  - ledger.go: The transaction side
  - engine.go: Wires change notifications to persistence
*/
package cashbook

import (
	"strings"
	"sync"
	"time"
)

// NewBook is the input to AddBook.
type NewBook struct {
	Name        string
	Description string
	Color       string
}

// BooksState is everything the registry persists.
type BooksState struct {
	Books        []Book
	ActiveBookID BookID // empty when no book is active
}

type Registry struct {
	mu       sync.RWMutex
	books    []Book
	activeID BookID

	ids      IDGenerator
	now      Clock
	onChange func(BooksState)
}

// NewRegistry creates an empty registry. Nil arguments select UUIDv7 ids
// and the wall clock.
func NewRegistry(ids IDGenerator, now Clock) *Registry {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{ids: ids, now: now}
}

// =============================================================================
// COMMANDS
// =============================================================================

// AddBook creates a book and prepends it. The name must not be blank.
// If no book is active, the new one becomes active.
func (r *Registry) AddBook(in NewBook) (Book, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Book{}, invalid("name", "must not be empty")
	}
	color := in.Color
	if color == "" {
		color = DefaultBookColor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book := Book{
		ID:          BookID(r.ids.NewID()),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       color,
		CreatedAt:   r.now(),
	}
	r.books = append([]Book{book}, r.books...)
	if r.activeID == "" {
		r.activeID = book.ID
	}
	r.changedLocked()
	return book, nil
}

// SetActiveBook points the active pointer at id without checking it exists.
func (r *Registry) SetActiveBook(id BookID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = id
	r.changedLocked()
}

// DeleteBook removes the book. Its transactions are left alone.
func (r *Registry) DeleteBook(id BookID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.books[:0:0]
	for _, b := range r.books {
		if b.ID != id {
			remaining = append(remaining, b)
		}
	}
	r.books = remaining

	if r.activeID == id {
		r.activeID = ""
		if len(remaining) > 0 {
			r.activeID = remaining[0].ID
		}
	}
	r.changedLocked()
}

// ClearAllBooks empties the collection and clears the active pointer.
func (r *Registry) ClearAllBooks() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = nil
	r.activeID = ""
	r.changedLocked()
}

// =============================================================================
// QUERIES
// =============================================================================

// ActiveBook returns the book under the active pointer. False when the
// pointer is unset or dangling.
func (r *Registry) ActiveBook() (Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.activeID == "" {
		return Book{}, false
	}
	return r.findLocked(r.activeID)
}

// ActiveBookID returns the raw pointer, which may be dangling.
func (r *Registry) ActiveBookID() BookID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

func (r *Registry) Book(id BookID) (Book, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(id)
}

// Books lists books most-recent-first.
func (r *Registry) Books() []Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Book(nil), r.books...)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.books)
}

// State returns a copy of the persisted state.
func (r *Registry) State() BooksState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stateLocked()
}

// =============================================================================
// INTERNALS
// =============================================================================

func (r *Registry) findLocked(id BookID) (Book, bool) {
	for _, b := range r.books {
		if b.ID == id {
			return b, true
		}
	}
	return Book{}, false
}

func (r *Registry) stateLocked() BooksState {
	return BooksState{
		Books:        append([]Book(nil), r.books...),
		ActiveBookID: r.activeID,
	}
}

// changedLocked hands a snapshot to the change hook while the write lock is
// held, so hooks observe states in mutation order.
func (r *Registry) changedLocked() {
	if r.onChange != nil {
		r.onChange(r.stateLocked())
	}
}

// restore replaces state wholesale without notifying.
func (r *Registry) restore(s BooksState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = append([]Book(nil), s.Books...)
	r.activeID = s.ActiveBookID
}
