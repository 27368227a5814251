package cashbook_test

import (
	"testing"

	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ADD BOOK
// =============================================================================

func TestRegistry_AddBook_StampsAndDefaults(t *testing.T) {
	r := newTestRegistry()

	book, err := r.AddBook(cashbook.NewBook{Name: "  Shop  ", Description: " Daily till "})
	require.NoError(t, err)

	assert.Equal(t, cashbook.BookID("book-000001"), book.ID)
	assert.Equal(t, "Shop", book.Name)
	assert.Equal(t, "Daily till", book.Description)
	assert.Equal(t, cashbook.DefaultBookColor, book.Color)
	assert.True(t, book.CreatedAt.Equal(now))
}

func TestRegistry_AddBook_RejectsBlankName(t *testing.T) {
	r := newTestRegistry()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := r.AddBook(cashbook.NewBook{Name: name})
		assert.ErrorIs(t, err, cashbook.ErrValidation, "name %q", name)

		var verr *cashbook.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	}
	assert.Equal(t, 0, r.Len(), "rejected commands have no effect")
	_, ok := r.ActiveBook()
	assert.False(t, ok)
}

func TestRegistry_BooksAreMostRecentFirst(t *testing.T) {
	r := newTestRegistry()

	a, _ := r.AddBook(cashbook.NewBook{Name: "A"})
	b, _ := r.AddBook(cashbook.NewBook{Name: "B"})
	c, _ := r.AddBook(cashbook.NewBook{Name: "C"})

	books := r.Books()
	require.Len(t, books, 3)
	assert.Equal(t, []cashbook.BookID{c.ID, b.ID, a.ID},
		[]cashbook.BookID{books[0].ID, books[1].ID, books[2].ID})
}

// =============================================================================
// ACTIVE POINTER
// =============================================================================

func TestRegistry_ActiveBookIsSticky(t *testing.T) {
	// GIVEN: Two books added in sequence
	// THEN: The first stays active
	r := newTestRegistry()

	b1, _ := r.AddBook(cashbook.NewBook{Name: "First"})
	active, ok := r.ActiveBook()
	require.True(t, ok)
	assert.Equal(t, b1.ID, active.ID)

	_, _ = r.AddBook(cashbook.NewBook{Name: "Second"})
	active, ok = r.ActiveBook()
	require.True(t, ok)
	assert.Equal(t, b1.ID, active.ID)
}

func TestRegistry_SetActiveBook_Dangling(t *testing.T) {
	r := newTestRegistry()
	_, _ = r.AddBook(cashbook.NewBook{Name: "Shop"})

	r.SetActiveBook("does-not-exist")

	assert.Equal(t, cashbook.BookID("does-not-exist"), r.ActiveBookID())
	_, ok := r.ActiveBook()
	assert.False(t, ok, "dangling pointer yields no active book")
}

func TestRegistry_SetActiveBook_Switches(t *testing.T) {
	r := newTestRegistry()
	_, _ = r.AddBook(cashbook.NewBook{Name: "One"})
	two, _ := r.AddBook(cashbook.NewBook{Name: "Two"})

	r.SetActiveBook(two.ID)

	active, ok := r.ActiveBook()
	require.True(t, ok)
	assert.Equal(t, "Two", active.Name)
}

// =============================================================================
// DELETE / CLEAR
// =============================================================================

func TestRegistry_DeleteSoleActiveBook(t *testing.T) {
	r := newTestRegistry()
	only, _ := r.AddBook(cashbook.NewBook{Name: "Only"})

	r.DeleteBook(only.ID)

	_, ok := r.ActiveBook()
	assert.False(t, ok)
	assert.Equal(t, cashbook.BookID(""), r.ActiveBookID())
	assert.Empty(t, r.Books())
}

func TestRegistry_DeleteActiveBook_ActivatesNextMostRecent(t *testing.T) {
	r := newTestRegistry()
	first, _ := r.AddBook(cashbook.NewBook{Name: "First"})
	_, _ = r.AddBook(cashbook.NewBook{Name: "Second"})
	third, _ := r.AddBook(cashbook.NewBook{Name: "Third"})

	// first is active; the most recent remaining is third
	r.DeleteBook(first.ID)

	active, ok := r.ActiveBook()
	require.True(t, ok)
	assert.Equal(t, third.ID, active.ID)
}

func TestRegistry_DeleteInactiveBook_KeepsPointer(t *testing.T) {
	r := newTestRegistry()
	first, _ := r.AddBook(cashbook.NewBook{Name: "First"})
	second, _ := r.AddBook(cashbook.NewBook{Name: "Second"})

	r.DeleteBook(second.ID)

	assert.Equal(t, first.ID, r.ActiveBookID())
	_, ok := r.Book(second.ID)
	assert.False(t, ok)
}

func TestRegistry_DeleteUnknownBook_NoOp(t *testing.T) {
	r := newTestRegistry()
	b, _ := r.AddBook(cashbook.NewBook{Name: "Shop"})

	r.DeleteBook("missing")

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, b.ID, r.ActiveBookID())
}

func TestRegistry_ClearAllBooks(t *testing.T) {
	r := newTestRegistry()
	_, _ = r.AddBook(cashbook.NewBook{Name: "A"})
	_, _ = r.AddBook(cashbook.NewBook{Name: "B"})

	r.ClearAllBooks()

	assert.Equal(t, 0, r.Len())
	_, ok := r.ActiveBook()
	assert.False(t, ok)

	// The next book becomes active again
	c, _ := r.AddBook(cashbook.NewBook{Name: "C"})
	assert.Equal(t, c.ID, r.ActiveBookID())
}

func TestRegistry_BooksReturnsCopy(t *testing.T) {
	r := newTestRegistry()
	_, _ = r.AddBook(cashbook.NewBook{Name: "Shop"})

	books := r.Books()
	books[0].Name = "Mutated"

	again := r.Books()
	assert.Equal(t, "Shop", again[0].Name)
}
