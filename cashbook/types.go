/*
Package cashbook provides the ledger computation and aggregation engine.

PURPOSE:
  Maintains named cashbooks, records dated cash-in/cash-out transactions
  against them, and derives balances, GST splits, and time-bucketed
  aggregates on demand. Presentation, report encoding, and the durable
  store are collaborators; this package only computes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Book: A named partition of transactions
  - Transaction: A single dated cash movement (in or out)
  - Settings: Process-wide feature flags and goals
  - BookID / TransactionID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Books and transactions are never edited, only deleted
  2. Precision: Uses decimal.Decimal so balances never drift
  3. Weak references: Transaction.BookID is a lookup key, not ownership.
     A transaction outlives the book it points at and simply stops
     appearing in book-scoped views.

SEE ALSO:
  - registry.go: Book collection and the active pointer
  - ledger.go: Transaction collection, balances, settings
  - aggregate.go: Series and filtered views
*/
package cashbook

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BookID string
type TransactionID string

// =============================================================================
// BOOK - A named ledger partition
// =============================================================================

// DefaultBookColor is used when a book is created without a color tag.
const DefaultBookColor = "#2563EB"

type Book struct {
	ID          BookID
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
}

// =============================================================================
// TRANSACTION - A single cash movement
// =============================================================================

type TxType string

const (
	TxIn  TxType = "in"  // Cash received
	TxOut TxType = "out" // Cash spent
)

func (t TxType) Valid() bool { return t == TxIn || t == TxOut }

// DefaultCategory is the category recorded when the caller leaves it blank.
func (t TxType) DefaultCategory() string {
	if t == TxIn {
		return "Cash-in"
	}
	return "Cash-out"
}

type Transaction struct {
	ID            TransactionID
	BookID        BookID
	Type          TxType
	Amount        decimal.Decimal
	Date          time.Time
	CreatedAt     time.Time
	Category      string
	Note          string
	PaymentMethod string

	// GST breakdown. All zero unless IsGSTApplied.
	IsGSTApplied bool
	GSTRate      decimal.Decimal
	CGST         decimal.Decimal
	SGST         decimal.Decimal
	IGST         decimal.Decimal
}

// TotalGST is the tax extracted from Amount, zero when GST was not applied.
func (t Transaction) TotalGST() decimal.Decimal {
	if !t.IsGSTApplied {
		return decimal.Zero
	}
	return t.CGST.Add(t.SGST).Add(t.IGST)
}

// signed returns +Amount for cash-in and -Amount for cash-out.
func (t Transaction) signed() decimal.Decimal {
	switch t.Type {
	case TxIn:
		return t.Amount
	case TxOut:
		return t.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// =============================================================================
// SETTINGS - Process-wide flags, persisted with transactions
// =============================================================================

type Settings struct {
	GSTEnabled     bool
	RoundUpEnabled bool
	PrivateMode    bool // Display-only, never alters stored data

	// Unset when !Valid. Never holds a non-positive value.
	MonthlyBudget decimal.NullDecimal
	SavingsGoal   decimal.NullDecimal
}

// positiveOrNull treats zero and negative values as "unset".
func positiveOrNull(v decimal.Decimal) decimal.NullDecimal {
	if !v.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}

// =============================================================================
// BALANCE - Derived totals for one book
// =============================================================================

type Balance struct {
	InTotal  decimal.Decimal
	OutTotal decimal.Decimal
	Balance  decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Shares returns the in/out percentages of total activity (|in| + |out|).
// Both are zero when the book has no activity.
func (b Balance) Shares() (inPct, outPct decimal.Decimal) {
	total := b.InTotal.Abs().Add(b.OutTotal.Abs())
	if total.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	inPct = b.InTotal.Abs().Mul(hundred).Div(total)
	outPct = b.OutTotal.Abs().Mul(hundred).Div(total)
	return inPct, outPct
}

// Summary is the aggregate block of a summary export.
type Summary struct {
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	Balance  decimal.Decimal
	TotalGST decimal.Decimal
}

// Summarize totals an already filtered sequence of transactions.
func Summarize(txs []Transaction) Summary {
	s := Summary{TotalIn: decimal.Zero, TotalOut: decimal.Zero, TotalGST: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case TxIn:
			s.TotalIn = s.TotalIn.Add(tx.Amount)
		case TxOut:
			s.TotalOut = s.TotalOut.Add(tx.Amount)
		}
		s.TotalGST = s.TotalGST.Add(tx.TotalGST())
	}
	s.Balance = s.TotalIn.Sub(s.TotalOut)
	return s
}
