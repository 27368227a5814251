/*
ledger.go - Transaction collection, balances and settings

PURPOSE:
  The Ledger exclusively owns every transaction and the process-wide
  Settings. Balances are never stored: they are recomputed from the
  transaction collection on each call.

CRITICAL INVARIANTS:
  1. IMMUTABLE: A recorded transaction is never edited, only deleted
  2. NON-NEGATIVE: Amount >= 0, GST rate >= 0
  3. GST ZEROED: If IsGSTApplied is false, rate and components are all zero
  4. LOOSE COUPLING: BookID is not validated. A transaction pointing at a
     deleted or unknown book is legal and just drops out of book views.

ORDERING:
  Transactions are kept most-recently-recorded first (AddTransaction
  prepends). Date order is imposed by the query paths in aggregate.go.

SEE ALSO:
  - tax.go: GST decomposition used by AddTransaction
  - aggregate.go: Series and filtered views over this collection
*/
package cashbook

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// GSTRequest asks AddTransaction to extract GST at Rate percent.
type GSTRequest struct {
	Rate decimal.Decimal
}

// NewTransaction is the input to AddTransaction.
type NewTransaction struct {
	BookID        BookID
	Type          TxType
	Amount        decimal.Decimal
	Date          time.Time // zero means "now"
	Category      string
	Note          string
	PaymentMethod string
	GST           *GSTRequest // nil: no GST
}

// LedgerState is everything the ledger persists.
type LedgerState struct {
	Transactions []Transaction
	Settings     Settings
}

type Ledger struct {
	mu       sync.RWMutex
	txs      []Transaction
	settings Settings

	ids      IDGenerator
	now      Clock
	loc      *time.Location
	onChange func(LedgerState)
}

// NewLedger creates an empty ledger. Nil arguments select UUIDv7 ids, the
// wall clock and time.Local for calendar-day bucketing.
func NewLedger(ids IDGenerator, now Clock, loc *time.Location) *Ledger {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{ids: ids, now: now, loc: loc}
}

// Location is the time zone used for calendar-day boundaries.
func (l *Ledger) Location() *time.Location { return l.loc }

// =============================================================================
// TRANSACTION COMMANDS
// =============================================================================

// AddTransaction records a cash movement and prepends it to the collection.
func (l *Ledger) AddTransaction(in NewTransaction) (Transaction, error) {
	if !in.Type.Valid() {
		return Transaction{}, invalid("type", `must be "in" or "out"`)
	}
	if in.Amount.IsNegative() {
		return Transaction{}, invalid("amount", "must not be negative")
	}

	tx := Transaction{
		BookID:        in.BookID,
		Type:          in.Type,
		Amount:        in.Amount,
		Date:          in.Date,
		Category:      strings.TrimSpace(in.Category),
		Note:          strings.TrimSpace(in.Note),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		GSTRate:       decimal.Zero,
		CGST:          decimal.Zero,
		SGST:          decimal.Zero,
		IGST:          decimal.Zero,
	}
	if tx.Category == "" {
		tx.Category = in.Type.DefaultCategory()
	}

	// A zero rate records as "not applied" so the zeroed-GST invariant holds.
	if in.GST != nil {
		split, err := Split(in.Amount, in.GST.Rate)
		if err != nil {
			return Transaction{}, err
		}
		if in.GST.Rate.IsPositive() {
			tx.IsGSTApplied = true
			tx.GSTRate = in.GST.Rate
			tx.CGST, tx.SGST, tx.IGST = split.CGST, split.SGST, split.IGST
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx.ID = TransactionID(l.ids.NewID())
	tx.CreatedAt = l.now()
	if tx.Date.IsZero() {
		tx.Date = tx.CreatedAt
	}
	l.txs = append([]Transaction{tx}, l.txs...)
	l.changedLocked()
	return tx, nil
}

// DeleteTransaction removes the transaction. No-op if absent.
func (l *Ledger) DeleteTransaction(id TransactionID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := l.txs[:0:0]
	for _, tx := range l.txs {
		if tx.ID != id {
			remaining = append(remaining, tx)
		}
	}
	l.txs = remaining
	l.changedLocked()
}

// ClearAllTransactions empties the collection. Settings are kept.
func (l *Ledger) ClearAllTransactions() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = nil
	l.changedLocked()
}

// =============================================================================
// TRANSACTION QUERIES
// =============================================================================

func (l *Ledger) Transaction(id TransactionID) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, tx := range l.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return Transaction{}, false
}

// Transactions returns every transaction, most recently recorded first.
func (l *Ledger) Transactions() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Transaction(nil), l.txs...)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// BookBalance sums cash-in and cash-out for bookID. Recomputed on each call.
func (l *Ledger) BookBalance(bookID BookID) Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b := Balance{InTotal: decimal.Zero, OutTotal: decimal.Zero}
	for _, tx := range l.txs {
		if tx.BookID != bookID {
			continue
		}
		switch tx.Type {
		case TxIn:
			b.InTotal = b.InTotal.Add(tx.Amount)
		case TxOut:
			b.OutTotal = b.OutTotal.Add(tx.Amount)
		}
	}
	b.Balance = b.InTotal.Sub(b.OutTotal)
	return b
}

// =============================================================================
// SETTINGS
// =============================================================================

func (l *Ledger) Settings() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

func (l *Ledger) SetGSTEnabled(v bool) {
	l.updateSettings(func(s *Settings) { s.GSTEnabled = v })
}

func (l *Ledger) SetRoundUpEnabled(v bool) {
	l.updateSettings(func(s *Settings) { s.RoundUpEnabled = v })
}

func (l *Ledger) SetPrivateMode(v bool) {
	l.updateSettings(func(s *Settings) { s.PrivateMode = v })
}

// SetMonthlyBudget stores v, or unsets the budget when v <= 0.
func (l *Ledger) SetMonthlyBudget(v decimal.Decimal) {
	l.updateSettings(func(s *Settings) { s.MonthlyBudget = positiveOrNull(v) })
}

// SetSavingsGoal stores v, or unsets the goal when v <= 0.
func (l *Ledger) SetSavingsGoal(v decimal.Decimal) {
	l.updateSettings(func(s *Settings) { s.SavingsGoal = positiveOrNull(v) })
}

func (l *Ledger) updateSettings(fn func(*Settings)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.settings)
	l.changedLocked()
}

// =============================================================================
// INTERNALS
// =============================================================================

func (l *Ledger) State() LedgerState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stateLocked()
}

func (l *Ledger) stateLocked() LedgerState {
	return LedgerState{
		Transactions: append([]Transaction(nil), l.txs...),
		Settings:     l.settings,
	}
}

func (l *Ledger) changedLocked() {
	if l.onChange != nil {
		l.onChange(l.stateLocked())
	}
}

func (l *Ledger) restore(s LedgerState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txs = append([]Transaction(nil), s.Transactions...)
	l.settings = s.Settings
}
