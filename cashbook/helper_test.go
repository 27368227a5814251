package cashbook_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	testTimeout = 2 * time.Second
	testTick    = 10 * time.Millisecond
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// Tuesday 14 October 2025, 10:00 IST.
var now = time.Date(2025, time.October, 14, 10, 0, 0, 0, ist)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func newTestRegistry() *cashbook.Registry {
	return cashbook.NewRegistry(&cashbook.SequenceGenerator{Prefix: "book"}, cashbook.FixedClock(now))
}

func newTestLedger() *cashbook.Ledger {
	return cashbook.NewLedger(&cashbook.SequenceGenerator{Prefix: "tx"}, cashbook.FixedClock(now), ist)
}

func addTx(t *testing.T, l *cashbook.Ledger, book cashbook.BookID, typ cashbook.TxType, amount string, date time.Time) cashbook.Transaction {
	t.Helper()
	tx, err := l.AddTransaction(cashbook.NewTransaction{
		BookID: book,
		Type:   typ,
		Amount: dec(amount),
		Date:   date,
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	return tx
}

func day(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, ist)
}
