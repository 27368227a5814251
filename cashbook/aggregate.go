/*
aggregate.go - Time-bucketed series and filtered views

PURPOSE:
  Derives everything the screens and report renderers show from the
  ledger's transaction collection. Nothing here is cached.

QUERY PATHS:
  Filter:       Book-scoped, optional type and date range, newest first.
                This is the ONLY path that feeds both on-screen lists and
                exports, so an export always matches the view it came from.
  RecentN:      Filter with no restrictions, truncated to n.
  Passbook:     Every book transaction, oldest first.
  DailySeries:  Net cash flow per calendar day, oldest first.
  WeeklySeries: Net cash flow per 7-day bucket, oldest first.

CALENDAR DAYS:
  Day boundaries are taken in the ledger's location. A day covers
  [00:00:00.000, next day 00:00), i.e. up to and including 23:59:59.999.

SEE ALSO:
  - ledger.go: The collection these views read
  - report/: Renderers consuming Filter and Passbook output
*/
package cashbook

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SERIES
// =============================================================================

// SeriesPoint is one bucket of a cash-flow chart.
type SeriesPoint struct {
	Label string
	Start time.Time
	In    decimal.Decimal
	Out   decimal.Decimal
	Net   decimal.Decimal // In - Out
}

// DailySeries returns one point per calendar day for the `days` days ending
// on anchor's day (inclusive), oldest first. Labels are "Mo", "Tu", ...
func (l *Ledger) DailySeries(bookID BookID, days int, anchor time.Time) []SeriesPoint {
	if days <= 0 {
		return []SeriesPoint{}
	}
	last := StartOfDay(anchor, l.loc)
	buckets := make([]dayRange, days)
	for i := range buckets {
		start := last.AddDate(0, 0, i-days+1)
		buckets[i] = dayRange{Start: start, End: start.AddDate(0, 0, 1)}
	}
	return l.series(bookID, buckets, weekdayLabel)
}

// WeeklySeries returns one point per 7-day bucket for the `weeks` buckets
// ending on anchor's day (inclusive), oldest first. Labels are the bucket's
// first day as "dd/mm".
func (l *Ledger) WeeklySeries(bookID BookID, weeks int, anchor time.Time) []SeriesPoint {
	if weeks <= 0 {
		return []SeriesPoint{}
	}
	end := StartOfDay(anchor, l.loc).AddDate(0, 0, 1)
	buckets := make([]dayRange, weeks)
	for i := range buckets {
		bucketEnd := end.AddDate(0, 0, -7*(weeks-1-i))
		buckets[i] = dayRange{Start: bucketEnd.AddDate(0, 0, -7), End: bucketEnd}
	}
	return l.series(bookID, buckets, shortDateLabel)
}

func (l *Ledger) series(bookID BookID, buckets []dayRange, label func(time.Time) string) []SeriesPoint {
	points := make([]SeriesPoint, len(buckets))
	for i, b := range buckets {
		points[i] = SeriesPoint{
			Label: label(b.Start),
			Start: b.Start,
			In:    decimal.Zero,
			Out:   decimal.Zero,
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, tx := range l.txs {
		if tx.BookID != bookID {
			continue
		}
		// Buckets are contiguous and short; a linear probe is enough.
		i := slices.IndexFunc(buckets, func(b dayRange) bool { return b.contains(tx.Date) })
		if i < 0 {
			continue
		}
		switch tx.Type {
		case TxIn:
			points[i].In = points[i].In.Add(tx.Amount)
		case TxOut:
			points[i].Out = points[i].Out.Add(tx.Amount)
		}
	}
	for i := range points {
		points[i].Net = points[i].In.Sub(points[i].Out)
	}
	return points
}

// =============================================================================
// FILTERED VIEWS
// =============================================================================

// Filter restricts a book view. Zero values impose no restriction.
type Filter struct {
	Type TxType    // "" for both directions
	From time.Time // inclusive from 00:00:00.000 of this day
	To   time.Time // inclusive through 23:59:59.999 of this day
}

func (f Filter) IsZero() bool {
	return f.Type == "" && f.From.IsZero() && f.To.IsZero()
}

// Filter returns bookID's transactions matching f, newest date first.
// Transactions sharing a date keep most-recently-recorded first.
func (l *Ledger) Filter(bookID BookID, f Filter) []Transaction {
	var from, to time.Time
	if !f.From.IsZero() {
		from = StartOfDay(f.From, l.loc)
	}
	if !f.To.IsZero() {
		to = StartOfDay(f.To, l.loc).AddDate(0, 0, 1)
	}

	l.mu.RLock()
	out := make([]Transaction, 0)
	for _, tx := range l.txs {
		if tx.BookID != bookID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.Date.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	l.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// RecentN returns the n most recent transactions of bookID by date.
func (l *Ledger) RecentN(bookID BookID, n int) []Transaction {
	all := l.Filter(bookID, Filter{})
	if n < 0 {
		n = 0
	}
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// Passbook returns every transaction of bookID, oldest date first.
func (l *Ledger) Passbook(bookID BookID) []Transaction {
	all := l.Filter(bookID, Filter{})
	// Ties come out in recording order.
	slices.Reverse(all)
	return all
}

// =============================================================================
// BUDGET AND SAVINGS
// =============================================================================

type BudgetStatus struct {
	Budget    decimal.Decimal
	Spent     decimal.Decimal // cash-out within the month
	Remaining decimal.Decimal // may be negative
	Over      bool
}

// BudgetStatus compares bookID's cash-out in anchor's calendar month against
// the monthly budget. False when no budget is set.
func (l *Ledger) BudgetStatus(bookID BookID, anchor time.Time) (BudgetStatus, bool) {
	settings := l.Settings()
	if !settings.MonthlyBudget.Valid {
		return BudgetStatus{}, false
	}
	start := StartOfMonth(anchor, l.loc)
	month := dayRange{Start: start, End: start.AddDate(0, 1, 0)}

	spent := decimal.Zero
	l.mu.RLock()
	for _, tx := range l.txs {
		if tx.BookID == bookID && tx.Type == TxOut && month.contains(tx.Date) {
			spent = spent.Add(tx.Amount)
		}
	}
	l.mu.RUnlock()

	budget := settings.MonthlyBudget.Decimal
	remaining := budget.Sub(spent)
	return BudgetStatus{
		Budget:    budget,
		Spent:     spent,
		Remaining: remaining,
		Over:      remaining.IsNegative(),
	}, true
}

type SavingsProgress struct {
	Goal    decimal.Decimal
	Saved   decimal.Decimal // the book balance
	Percent decimal.Decimal // 0..100
}

// SavingsProgress measures bookID's balance against the savings goal.
// False when no goal is set.
func (l *Ledger) SavingsProgress(bookID BookID) (SavingsProgress, bool) {
	settings := l.Settings()
	if !settings.SavingsGoal.Valid {
		return SavingsProgress{}, false
	}
	goal := settings.SavingsGoal.Decimal
	saved := l.BookBalance(bookID).Balance

	pct := decimal.Zero
	if saved.IsPositive() {
		pct = decimal.Min(saved.Mul(hundred).Div(goal), hundred)
	}
	return SavingsProgress{Goal: goal, Saved: saved, Percent: pct}, true
}
