/*
Package report renders cashbook transactions for export.

PURPOSE:
  Turns the output of the ledger's query paths into files a user can share.
  The renderers never query the ledger themselves: callers pass the exact
  sequence they are showing, so an export always matches its view.

EXPORTS:
  Tabular (WriteCSV, WriteXLSX):
    One row per transaction with every persisted field. Fed by
    Ledger.Filter, so it respects the active type and date filter.

  Summary (Invoice, Passbook):
    A Markdown document with totals and a line-item table, convertible to
    a standalone HTML page. Invoice takes a filtered view and includes the
    GST total; Passbook takes the whole book oldest first and reports a
    closing balance.

TEXT CLEANING:
  Category, payment method and note have every run of CR, LF and commas
  replaced by one space and are trimmed, so a stray newline cannot break
  a row in any format.

SEE ALSO:
  - cashbook/aggregate.go: Filter, Passbook, Summarize
  - api/handlers.go:       The /export routes
*/
package report

import (
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/smartspend/cashbook-engine/cashbook"
)

// DateLayout is how export rows show instants, e.g. "14 Oct 2025, 10:00 am".
const DateLayout = "02 Jan 2006, 03:04 pm"

// Options control locale-dependent rendering.
type Options struct {
	Location *time.Location  // nil means time.Local
	Currency *money.Currency // nil means INR
	Now      time.Time       // "generated at" stamp; zero means time.Now()
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) currency() *money.Currency {
	if o.Currency == nil {
		return money.GetCurrency(money.INR)
	}
	return o.Currency
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

var breaks = regexp.MustCompile(`[\r\n,]+`)

// clean flattens free text for a single table cell.
func clean(s string) string {
	return strings.TrimSpace(breaks.ReplaceAllString(s, " "))
}

// formatDate renders t in loc. The zero time renders as "".
func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(DateLayout)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// bookName falls back to "Cashbook" when the book has no usable name.
func bookName(b cashbook.Book) string {
	if name := strings.TrimSpace(b.Name); name != "" {
		return name
	}
	return "Cashbook"
}
