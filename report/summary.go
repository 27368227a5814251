package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Empty-table messages.
const (
	NoSelection    = "No transactions in this selection."
	NoTransactions = "No transactions recorded yet."
)

// Summary is a rendered summary export.
type Summary struct {
	Title    string
	Markdown []byte
}

// =============================================================================
// INVOICE - Filtered view with GST
// =============================================================================

// Invoice summarizes an already filtered view of book, typically the
// output of Ledger.Filter.
func Invoice(book cashbook.Book, txs []cashbook.Transaction, opts Options) Summary {
	name := bookName(book)
	totals := cashbook.Summarize(txs)
	cur := opts.currency()
	loc := opts.location()

	var b strings.Builder
	fmt.Fprintf(&b, "# SmartSpend Invoice\n\n")
	fmt.Fprintf(&b, "Cashbook: **%s**\n\n", escape(name))
	fmt.Fprintf(&b, "Generated at %s\n\n", formatDate(opts.now(), loc))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total cash-in: %s\n", formatMoney(totals.TotalIn, cur))
	fmt.Fprintf(&b, "- Total cash-out: %s\n", formatMoney(totals.TotalOut, cur))
	fmt.Fprintf(&b, "- Net balance: %s\n", formatMoney(totals.Balance, cur))
	fmt.Fprintf(&b, "- Total GST (all entries): %s\n\n", formatMoney(totals.TotalGST, cur))

	b.WriteString("## Line items\n\n")
	if len(txs) == 0 {
		b.WriteString(NoSelection + "\n")
	} else {
		b.WriteString("| Date | Type | Category | Amount | Method | GST |\n")
		b.WriteString("|---|---|---|--:|---|---|\n")
		for _, tx := range txs {
			gst := "-"
			if tx.IsGSTApplied {
				gst = "GST " + tx.GSTRate.String() + "%"
			}
			row(&b,
				formatDate(tx.Date, loc),
				string(tx.Type),
				clean(tx.Category),
				formatMoney(tx.Amount, cur),
				clean(tx.PaymentMethod),
				gst,
			)
		}
	}

	return Summary{Title: "Invoice - " + name, Markdown: []byte(b.String())}
}

// =============================================================================
// PASSBOOK - Whole book, oldest first
// =============================================================================

// Passbook summarizes every transaction of book, typically the output of
// Ledger.Passbook.
func Passbook(book cashbook.Book, txs []cashbook.Transaction, opts Options) Summary {
	name := bookName(book)
	totals := cashbook.Summarize(txs)
	cur := opts.currency()
	loc := opts.location()

	var b strings.Builder
	fmt.Fprintf(&b, "# SmartSpend Passbook\n\n")
	fmt.Fprintf(&b, "Cashbook: **%s**\n\n", escape(name))
	if !book.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Started on %s\n\n", formatDate(book.CreatedAt, loc))
	}
	fmt.Fprintf(&b, "Generated at %s\n\n", formatDate(opts.now(), loc))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total cash-in: %s\n", formatMoney(totals.TotalIn, cur))
	fmt.Fprintf(&b, "- Total cash-out: %s\n", formatMoney(totals.TotalOut, cur))
	fmt.Fprintf(&b, "- Closing balance: %s\n\n", formatMoney(totals.Balance, cur))

	b.WriteString("## Passbook entries\n\n")
	if len(txs) == 0 {
		b.WriteString(NoTransactions + "\n")
	} else {
		b.WriteString("| Date | Type | Category | Amount | Note |\n")
		b.WriteString("|---|---|---|--:|---|\n")
		for _, tx := range txs {
			typ := "Out"
			if tx.Type == cashbook.TxIn {
				typ = "In"
			}
			row(&b,
				formatDate(tx.Date, loc),
				typ,
				clean(tx.Category),
				formatMoney(tx.Amount, cur),
				clean(tx.Note),
			)
		}
	}

	return Summary{Title: "Passbook - " + name, Markdown: []byte(b.String())}
}

// =============================================================================
// HTML
// =============================================================================

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

const pageStyle = `body { font-family: system-ui, -apple-system, 'Segoe UI', sans-serif; padding: 24px; color: #111827; }
h1 { font-size: 22px; margin-bottom: 4px; }
h2 { font-size: 16px; margin-top: 24px; margin-bottom: 8px; }
table { width: 100%; border-collapse: collapse; font-size: 12px; }
th, td { border: 1px solid #E5E7EB; padding: 6px 8px; }
th { background-color: #F3F4F6; text-align: left; }`

// HTML renders the summary as a standalone page.
func (s Summary) HTML() ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert(s.Markdown, &body); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(s.Title))
	fmt.Fprintf(&page, "<style>\n%s\n</style>\n</head>\n<body>\n", pageStyle)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// formatMoney renders amount in cur's minor units, e.g. "₹1,000.00".
func formatMoney(amount decimal.Decimal, cur *money.Currency) string {
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func row(b *strings.Builder, cells ...string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escape(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
	`<`, `\<`,
	`>`, `\>`,
	`#`, `\#`,
)

// escape keeps user text from being read as Markdown syntax.
func escape(s string) string {
	return mdEscaper.Replace(s)
}
