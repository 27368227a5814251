/*
snapshot.go - Wire format of the two persisted snapshots

PURPOSE:
  Serializes BooksState and LedgerState to versioned JSON documents and
  back. Each snapshot is a full copy of its store, written wholesale.

LAYOUT:
  Books:        {version, books: [{id, name, description, color, createdAt}],
                 activeBookId: string|null}
  Transactions: {version, transactions: [{id, bookId, type, amount, date,
                 createdAt, category, note, paymentMethod, isGstApplied,
                 gstRate, cgst, sgst, igst}], gstEnabled, roundUpEnabled,
                 privateMode, monthlyBudget: number|null,
                 savingsGoal: number|null}

  Amounts are JSON numbers written from their exact decimal text.
  Instants are RFC 3339 in UTC.

DEFAULTING ON DECODE:
  Decoding never fails as a whole. Fields are read one by one and a
  missing or malformed field falls back to its default:
    booleans → false, budget/goal → null, arrays → empty,
    strings → "", numbers → 0, instants → zero time.
  Every fallback that hides real damage (wrong type, unparseable value,
  unusable entry) is returned as a warning. Missing fields are silent:
  older snapshots simply did not have them.
  Entries without an id cannot be addressed and are dropped.
*/
package cashbook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

// =============================================================================
// DOCUMENTS
// =============================================================================

type booksDoc struct {
	Version      int       `json:"version"`
	Books        []bookDoc `json:"books"`
	ActiveBookID *string   `json:"activeBookId"`
}

type bookDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	CreatedAt   string `json:"createdAt"`
}

type transactionsDoc struct {
	Version        int          `json:"version"`
	Transactions   []txDoc      `json:"transactions"`
	GSTEnabled     bool         `json:"gstEnabled"`
	RoundUpEnabled bool         `json:"roundUpEnabled"`
	PrivateMode    bool         `json:"privateMode"`
	MonthlyBudget  *json.Number `json:"monthlyBudget"`
	SavingsGoal    *json.Number `json:"savingsGoal"`
}

type txDoc struct {
	ID            string      `json:"id"`
	BookID        string      `json:"bookId"`
	Type          string      `json:"type"`
	Amount        json.Number `json:"amount"`
	Date          string      `json:"date"`
	CreatedAt     string      `json:"createdAt"`
	Category      string      `json:"category"`
	Note          string      `json:"note"`
	PaymentMethod string      `json:"paymentMethod"`
	IsGSTApplied  bool        `json:"isGstApplied"`
	GSTRate       json.Number `json:"gstRate"`
	CGST          json.Number `json:"cgst"`
	SGST          json.Number `json:"sgst"`
	IGST          json.Number `json:"igst"`
}

// =============================================================================
// ENCODE
// =============================================================================

// EncodeBooks serializes the registry state.
func EncodeBooks(s BooksState) ([]byte, error) {
	doc := booksDoc{Version: SnapshotVersion, Books: make([]bookDoc, len(s.Books))}
	for i, b := range s.Books {
		doc.Books[i] = bookDoc{
			ID:          string(b.ID),
			Name:        b.Name,
			Description: b.Description,
			Color:       b.Color,
			CreatedAt:   formatInstant(b.CreatedAt),
		}
	}
	if s.ActiveBookID != "" {
		id := string(s.ActiveBookID)
		doc.ActiveBookID = &id
	}
	return json.Marshal(doc)
}

// EncodeLedger serializes the ledger state.
func EncodeLedger(s LedgerState) ([]byte, error) {
	doc := transactionsDoc{
		Version:        SnapshotVersion,
		Transactions:   make([]txDoc, len(s.Transactions)),
		GSTEnabled:     s.Settings.GSTEnabled,
		RoundUpEnabled: s.Settings.RoundUpEnabled,
		PrivateMode:    s.Settings.PrivateMode,
		MonthlyBudget:  nullNumber(s.Settings.MonthlyBudget),
		SavingsGoal:    nullNumber(s.Settings.SavingsGoal),
	}
	for i, tx := range s.Transactions {
		doc.Transactions[i] = txDoc{
			ID:            string(tx.ID),
			BookID:        string(tx.BookID),
			Type:          string(tx.Type),
			Amount:        number(tx.Amount),
			Date:          formatInstant(tx.Date),
			CreatedAt:     formatInstant(tx.CreatedAt),
			Category:      tx.Category,
			Note:          tx.Note,
			PaymentMethod: tx.PaymentMethod,
			IsGSTApplied:  tx.IsGSTApplied,
			GSTRate:       number(tx.GSTRate),
			CGST:          number(tx.CGST),
			SGST:          number(tx.SGST),
			IGST:          number(tx.IGST),
		}
	}
	return json.Marshal(doc)
}

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func nullNumber(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := number(d.Decimal)
	return &n
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// =============================================================================
// DECODE
// =============================================================================

// DecodeBooks reads a books snapshot, defaulting whatever is missing or
// malformed. The returned warnings describe each fallback.
func DecodeBooks(data []byte) (BooksState, []error) {
	var d decoder
	var state BooksState

	top := d.object(data, "books snapshot")
	for i, raw := range d.array(top, "books") {
		entry := d.object(raw, fmt.Sprintf("books[%d]", i))
		if entry == nil {
			continue
		}
		book := Book{
			ID:          BookID(d.str(entry, "id")),
			Name:        d.str(entry, "name"),
			Description: d.str(entry, "description"),
			Color:       d.str(entry, "color"),
			CreatedAt:   d.instant(entry, "createdAt"),
		}
		if book.ID == "" {
			d.warn("books[%d]: missing id, dropped", i)
			continue
		}
		if book.Color == "" {
			book.Color = DefaultBookColor
		}
		state.Books = append(state.Books, book)
	}
	state.ActiveBookID = BookID(d.str(top, "activeBookId"))
	return state, d.warnings
}

// DecodeLedger reads a transactions snapshot, defaulting whatever is missing
// or malformed. The returned warnings describe each fallback.
func DecodeLedger(data []byte) (LedgerState, []error) {
	var d decoder
	var state LedgerState

	top := d.object(data, "transactions snapshot")
	for i, raw := range d.array(top, "transactions") {
		where := fmt.Sprintf("transactions[%d]", i)
		entry := d.object(raw, where)
		if entry == nil {
			continue
		}
		tx := Transaction{
			ID:            TransactionID(d.str(entry, "id")),
			BookID:        BookID(d.str(entry, "bookId")),
			Type:          TxType(d.str(entry, "type")),
			Amount:        d.num(entry, "amount"),
			Date:          d.instant(entry, "date"),
			CreatedAt:     d.instant(entry, "createdAt"),
			Category:      d.str(entry, "category"),
			Note:          d.str(entry, "note"),
			PaymentMethod: d.str(entry, "paymentMethod"),
			IsGSTApplied:  d.boolean(entry, "isGstApplied"),
			GSTRate:       d.num(entry, "gstRate"),
			CGST:          d.num(entry, "cgst"),
			SGST:          d.num(entry, "sgst"),
			IGST:          d.num(entry, "igst"),
		}
		if tx.ID == "" {
			d.warn("%s: missing id, dropped", where)
			continue
		}
		if tx.Amount.IsNegative() {
			d.warn("%s: negative amount %s, reset to 0", where, tx.Amount)
			tx.Amount = decimal.Zero
		}
		if !tx.IsGSTApplied {
			tx.GSTRate, tx.CGST, tx.SGST, tx.IGST = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
		}
		if tx.Category == "" && tx.Type.Valid() {
			tx.Category = tx.Type.DefaultCategory()
		}
		state.Transactions = append(state.Transactions, tx)
	}

	state.Settings = Settings{
		GSTEnabled:     d.boolean(top, "gstEnabled"),
		RoundUpEnabled: d.boolean(top, "roundUpEnabled"),
		PrivateMode:    d.boolean(top, "privateMode"),
		MonthlyBudget:  d.nullNum(top, "monthlyBudget"),
		SavingsGoal:    d.nullNum(top, "savingsGoal"),
	}
	return state, d.warnings
}

// decoder reads fields leniently and collects warnings.
type decoder struct {
	warnings []error
}

func (d *decoder) warn(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Errorf(format, args...))
}

// object parses raw as a JSON object. Empty input and null are silent.
func (d *decoder) object(raw []byte, where string) map[string]json.RawMessage {
	if isNull(raw) {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		d.warn("%s: not an object: %v", where, err)
		return nil
	}
	return m
}

func (d *decoder) array(m map[string]json.RawMessage, field string) []json.RawMessage {
	raw, ok := m[field]
	if !ok || isNull(raw) {
		return nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		d.warn("%s: not an array, treated as empty", field)
		return nil
	}
	return out
}

func (d *decoder) str(m map[string]json.RawMessage, field string) string {
	raw, ok := m[field]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.warn("%s: not a string, treated as empty", field)
		return ""
	}
	return s
}

func (d *decoder) boolean(m map[string]json.RawMessage, field string) bool {
	raw, ok := m[field]
	if !ok || isNull(raw) {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		d.warn("%s: not a boolean, treated as false", field)
		return false
	}
	return b
}

// num accepts a JSON number or a numeric string.
func (d *decoder) num(m map[string]json.RawMessage, field string) decimal.Decimal {
	v, ok := d.parseNum(m, field)
	if !ok {
		return decimal.Zero
	}
	return v
}

// nullNum is num for optional positive values. Non-positive means "unset".
func (d *decoder) nullNum(m map[string]json.RawMessage, field string) decimal.NullDecimal {
	v, ok := d.parseNum(m, field)
	if !ok {
		return decimal.NullDecimal{}
	}
	return positiveOrNull(v)
}

func (d *decoder) parseNum(m map[string]json.RawMessage, field string) (decimal.Decimal, bool) {
	raw, ok := m[field]
	if !ok || isNull(raw) {
		return decimal.Zero, false
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(raw); err != nil {
		d.warn("%s: not a number, treated as unset", field)
		return decimal.Zero, false
	}
	return v, true
}

func (d *decoder) instant(m map[string]json.RawMessage, field string) time.Time {
	s := d.str(m, field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		d.warn("%s: bad instant %q, treated as unset", field, s)
		return time.Time{}
	}
	return t
}

func isNull(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
