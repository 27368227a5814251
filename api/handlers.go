/*
handlers.go - HTTP API handlers for the cashbook engine

PURPOSE:
  Exposes the cashbook engine via a JSON API for the UI shell. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Books:
    GET    /api/books                         List books, most recent first
    POST   /api/books                         Create book
    DELETE /api/books                         Delete every book
    GET    /api/books/active                  Active book with its balance
    GET    /api/books/{id}                    Book details
    DELETE /api/books/{id}                    Delete book (entries are kept)
    POST   /api/books/{id}/activate           Make book active

  Book views:
    GET    /api/books/{id}/balance            In/out totals and shares
    GET    /api/books/{id}/transactions       Filtered view (type, from, to)
    POST   /api/books/{id}/transactions       Record a transaction
    GET    /api/books/{id}/recent             Newest n entries (n=5)
    GET    /api/books/{id}/passbook           Every entry, oldest first
    GET    /api/books/{id}/series/daily       Daily net flow (days=7, anchor)
    GET    /api/books/{id}/series/weekly      Weekly net flow (weeks=4, anchor)
    GET    /api/books/{id}/budget             Month cash-out vs budget
    GET    /api/books/{id}/savings            Balance vs savings goal

  Exports:
    GET    /api/books/{id}/export/csv         Filtered view as CSV
    GET    /api/books/{id}/export/xlsx        Filtered view as XLSX
    GET    /api/books/{id}/export/invoice     Filtered summary (format=html|md)
    GET    /api/books/{id}/export/passbook    Whole-book summary (format=html|md)

  Transactions:
    DELETE /api/transactions                  Delete every transaction
    GET    /api/transactions/{id}             Transaction details
    DELETE /api/transactions/{id}             Delete transaction

  Settings and admin:
    GET    /api/settings                      Current settings
    PATCH  /api/settings                      Change some settings
    POST   /api/reset                         Delete every book and entry
    GET    /api/health                        Counts, last checkpoint, stored snapshots

  Scenarios:
    GET    /api/scenarios                     Available demo scenarios
    GET    /api/scenarios/current             Last loaded scenario
    POST   /api/scenarios/load                Reset and load a scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Book or transaction not found, budget/goal not set
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The server is meant to run next to a single user's UI.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/smartspend/cashbook-engine/report"
	"github.com/smartspend/cashbook-engine/store/sqlite"
)

const (
	dayLayout = "2006-01-02"
	maxDays   = 366
	maxWeeks  = 104
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *cashbook.Engine
	Report report.Options
	Clock  cashbook.Clock

	// Optional; reported by /api/health when set.
	Checkpoints *CheckpointScheduler
	Storage     StorageInspector

	mu              sync.Mutex
	currentScenario string
}

// StorageInspector lists the snapshots a durable store holds.
type StorageInspector interface {
	Entries(ctx context.Context) ([]sqlite.Entry, error)
}

// NewHandler creates a handler serving eng. Report options without a
// location use the ledger's.
func NewHandler(eng *cashbook.Engine, opts report.Options) *Handler {
	if opts.Location == nil {
		opts.Location = eng.Ledger.Location()
	}
	return &Handler{Engine: eng, Report: opts, Clock: time.Now}
}

func (h *Handler) loc() *time.Location { return h.Engine.Ledger.Location() }

// =============================================================================
// BOOK HANDLERS
// =============================================================================

// ListBooks returns every book, most recently created first.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	state := h.Engine.Books.State()

	resp := BookListResponse{Books: make([]BookDTO, len(state.Books))}
	for i, b := range state.Books {
		resp.Books[i] = toBookDTO(b, state.ActiveBookID)
	}
	if state.ActiveBookID != "" {
		id := string(state.ActiveBookID)
		resp.ActiveBookID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateBook adds a book. The first book becomes active.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.Engine.Books.AddBook(cashbook.NewBook{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	})
	if err != nil {
		writeDomainError(w, "Failed to create book", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookDTO(book, h.Engine.Books.ActiveBookID()))
}

// ClearBooks deletes every book. Transactions are kept.
func (h *Handler) ClearBooks(w http.ResponseWriter, r *http.Request) {
	h.Engine.Books.ClearAllBooks()
	w.WriteHeader(http.StatusNoContent)
}

// GetActiveBook returns the active book and its balance.
func (h *Handler) GetActiveBook(w http.ResponseWriter, r *http.Request) {
	book, bal, ok := h.Engine.ActiveBalance()
	if !ok {
		writeError(w, http.StatusNotFound, "No active book", nil)
		return
	}
	writeJSON(w, http.StatusOK, ActiveBookResponse{
		Book:    toBookDTO(book, book.ID),
		Balance: toBalanceDTO(book.ID, bal),
	})
}

// GetBook returns a single book.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.findBook(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(book, h.Engine.Books.ActiveBookID()))
}

// DeleteBook removes a book. Unknown ids are a no-op.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	h.Engine.Books.DeleteBook(bookID(r))
	w.WriteHeader(http.StatusNoContent)
}

// ActivateBook points the active book at an existing book.
func (h *Handler) ActivateBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.findBook(w, r)
	if !ok {
		return
	}
	h.Engine.Books.SetActiveBook(book.ID)
	writeJSON(w, http.StatusOK, toBookDTO(book, book.ID))
}

// GetBalance returns a book's totals. Deleted books still report the
// balance of their remaining entries.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := bookID(r)
	writeJSON(w, http.StatusOK, toBalanceDTO(id, h.Engine.Ledger.BookBalance(id)))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the filtered view of a book with its totals.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	txs := h.Engine.Ledger.Filter(bookID(r), f)
	writeJSON(w, http.StatusOK, TransactionListResponse{
		Transactions: toTransactionDTOs(txs),
		Summary:      toSummaryDTO(cashbook.Summarize(txs)),
	})
}

// CreateTransaction records an entry in an existing book.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	book, ok := h.findBook(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required", nil)
		return
	}

	date, err := h.parseEntryDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use RFC 3339 or YYYY-MM-DD)", err)
		return
	}

	in := cashbook.NewTransaction{
		BookID:        book.ID,
		Type:          cashbook.TxType(req.Type),
		Amount:        *req.Amount,
		Date:          date,
		Category:      req.Category,
		Note:          req.Note,
		PaymentMethod: req.PaymentMethod,
	}
	if req.ApplyGST && h.Engine.Ledger.Settings().GSTEnabled {
		in.GST = &cashbook.GSTRequest{Rate: req.GSTRate}
	}

	tx, err := h.Engine.Ledger.AddTransaction(in)
	if err != nil {
		writeDomainError(w, "Failed to record transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// ClearTransactions deletes every transaction. Settings are kept.
func (h *Handler) ClearTransactions(w http.ResponseWriter, r *http.Request) {
	h.Engine.Ledger.ClearAllTransactions()
	w.WriteHeader(http.StatusNoContent)
}

// GetTransaction returns a single transaction.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.Engine.Ledger.Transaction(cashbook.TransactionID(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// DeleteTransaction removes a transaction. Unknown ids are a no-op.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	h.Engine.Ledger.DeleteTransaction(cashbook.TransactionID(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusNoContent)
}

// RecentTransactions returns the newest n entries of a book.
func (h *Handler) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	n, err := intQuery(r, "n", 5, 0, 1000)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid n", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Engine.Ledger.RecentN(bookID(r), n)))
}

// GetPassbook returns every entry of a book, oldest first.
func (h *Handler) GetPassbook(w http.ResponseWriter, r *http.Request) {
	txs := h.Engine.Ledger.Passbook(bookID(r))
	writeJSON(w, http.StatusOK, TransactionListResponse{
		Transactions: toTransactionDTOs(txs),
		Summary:      toSummaryDTO(cashbook.Summarize(txs)),
	})
}

// =============================================================================
// AGGREGATE HANDLERS
// =============================================================================

// DailySeries returns net flow for the days ending on anchor.
func (h *Handler) DailySeries(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", 7, 1, maxDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days", err)
		return
	}
	anchor, err := h.parseAnchor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid anchor (use YYYY-MM-DD)", err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesDTOs(h.Engine.Ledger.DailySeries(bookID(r), days, anchor)))
}

// WeeklySeries returns net flow for the 7-day buckets ending on anchor.
func (h *Handler) WeeklySeries(w http.ResponseWriter, r *http.Request) {
	weeks, err := intQuery(r, "weeks", 4, 1, maxWeeks)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weeks", err)
		return
	}
	anchor, err := h.parseAnchor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid anchor (use YYYY-MM-DD)", err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesDTOs(h.Engine.Ledger.WeeklySeries(bookID(r), weeks, anchor)))
}

// GetBudget compares this month's cash-out with the monthly budget.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	anchor, err := h.parseAnchor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid anchor (use YYYY-MM-DD)", err)
		return
	}
	status, ok := h.Engine.Ledger.BudgetStatus(bookID(r), anchor)
	if !ok {
		writeError(w, http.StatusNotFound, "Monthly budget not set", nil)
		return
	}
	writeJSON(w, http.StatusOK, BudgetDTO{
		Budget:    status.Budget,
		Spent:     status.Spent,
		Remaining: status.Remaining,
		Over:      status.Over,
	})
}

// GetSavings compares the book balance with the savings goal.
func (h *Handler) GetSavings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Engine.Ledger.SavingsProgress(bookID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Savings goal not set", nil)
		return
	}
	writeJSON(w, http.StatusOK, SavingsDTO{Goal: p.Goal, Saved: p.Saved, Percent: p.Percent.Round(2)})
}

// =============================================================================
// SETTINGS AND ADMIN HANDLERS
// =============================================================================

// GetSettings returns the ledger settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSettingsDTO(h.Engine.Ledger.Settings()))
}

// UpdateSettings applies the fields present in the request.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	l := h.Engine.Ledger
	if req.GSTEnabled != nil {
		l.SetGSTEnabled(*req.GSTEnabled)
	}
	if req.RoundUpEnabled != nil {
		l.SetRoundUpEnabled(*req.RoundUpEnabled)
	}
	if req.PrivateMode != nil {
		l.SetPrivateMode(*req.PrivateMode)
	}
	if req.MonthlyBudget != nil {
		l.SetMonthlyBudget(*req.MonthlyBudget)
	}
	if req.SavingsGoal != nil {
		l.SetSavingsGoal(*req.SavingsGoal)
	}

	writeJSON(w, http.StatusOK, toSettingsDTO(l.Settings()))
}

// Reset deletes every book and every transaction.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.Engine.ResetAll()
	w.WriteHeader(http.StatusNoContent)
}

// Health reports collection sizes, the last checkpoint and, for durable
// stores, the persisted snapshots.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthDTO{
		Status:       "ok",
		Books:        h.Engine.Books.Len(),
		Transactions: h.Engine.Ledger.Len(),
	}
	if h.Checkpoints != nil {
		run := h.Checkpoints.LastRun()
		resp.LastCheckpoint = formatTime(run.At)
		if run.Err != nil {
			resp.Status = "degraded"
			resp.CheckpointErr = run.Err.Error()
		}
	}
	if h.Storage != nil {
		entries, err := h.Storage.Entries(r.Context())
		if err != nil {
			resp.Status = "degraded"
			resp.StorageErr = err.Error()
		}
		for _, e := range entries {
			resp.Storage = append(resp.Storage, StorageEntryDTO{
				Key:       e.Key,
				Bytes:     e.Size,
				UpdatedAt: formatTime(e.UpdatedAt),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// ExportCSV streams the filtered view as CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, "text/csv; charset=utf-8", "csv", report.WriteCSV)
}

// ExportXLSX streams the filtered view as a spreadsheet.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", report.WriteXLSX)
}

type tableWriter func(w io.Writer, txs []cashbook.Transaction, opts report.Options) error

func (h *Handler) exportTable(w http.ResponseWriter, r *http.Request, contentType, ext string, write tableWriter) {
	f, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	txs := h.Engine.Ledger.Filter(bookID(r), f)

	// Render fully before writing so a failure can still become a 500.
	var buf bytes.Buffer
	if err := write(&buf, txs, h.reportOptions()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export transactions", err)
		return
	}
	writeAttachment(w, contentType, h.filename("transactions", ext), buf.Bytes())
}

// ExportInvoice renders the filtered view as an invoice summary.
func (h *Handler) ExportInvoice(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	id := bookID(r)
	book, _ := h.Engine.Books.Book(id)
	h.exportSummary(w, r, "invoice", report.Invoice(book, h.Engine.Ledger.Filter(id, f), h.reportOptions()))
}

// ExportPassbook renders every entry of the book, oldest first.
func (h *Handler) ExportPassbook(w http.ResponseWriter, r *http.Request) {
	id := bookID(r)
	book, _ := h.Engine.Books.Book(id)
	h.exportSummary(w, r, "passbook", report.Passbook(book, h.Engine.Ledger.Passbook(id), h.reportOptions()))
}

func (h *Handler) exportSummary(w http.ResponseWriter, r *http.Request, kind string, s report.Summary) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		page, err := s.HTML()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to render "+kind, err)
			return
		}
		writeAttachment(w, "text/html; charset=utf-8", h.filename(kind, "html"), page)
	case "md", "markdown":
		writeAttachment(w, "text/markdown; charset=utf-8", h.filename(kind, "md"), s.Markdown)
	default:
		writeError(w, http.StatusBadRequest, "Invalid format (use html or md)", fmt.Errorf("format %q", format))
	}
}

func (h *Handler) reportOptions() report.Options {
	opts := h.Report
	opts.Now = h.Clock()
	return opts
}

func (h *Handler) filename(kind, ext string) string {
	return fmt.Sprintf("smartspend_%s_%d.%s", kind, h.Clock().UnixMilli(), ext)
}

// =============================================================================
// HELPERS
// =============================================================================

func bookID(r *http.Request) cashbook.BookID {
	return cashbook.BookID(chi.URLParam(r, "id"))
}

// findBook resolves the {id} parameter, writing a 404 when it is unknown.
func (h *Handler) findBook(w http.ResponseWriter, r *http.Request) (cashbook.Book, bool) {
	book, ok := h.Engine.Books.Book(bookID(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found", nil)
	}
	return book, ok
}

// parseFilter reads type (in, out, all) and from/to days.
func (h *Handler) parseFilter(r *http.Request) (cashbook.Filter, error) {
	q := r.URL.Query()
	var f cashbook.Filter

	switch typ := q.Get("type"); typ {
	case "", "all":
	case string(cashbook.TxIn), string(cashbook.TxOut):
		f.Type = cashbook.TxType(typ)
	default:
		return f, fmt.Errorf("type must be in, out or all, got %q", typ)
	}

	var err error
	if f.From, err = h.parseDay(q.Get("from")); err != nil {
		return f, fmt.Errorf("from: %w", err)
	}
	if f.To, err = h.parseDay(q.Get("to")); err != nil {
		return f, fmt.Errorf("to: %w", err)
	}
	return f, nil
}

// parseDay reads YYYY-MM-DD in the ledger's location. Empty is the zero time.
func (h *Handler) parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dayLayout, s, h.loc())
}

// parseAnchor reads the anchor day, defaulting to now.
func (h *Handler) parseAnchor(r *http.Request) (time.Time, error) {
	anchor, err := h.parseDay(r.URL.Query().Get("anchor"))
	if err != nil || !anchor.IsZero() {
		return anchor, err
	}
	return h.Clock(), nil
}

// parseEntryDate reads a transaction date. A bare day keeps the current
// time of day, the way a date picker seeded with "now" does.
func (h *Handler) parseEntryDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(dayLayout, s, h.loc())
	if err != nil {
		return time.Time{}, err
	}
	now := h.Clock().In(h.loc())
	return time.Date(day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), h.loc()), nil
}

func intQuery(r *http.Request, key string, def, min, max int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("response write failed", "status", status, "error", err)
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Warn("response write failed", "file", filename, "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps cashbook errors to a status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var verr *cashbook.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   message,
			Details: map[string]string{"field": verr.Field, "reason": verr.Reason},
		})
		return
	}
	writeError(w, http.StatusInternalServerError, message, err)
}
