/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the cashbook domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers around several DTOs

AMOUNTS:
  Every amount is a decimal string ("380", "2.5"). Requests accept either
  a JSON number or a string.

TIMES:
  Instants are RFC 3339. Query-string days are YYYY-MM-DD in the server's
  configured time zone.

VALIDATION:
  Validation is done in handlers and the cashbook core, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartspend/cashbook-engine/cashbook"
)

// =============================================================================
// BOOKS
// =============================================================================

type BookDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	CreatedAt   string `json:"created_at"`
	Active      bool   `json:"active"`
}

type BookListResponse struct {
	Books        []BookDTO `json:"books"`
	ActiveBookID *string   `json:"active_book_id"`
}

type CreateBookRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type BalanceDTO struct {
	BookID   string          `json:"book_id"`
	InTotal  decimal.Decimal `json:"in_total"`
	OutTotal decimal.Decimal `json:"out_total"`
	Balance  decimal.Decimal `json:"balance"`
	InShare  decimal.Decimal `json:"in_share"`
	OutShare decimal.Decimal `json:"out_share"`
}

type ActiveBookResponse struct {
	Book    BookDTO    `json:"book"`
	Balance BalanceDTO `json:"balance"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type TransactionDTO struct {
	ID            string          `json:"id"`
	BookID        string          `json:"book_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	CreatedAt     string          `json:"created_at"`
	Category      string          `json:"category"`
	Note          string          `json:"note"`
	PaymentMethod string          `json:"payment_method"`
	IsGSTApplied  bool            `json:"is_gst_applied"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	CGST          decimal.Decimal `json:"cgst"`
	SGST          decimal.Decimal `json:"sgst"`
	IGST          decimal.Decimal `json:"igst"`
}

// CreateTransactionRequest records one entry in the book named by the URL.
// Date is RFC 3339 or YYYY-MM-DD; empty means now. The GST fields are
// ignored while the gst_enabled setting is off.
type CreateTransactionRequest struct {
	Type          string           `json:"type"`
	Amount        *decimal.Decimal `json:"amount"`
	Date          string           `json:"date"`
	Category      string           `json:"category"`
	Note          string           `json:"note"`
	PaymentMethod string           `json:"payment_method"`
	ApplyGST      bool             `json:"apply_gst"`
	GSTRate       decimal.Decimal  `json:"gst_rate"`
}

type SummaryDTO struct {
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
	Balance  decimal.Decimal `json:"balance"`
	TotalGST decimal.Decimal `json:"total_gst"`
}

type TransactionListResponse struct {
	Transactions []TransactionDTO `json:"transactions"`
	Summary      SummaryDTO       `json:"summary"`
}

// =============================================================================
// AGGREGATES
// =============================================================================

type SeriesPointDTO struct {
	Label string          `json:"label"`
	Start string          `json:"start"`
	In    decimal.Decimal `json:"in"`
	Out   decimal.Decimal `json:"out"`
	Net   decimal.Decimal `json:"net"`
}

type BudgetDTO struct {
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Over      bool            `json:"over"`
}

type SavingsDTO struct {
	Goal    decimal.Decimal `json:"goal"`
	Saved   decimal.Decimal `json:"saved"`
	Percent decimal.Decimal `json:"percent"`
}

// =============================================================================
// SETTINGS
// =============================================================================

type SettingsDTO struct {
	GSTEnabled     bool             `json:"gst_enabled"`
	RoundUpEnabled bool             `json:"round_up_enabled"`
	PrivateMode    bool             `json:"private_mode"`
	MonthlyBudget  *decimal.Decimal `json:"monthly_budget"`
	SavingsGoal    *decimal.Decimal `json:"savings_goal"`
}

// UpdateSettingsRequest changes only the fields present. A budget or goal
// of 0 clears it.
type UpdateSettingsRequest struct {
	GSTEnabled     *bool            `json:"gst_enabled"`
	RoundUpEnabled *bool            `json:"round_up_enabled"`
	PrivateMode    *bool            `json:"private_mode"`
	MonthlyBudget  *decimal.Decimal `json:"monthly_budget"`
	SavingsGoal    *decimal.Decimal `json:"savings_goal"`
}

// =============================================================================
// HEALTH
// =============================================================================

type HealthDTO struct {
	Status         string `json:"status"`
	Books          int    `json:"books"`
	Transactions   int    `json:"transactions"`
	LastCheckpoint string `json:"last_checkpoint,omitempty"`
	CheckpointErr  string `json:"checkpoint_error,omitempty"`

	Storage    []StorageEntryDTO `json:"storage,omitempty"`
	StorageErr string            `json:"storage_error,omitempty"`
}

// StorageEntryDTO describes one persisted snapshot.
type StorageEntryDTO struct {
	Key       string `json:"key"`
	Bytes     int    `json:"bytes"`
	UpdatedAt string `json:"updated_at"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toBookDTO(b cashbook.Book, activeID cashbook.BookID) BookDTO {
	return BookDTO{
		ID:          string(b.ID),
		Name:        b.Name,
		Description: b.Description,
		Color:       b.Color,
		CreatedAt:   formatTime(b.CreatedAt),
		Active:      b.ID == activeID,
	}
}

func toBalanceDTO(id cashbook.BookID, b cashbook.Balance) BalanceDTO {
	in, out := b.Shares()
	return BalanceDTO{
		BookID:   string(id),
		InTotal:  b.InTotal,
		OutTotal: b.OutTotal,
		Balance:  b.Balance,
		InShare:  in.Round(2),
		OutShare: out.Round(2),
	}
}

func toTransactionDTO(tx cashbook.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            string(tx.ID),
		BookID:        string(tx.BookID),
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Date:          formatTime(tx.Date),
		CreatedAt:     formatTime(tx.CreatedAt),
		Category:      tx.Category,
		Note:          tx.Note,
		PaymentMethod: tx.PaymentMethod,
		IsGSTApplied:  tx.IsGSTApplied,
		GSTRate:       tx.GSTRate,
		CGST:          tx.CGST,
		SGST:          tx.SGST,
		IGST:          tx.IGST,
	}
}

func toTransactionDTOs(txs []cashbook.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toSummaryDTO(s cashbook.Summary) SummaryDTO {
	return SummaryDTO{TotalIn: s.TotalIn, TotalOut: s.TotalOut, Balance: s.Balance, TotalGST: s.TotalGST}
}

func toSeriesDTOs(points []cashbook.SeriesPoint) []SeriesPointDTO {
	dtos := make([]SeriesPointDTO, len(points))
	for i, p := range points {
		dtos[i] = SeriesPointDTO{
			Label: p.Label,
			Start: formatTime(p.Start),
			In:    p.In,
			Out:   p.Out,
			Net:   p.Net,
		}
	}
	return dtos
}

func toSettingsDTO(s cashbook.Settings) SettingsDTO {
	dto := SettingsDTO{
		GSTEnabled:     s.GSTEnabled,
		RoundUpEnabled: s.RoundUpEnabled,
		PrivateMode:    s.PrivateMode,
	}
	if s.MonthlyBudget.Valid {
		v := s.MonthlyBudget.Decimal
		dto.MonthlyBudget = &v
	}
	if s.SavingsGoal.Valid {
		v := s.SavingsGoal.Decimal
		dto.SavingsGoal = &v
	}
	return dto
}
