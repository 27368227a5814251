/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the engine with realistic
	data for testing and demos. Each scenario creates books, settings and
	transactions that demonstrate specific features.

AVAILABLE SCENARIOS:

	kirana-shop:   One shop book, GST on supplier bills, a week of sales
	household:     Salary, rent and groceries against a budget and a goal
	multi-book:    Shop, home and trip books with the home book active

HOW SCENARIOS WORK:
 1. Reset the engine (delete every book and entry)
 2. Apply the scenario's settings
 3. Create books (the last created is listed first)
 4. Record transactions dated relative to the handler clock

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "household"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description and loader

NOTE:

	Scenarios reset the engine. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and helpers
  - cmd/server/main.go: --scenario flag
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smartspend/cashbook-engine/cashbook"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(s *seeder) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "kirana-shop",
			Name:        "Kirana Shop",
			Description: "Daily sales with GST on supplier bills",
		},
		load: loadKiranaShop,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "household",
			Name:        "Household",
			Description: "Salary, rent and groceries against a monthly budget and savings goal",
		},
		load: loadHousehold,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "multi-book",
			Name:        "Multiple Books",
			Description: "Shop, home and trip books with the home book active",
		},
		load: loadMultiBook,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the engine and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.ApplyScenario(req.ScenarioID); err != nil {
		if _, ok := findScenario(req.ScenarioID); !ok {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ApplyScenario resets the engine and loads scenario id.
func (h *Handler) ApplyScenario(id string) error {
	s, ok := findScenario(id)
	if !ok {
		return fmt.Errorf("unknown scenario %q", id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.Engine.ResetAll()
	h.currentScenario = ""

	sd := &seeder{eng: h.Engine, today: cashbook.StartOfDay(h.Clock(), h.loc())}
	if err := s.load(sd); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}

	h.currentScenario = id
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadKiranaShop(s *seeder) error {
	s.settings(true, 0, 0)
	shop := s.book("Kirana Store", "Daily counter book", "#16A34A")

	for day := 6; day >= 0; day-- {
		s.in(shop, day, 9, 1800+150*int64(day), "Sales", "Cash")
		s.in(shop, day, 18, 950+40*int64(day), "Sales", "UPI")
	}
	s.gst(shop, 5, 11, 12000, 18, "Stock", "Wholesale rice and dal")
	s.gst(shop, 2, 16, 3500, 12, "Packaging", "Carry bags")
	s.out(shop, 1, 20, 600, "Electricity", "Cash")
	return s.err
}

func loadHousehold(s *seeder) error {
	s.settings(false, 20000, 50000)
	home := s.book("Home", "Family expenses", "")

	s.in(home, 10, 9, 65000, "Salary", "Bank transfer")
	s.out(home, 9, 10, 18000, "Rent", "Bank transfer")
	s.out(home, 7, 19, 2450, "Groceries", "UPI")
	s.out(home, 4, 20, 899, "Internet", "Card")
	s.out(home, 1, 18, 3100, "Groceries", "UPI")
	return s.err
}

func loadMultiBook(s *seeder) error {
	s.settings(false, 0, 0)
	home := s.book("Home", "", "")
	shop := s.book("Shop", "", "#F97316")
	trip := s.book("Goa Trip", "Shared trip expenses", "#9333EA")
	s.eng.Books.SetActiveBook(home)

	s.in(home, 3, 9, 40000, "Salary", "Bank transfer")
	s.out(home, 2, 12, 1200, "Groceries", "UPI")
	s.in(shop, 1, 10, 5200, "Sales", "Cash")
	s.out(shop, 1, 15, 2100, "Stock", "Cash")
	s.in(trip, 6, 8, 15000, "Contributions", "UPI")
	s.out(trip, 5, 14, 9800, "Hotel", "Card")
	return s.err
}

// =============================================================================
// SEEDER
// =============================================================================

// seeder records demo data, keeping the first error.
type seeder struct {
	eng   *cashbook.Engine
	today time.Time
	err   error
}

func (s *seeder) settings(gst bool, budget, goal int64) {
	l := s.eng.Ledger
	l.SetGSTEnabled(gst)
	l.SetRoundUpEnabled(false)
	l.SetPrivateMode(false)
	l.SetMonthlyBudget(decimal.NewFromInt(budget))
	l.SetSavingsGoal(decimal.NewFromInt(goal))
}

func (s *seeder) book(name, description, color string) cashbook.BookID {
	if s.err != nil {
		return ""
	}
	b, err := s.eng.Books.AddBook(cashbook.NewBook{Name: name, Description: description, Color: color})
	s.err = err
	return b.ID
}

func (s *seeder) in(book cashbook.BookID, daysAgo, hour int, amount int64, category, method string) {
	s.add(book, cashbook.TxIn, daysAgo, hour, amount, category, "", method, nil)
}

func (s *seeder) out(book cashbook.BookID, daysAgo, hour int, amount int64, category, method string) {
	s.add(book, cashbook.TxOut, daysAgo, hour, amount, category, "", method, nil)
}

func (s *seeder) gst(book cashbook.BookID, daysAgo, hour int, amount, rate int64, category, note string) {
	s.add(book, cashbook.TxOut, daysAgo, hour, amount, category, note, "Bank transfer",
		&cashbook.GSTRequest{Rate: decimal.NewFromInt(rate)})
}

func (s *seeder) add(book cashbook.BookID, typ cashbook.TxType, daysAgo, hour int, amount int64,
	category, note, method string, gst *cashbook.GSTRequest) {
	if s.err != nil {
		return
	}
	_, s.err = s.eng.Ledger.AddTransaction(cashbook.NewTransaction{
		BookID:        book,
		Type:          typ,
		Amount:        decimal.NewFromInt(amount),
		Date:          s.today.AddDate(0, 0, -daysAgo).Add(time.Duration(hour) * time.Hour),
		Category:      category,
		Note:          note,
		PaymentMethod: method,
		GST:           gst,
	})
}
