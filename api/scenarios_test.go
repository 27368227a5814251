/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Books are created and one is active
	- Settings are applied
	- Balances match expected values

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestScenario_KiranaShop(t *testing.T) {
	// GIVEN: Kirana shop scenario
	// WHEN: Loading the scenario
	// THEN: One GST-enabled book with a week of sales and two taxed bills
	s := newTestServer(t)
	require.NoError(t, s.api.ApplyScenario("kirana-shop"))

	eng := s.engine
	require.Equal(t, 1, eng.Books.Len())
	book, bal, ok := eng.ActiveBalance()
	require.True(t, ok)
	assert.Equal(t, "Kirana Store", book.Name)
	assert.True(t, eng.Ledger.Settings().GSTEnabled)

	// Sales over 7 days: 15750 cash + 7490 UPI
	assertDecimal(t, "23240", bal.InTotal)
	assertDecimal(t, "16100", bal.OutTotal)

	summary := cashbook.Summarize(eng.Ledger.Passbook(book.ID))
	// 12000 at 18% + 3500 at 12%
	assertDecimal(t, "2580", summary.TotalGST)

	daily := eng.Ledger.DailySeries(book.ID, 7, now)
	for _, p := range daily {
		assert.True(t, p.In.IsPositive(), "sales every day, %s", p.Label)
	}
}

func TestScenario_Household(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.api.ApplyScenario("household"))

	eng := s.engine
	book, bal, ok := eng.ActiveBalance()
	require.True(t, ok)
	assertDecimal(t, "40551", bal.Balance)

	budget, ok := eng.Ledger.BudgetStatus(book.ID, now)
	require.True(t, ok)
	assertDecimal(t, "20000", budget.Budget)
	// Every dated entry falls in October 2025
	assertDecimal(t, "24449", budget.Spent)
	assert.True(t, budget.Over)

	savings, ok := eng.Ledger.SavingsProgress(book.ID)
	require.True(t, ok)
	assertDecimal(t, "40551", savings.Saved)
}

func TestScenario_MultiBook(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.api.ApplyScenario("multi-book"))

	eng := s.engine
	require.Equal(t, 3, eng.Books.Len())
	assert.Equal(t, "Goa Trip", eng.Books.Books()[0].Name, "most recent first")

	book, bal, ok := eng.ActiveBalance()
	require.True(t, ok)
	assert.Equal(t, "Home", book.Name)
	assertDecimal(t, "38800", bal.Balance)

	_, ok = eng.Ledger.BudgetStatus(book.ID, now)
	assert.False(t, ok, "budget unset")
}

func TestScenario_ReloadReplacesData(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.api.ApplyScenario("household"))
	require.NoError(t, s.api.ApplyScenario("kirana-shop"))

	assert.Equal(t, 1, s.engine.Books.Len())
	assert.Equal(t, 17, s.engine.Ledger.Len())
	_, ok := s.engine.Ledger.SavingsProgress("")
	assert.False(t, ok, "goal from the previous scenario is cleared")
}

func TestScenario_Unknown(t *testing.T) {
	s := newTestServer(t)
	assert.Error(t, s.api.ApplyScenario("nope"))
}

func TestScenario_API(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios", nil))
	require.Len(t, list, len(scenarios))

	rec := s.do(http.MethodGet, "/api/scenarios/current", nil)
	assert.JSONEq(t, "null", rec.Body.String())

	rec = s.do(http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "multi-book"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := decode[ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "multi-book", current.ID)

	rec = s.do(http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_AllScenariosLoadWithoutError(t *testing.T) {
	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			s := newTestServer(t)
			require.NoError(t, s.api.ApplyScenario(sc.ID))
			_, _, ok := s.engine.ActiveBalance()
			assert.True(t, ok)
		})
	}
}
