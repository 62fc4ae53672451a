package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/omriShneor/planit/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlansHandlers(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	w := env.do(t, http.MethodPost, "/api/plans", map[string]any{"title": "No date"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/plans", map[string]any{
		"title":        "Grandpa's 80th",
		"celebrant":    "Grandpa",
		"plan_date":    "2025-09-14",
		"budget_cents": 40000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	plan := decodeBody[database.CelebrationPlan](t, w)
	assert.Equal(t, "Grandpa", plan.Celebrant)

	path := fmt.Sprintf("/api/plans/%d", plan.ID)

	w = env.do(t, http.MethodPut, path, map[string]any{"notes": "book the hall", "budget_cents": 45000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[database.CelebrationPlan](t, w)
	assert.Equal(t, "book the hall", updated.Notes)
	assert.Equal(t, int64(45000), updated.BudgetCents)
	assert.Equal(t, "Grandpa's 80th", updated.Title)

	w = env.do(t, http.MethodPut, path, map[string]any{"budget_cents": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, otherToken := env.newUser(t)
	w = env.doAs(t, otherToken, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]database.CelebrationPlan](t, w), 1)

	w = env.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavingsHandlers(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	plan, err := env.db.CreatePlan(&database.CelebrationPlan{UserID: env.user.ID, Title: "Trip", PlanDate: fixedNow.AddDate(0, 2, 0)})
	require.NoError(t, err)

	for _, body := range []map[string]any{
		{"plan_id": plan.ID, "kind": "Deposit", "amount_cents": 5000, "occurred_at": "2025-03-01"},
		{"plan_id": plan.ID, "kind": "withdrawal", "amount_cents": 1200},
		{"kind": "deposit", "amount_cents": 300},
	} {
		w := env.do(t, http.MethodPost, "/api/transactions", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(t, http.MethodPost, "/api/transactions", map[string]any{"kind": "refund", "amount_cents": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/api/transactions", map[string]any{"kind": "deposit", "amount_cents": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/transactions/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody[database.SavingsSummary](t, w)
	assert.Equal(t, int64(5300), summary.DepositsCents)
	assert.Equal(t, int64(1200), summary.WithdrawalsCents)
	assert.Equal(t, int64(4100), summary.BalanceCents)
	assert.Equal(t, 3, summary.Count)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/transactions?plan_id=%d", plan.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	txs := decodeBody[[]database.Transaction](t, w)
	require.Len(t, txs, 2)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/plans/%d", plan.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3800), decodeBody[database.CelebrationPlan](t, w).SavedCents)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txs[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txs[0].ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
