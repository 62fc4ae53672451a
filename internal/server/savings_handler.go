package server

import (
	"net/http"
	"strings"

	"github.com/omriShneor/planit/internal/database"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	planID, err := queryInt64(r, "plan_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.db.ListTransactions(userID, planID)
	if err != nil {
		respondStoreError(w, err, "transactions")
		return
	}

	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		PlanID      *int64 `json:"plan_id"`
		Kind        string `json:"kind"`
		AmountCents int64  `json:"amount_cents"`
		Note        string `json:"note"`
		OccurredAt  string `json:"occurred_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tx := &database.Transaction{
		UserID:      userID,
		PlanID:      req.PlanID,
		Kind:        database.TransactionKind(strings.ToLower(req.Kind)),
		AmountCents: req.AmountCents,
		Note:        req.Note,
	}
	if req.OccurredAt != "" {
		occurred, err := parseDay(req.OccurredAt, userLocation(r))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid occurred_at")
			return
		}
		tx.OccurredAt = occurred
	}

	created, err := s.db.CreateTransaction(tx)
	if err != nil {
		respondStoreError(w, err, "transaction")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSavingsSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	summary, err := s.db.GetSavingsSummary(userID)
	if err != nil {
		respondStoreError(w, err, "summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := s.db.DeleteTransaction(userID, id); err != nil {
		respondStoreError(w, err, "transaction")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
