package server

import (
	"net/http"

	"github.com/omriShneor/planit/internal/database"
)

type planRequest struct {
	GroupID     *int64  `json:"group_id"`
	Title       *string `json:"title"`
	Celebrant   *string `json:"celebrant"`
	PlanDate    *string `json:"plan_date"`
	BudgetCents *int64  `json:"budget_cents"`
	Notes       *string `json:"notes"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	plans, err := s.db.ListPlansForUser(userID)
	if err != nil {
		respondStoreError(w, err, "plans")
		return
	}

	respondJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PlanDate == nil {
		respondError(w, http.StatusBadRequest, "plan_date is required")
		return
	}
	planDate, err := parseDay(*req.PlanDate, userLocation(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan_date")
		return
	}

	plan, err := s.db.CreatePlan(&database.CelebrationPlan{
		UserID:      userID,
		GroupID:     req.GroupID,
		Title:       deref(req.Title),
		Celebrant:   deref(req.Celebrant),
		PlanDate:    planDate,
		BudgetCents: deref(req.BudgetCents),
		Notes:       deref(req.Notes),
	})
	if err != nil {
		respondStoreError(w, err, "plan")
		return
	}

	respondJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
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

	plan, err := s.db.GetPlanForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
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

	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	update := database.PlanUpdate{
		Title:       req.Title,
		Celebrant:   req.Celebrant,
		BudgetCents: req.BudgetCents,
		Notes:       req.Notes,
	}
	if req.PlanDate != nil {
		planDate, err := parseDay(*req.PlanDate, userLocation(r))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid plan_date")
			return
		}
		update.PlanDate = &planDate
	}

	plan, err := s.db.UpdatePlanForUser(userID, id, update)
	if err != nil {
		respondStoreError(w, err, "plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
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

	if err := s.db.DeletePlanForUser(userID, id); err != nil {
		respondStoreError(w, err, "plan")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
