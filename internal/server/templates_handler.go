package server

import (
	"net/http"

	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/ical"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	templates, err := s.db.ListTemplates(userID)
	if err != nil {
		respondStoreError(w, err, "templates")
		return
	}

	respondJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Name            string `json:"name"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		DurationMinutes int    `json:"duration_minutes"`
		RRule           string `json:"rrule"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.DurationMinutes < 0 {
		respondError(w, http.StatusBadRequest, "duration_minutes cannot be negative")
		return
	}
	if err := ical.ValidateRRule(req.RRule); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := s.db.CreateTemplate(&database.Template{
		UserID:          userID,
		Name:            req.Name,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		RRule:           req.RRule,
	})
	if err != nil {
		respondStoreError(w, err, "template")
		return
	}

	respondJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
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

	if err := s.db.DeleteTemplate(userID, id); err != nil {
		respondStoreError(w, err, "template")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleApplyTemplate materializes template occurrences as events
// POST /api/templates/{id}/apply
// Body: { "calendar_id": 1, "start": "2025-06-06T18:00:00", "count": 4 }
func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		CalendarID *int64 `json:"calendar_id"`
		Start      string `json:"start"`
		Count      int    `json:"count"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	start, err := parseDay(req.Start, userLocation(r))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start")
		return
	}

	tpl, err := s.db.GetTemplate(userID, id)
	if err != nil {
		respondStoreError(w, err, "template")
		return
	}

	calendar, err := s.resolveChatCalendar(userID, req.CalendarID)
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	occurrences, err := ical.ExpandTemplate(tpl, start, req.Count)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created := make([]*database.Event, 0, len(occurrences))
	for _, occ := range occurrences {
		event, err := s.db.CreateEvent(&database.Event{
			CalendarID:  calendar.ID,
			CreatedBy:   &userID,
			Title:       tpl.Title,
			Description: tpl.Description,
			StartTime:   occ.Start,
			EndTime:     occ.End,
			Source:      database.EventSourceTemplate,
		})
		if err != nil {
			respondStoreError(w, err, "event")
			return
		}
		s.mirrorCreated(r.Context(), event)
		created = append(created, event)
	}

	respondJSON(w, http.StatusCreated, created)
}
