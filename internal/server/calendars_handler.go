package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/ical"
)

// maxImportBytes bounds an uploaded .ics body
const maxImportBytes = 2 << 20

func (s *Server) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	// Make sure the default calendar exists before the first listing
	if _, err := s.db.GetOrCreateDefaultCalendar(userID); err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	calendars, err := s.db.ListCalendarsForUser(userID)
	if err != nil {
		respondStoreError(w, err, "calendars")
		return
	}

	respondJSON(w, http.StatusOK, calendars)
}

func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	calendar, err := s.db.CreateCalendar(&database.Calendar{OwnerID: userID, Name: req.Name, Color: req.Color})
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	respondJSON(w, http.StatusCreated, calendar)
}

func (s *Server) handleGetCalendar(w http.ResponseWriter, r *http.Request) {
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

	calendar, err := s.db.GetCalendarForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	respondJSON(w, http.StatusOK, calendar)
}

func (s *Server) handleUpdateCalendar(w http.ResponseWriter, r *http.Request) {
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
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.db.UpdateCalendar(userID, id, req.Name, req.Color); err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	calendar, err := s.db.GetCalendarForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}
	respondJSON(w, http.StatusOK, calendar)
}

func (s *Server) handleDeleteCalendar(w http.ResponseWriter, r *http.Request) {
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

	if err := s.db.DeleteCalendar(userID, id); err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleExportCalendar serves the calendar as an .ics download
// GET /api/calendars/{id}/ics
func (s *Server) handleExportCalendar(w http.ResponseWriter, r *http.Request) {
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

	calendar, err := s.db.GetCalendarForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	events, err := s.db.ListEventsForUser(userID, database.EventFilter{CalendarID: &calendar.ID})
	if err != nil {
		respondStoreError(w, err, "events")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="calendar-%d.ics"`, calendar.ID))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ical.ExportCalendar(calendar, events)))
}

// handleImportCalendar adds every VEVENT of an uploaded .ics body to the calendar
// POST /api/calendars/{id}/import
func (s *Server) handleImportCalendar(w http.ResponseWriter, r *http.Request) {
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

	if _, err := s.db.GetCalendarForUser(userID, id); err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	imported, skipped, err := ical.ParseEvents(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid iCalendar data")
		return
	}

	created := make([]*database.Event, 0, len(imported))
	for _, in := range imported {
		event, err := s.db.CreateEvent(&database.Event{
			CalendarID:  id,
			CreatedBy:   &userID,
			Title:       in.Title,
			Description: in.Description,
			StartTime:   in.Start,
			EndTime:     in.End,
			Source:      database.EventSourceManual,
		})
		if err != nil {
			s.logger.Warn("skipping imported event", "calendar_id", id, "title", in.Title, "error", err)
			skipped++
			continue
		}
		created = append(created, event)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events":  created,
		"created": len(created),
		"skipped": skipped,
	})
}

// handleLinkGoogleCalendar sets or clears the Google calendar events are mirrored to
// PUT /api/calendars/{id}/google
// Body: { "google_calendar_id": "primary" } ("" unlinks)
func (s *Server) handleLinkGoogleCalendar(w http.ResponseWriter, r *http.Request) {
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
		GoogleCalendarID string `json:"google_calendar_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.db.SetCalendarGoogleID(userID, id, strings.TrimSpace(req.GoogleCalendarID)); err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	calendar, err := s.db.GetCalendarForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}
	respondJSON(w, http.StatusOK, calendar)
}
