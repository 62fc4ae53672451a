package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/chat"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/timeutil"
)

type eventRequest struct {
	CalendarID  *int64  `json:"calendar_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	loc := userLocation(r)
	var filter database.EventFilter

	if filter.CalendarID, err = queryInt64(r, "calendar_id"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.From, err = parseOptionalTime(r.URL.Query().Get("from"), loc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid from")
		return
	}
	if filter.To, err = parseOptionalTime(r.URL.Query().Get("to"), loc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid to")
		return
	}

	events, err := s.db.ListEventsForUser(userID, filter)
	if err != nil {
		respondStoreError(w, err, "events")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	loc := userLocation(r)
	start, err := timeutil.ParseDateTime(req.StartTime, loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	end := start.Add(time.Hour)
	if req.EndTime != "" {
		if end, err = timeutil.ParseDateTime(req.EndTime, loc); err != nil {
			respondError(w, http.StatusBadRequest, "invalid end_time")
			return
		}
	}

	calendar, err := s.resolveChatCalendar(userID, req.CalendarID)
	if err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	event := &database.Event{
		CalendarID: calendar.ID,
		CreatedBy:  &userID,
		StartTime:  start,
		EndTime:    end,
		Source:     database.EventSourceManual,
	}
	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}

	created, err := s.db.CreateEvent(event)
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}
	s.mirrorCreated(r.Context(), created)

	respondJSON(w, http.StatusCreated, created)
}

// handleCollaboratorCreateEvent is the create endpoint spoken by RemoteMaterializer
// POST /event
// Body: { "title", "description", "startTime", "endTime", "calendarId" }
func (s *Server) handleCollaboratorCreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		StartTime   string `json:"startTime"`
		EndTime     string `json:"endTime"`
		CalendarID  int64  `json:"calendarId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	loc := userLocation(r)
	start, err := timeutil.ParseDateTime(req.StartTime, loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid startTime")
		return
	}
	end, err := timeutil.ParseDateTime(req.EndTime, loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid endTime")
		return
	}

	if _, err := s.db.GetCalendarForUser(userID, req.CalendarID); err != nil {
		respondStoreError(w, err, "calendar")
		return
	}

	created, err := s.db.CreateEvent(&database.Event{
		CalendarID:  req.CalendarID,
		CreatedBy:   &userID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		Source:      database.EventSourceChat,
	})
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}
	s.mirrorCreated(r.Context(), created)

	respondJSON(w, http.StatusCreated, chat.PersistedEvent{
		ID:          created.ID,
		CalendarID:  created.CalendarID,
		Title:       created.Title,
		Description: created.Description,
		StartTime:   timeutil.FormatStated(start),
		EndTime:     timeutil.FormatStated(end),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
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

	event, err := s.db.GetEventForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// handleUpdateEvent applies a partial update; drag and resize send only start/end
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
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

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	loc := userLocation(r)
	update := database.EventUpdate{Description: req.Description}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		update.Title = &title
	}
	if update.StartTime, err = parseOptionalTime(req.StartTime, loc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	if update.EndTime, err = parseOptionalTime(req.EndTime, loc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_time")
		return
	}

	updated, err := s.db.UpdateEventForUser(userID, id, update)
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}

	if s.mirror != nil {
		if err := s.mirror.UpdateMirroredEvent(r.Context(), updated); err != nil {
			s.logger.Warn("failed to update mirrored event", "event_id", updated.ID, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
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

	event, err := s.db.GetEventForUser(userID, id)
	if err != nil {
		respondStoreError(w, err, "event")
		return
	}

	if err := s.db.DeleteEventForUser(userID, id); err != nil {
		respondStoreError(w, err, "event")
		return
	}

	if s.mirror != nil {
		if err := s.mirror.RemoveMirroredEvent(r.Context(), event); err != nil {
			s.logger.Warn("failed to remove mirrored event", "event_id", id, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// mirrorCreated copies a new event to Google Calendar when the calendar is linked.
func (s *Server) mirrorCreated(ctx context.Context, event *database.Event) {
	if s.mirror == nil {
		return
	}
	googleID, err := s.mirror.MirrorEvent(ctx, event)
	if err != nil {
		s.logger.Warn("failed to mirror event", "event_id", event.ID, "error", err)
		return
	}
	if googleID == "" {
		return
	}
	if err := s.db.SetEventGoogleID(event.ID, googleID); err != nil {
		s.logger.Warn("failed to record mirrored event id", "event_id", event.ID, "error", err)
		return
	}
	event.GoogleEventID = &googleID
}
