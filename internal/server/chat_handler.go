package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/auth"
	"github.com/omriShneor/planit/internal/chat"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/notify"
)

type chatRequest struct {
	Message    string `json:"message"`
	CalendarID *int64 `json:"calendarId,omitempty"`
}

type chatResponse struct {
	Events  []*chat.PersistedEvent `json:"events"`
	Message string                 `json:"message"`
	Created int                    `json:"created"`
	Skipped int                    `json:"skipped"`
}

// chatFailure is the body of every non-200 chat response.
type chatFailure struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// chatErrorResponse maps a pipeline error onto status and body.
func chatErrorResponse(err error) (int, chatFailure) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, chatFailure{Message: "Please type a message describing your event."}
	case errors.Is(err, chat.ErrConfiguration):
		return http.StatusInternalServerError, chatFailure{
			Message: "The event assistant is not set up on this server.",
			Error:   "Assistant not configured",
		}
	case errors.Is(err, chat.ErrServiceUnreachable):
		return http.StatusServiceUnavailable, chatFailure{
			Message: "The event assistant is temporarily unavailable. Please try again in a moment.",
			Error:   "Service unavailable",
		}
	case errors.Is(err, chat.ErrUnauthorized):
		return http.StatusInternalServerError, chatFailure{
			Message: "The event assistant is misconfigured.",
			Error:   "Invalid API key",
		}
	case errors.Is(err, chat.ErrNoEventsExtracted):
		return http.StatusBadRequest, chatFailure{
			Message: "Sorry, I couldn't understand an event in that message. Try including what, when and what time.",
		}
	case errors.Is(err, chat.ErrEventCreationFailed):
		return http.StatusBadGateway, chatFailure{
			Message: "I understood your message but couldn't save the events. Please try again.",
			Error:   "Event creation failed",
		}
	case errors.Is(err, chat.ErrInvalidModelOutput), errors.Is(err, chat.ErrMalformedProviderResponse):
		return http.StatusInternalServerError, chatFailure{
			Message: "Something went wrong while reading the assistant's answer.",
			Error:   "Invalid assistant response",
		}
	default:
		return http.StatusInternalServerError, chatFailure{
			Message: "Something went wrong while processing your message.",
			Error:   "Extraction failed",
		}
	}
}

func successMessage(created, skipped int) string {
	noun := "events"
	if created == 1 {
		noun = "event"
	}
	msg := fmt.Sprintf("Added %d %s to your calendar.", created, noun)
	if skipped > 0 {
		msg += fmt.Sprintf(" %d could not be added.", skipped)
	}
	return msg
}

// handleChat turns a free-text message into calendar events
// POST /api/events/chat
// Body: { "message": "...", "calendarId": 3 } (calendarId optional)
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, chatFailure{Message: "Invalid request body", Error: "invalid JSON"})
		return
	}

	// Reject before touching calendars
	if strings.TrimSpace(req.Message) == "" {
		status, body := chatErrorResponse(chat.ErrEmptyMessage)
		respondJSON(w, status, body)
		return
	}

	calendar, err := s.resolveChatCalendar(user.ID, req.CalendarID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, chatFailure{Message: "Calendar not found"})
			return
		}
		s.logger.Error("failed to resolve chat calendar", "user_id", user.ID, "error", err)
		respondJSON(w, http.StatusInternalServerError, chatFailure{Message: "Could not load your calendar", Error: "internal error"})
		return
	}

	result, err := s.pipeline.Run(r.Context(), chat.Request{
		UserID:     user.ID,
		CalendarID: calendar.ID,
		Message:    req.Message,
		Timezone:   user.Timezone,
	})
	if err != nil {
		status, body := chatErrorResponse(err)
		s.logger.Warn("chat request failed",
			"request_id", requestIDFromContext(r.Context()),
			"user_id", user.ID,
			"status", status,
			"error", err,
		)
		respondJSON(w, status, body)
		return
	}

	s.notifyChatEvents(r.Context(), user.ID, result.Created)

	respondJSON(w, http.StatusOK, chatResponse{
		Events:  result.Created,
		Message: successMessage(len(result.Created), result.Skipped()),
		Created: len(result.Created),
		Skipped: result.Skipped(),
	})
}

func (s *Server) resolveChatCalendar(userID int64, calendarID *int64) (*database.Calendar, error) {
	if calendarID == nil {
		return s.db.GetOrCreateDefaultCalendar(userID)
	}
	return s.db.GetCalendarForUser(userID, *calendarID)
}

// notifyChatEvents emails the summary in the background; the response never waits on it.
func (s *Server) notifyChatEvents(ctx context.Context, userID int64, created []*chat.PersistedEvent) {
	if s.notifyService == nil || !s.notifyService.IsEmailAvailable() {
		return
	}

	summaries := make([]notify.EventSummary, 0, len(created))
	for _, e := range created {
		start, errStart := time.Parse(time.RFC3339, e.StartTime)
		end, errEnd := time.Parse(time.RFC3339, e.EndTime)
		if errStart != nil || errEnd != nil {
			continue
		}
		summaries = append(summaries, notify.EventSummary{Title: e.Title, Start: start, End: end})
	}

	go s.notifyService.NotifyEventsCreated(context.WithoutCancel(ctx), userID, summaries)
}
