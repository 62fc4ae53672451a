package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/omriShneor/planit/internal/auth"
	"github.com/omriShneor/planit/internal/database"
	"github.com/omriShneor/planit/internal/timeutil"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error encoding JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps database sentinels onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, database.ErrInvalidInput), errors.Is(err, database.ErrInvalidTimeRange):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotGroupOwner):
		respondError(w, http.StatusForbidden, err.Error())
	default:
		slog.Error("store error", "what", what, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func getUserID(r *http.Request) (int64, error) {
	return auth.GetUserID(r.Context())
}

// userLocation is the authenticated user's timezone, UTC when unknown.
func userLocation(r *http.Request) *time.Location {
	user := auth.GetUserFromContext(r.Context())
	if user == nil {
		return time.UTC
	}
	loc, _ := timeutil.ResolveLocation(user.Timezone)
	return loc
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt64 parses an optional positive integer query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, errors.New("invalid " + name)
	}
	return &v, nil
}

// parseOptionalTime parses an RFC3339 or local date-time string in loc; "" yields nil.
func parseOptionalTime(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := timeutil.ParseDateTime(value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	// Check database connectivity
	if err := s.db.PingContext(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	status := map[string]interface{}{
		"status": "healthy",
		"chat":   "disabled",
		"gcal":   "disconnected",
		"email":  "disabled",
	}

	if s.pipeline != nil && s.pipeline.IsConfigured() {
		status["chat"] = "enabled"
	}
	if s.gcalClient.IsAuthenticated() {
		status["gcal"] = "connected"
	}
	if s.notifyService != nil && s.notifyService.IsEmailAvailable() {
		status["email"] = "enabled"
	}

	respondJSON(w, http.StatusOK, status)
}

// Session

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, auth.GetUserFromContext(r.Context()))
}

func (s *Server) handleUpdateTimezone(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		respondError(w, http.StatusBadRequest, "invalid timezone")
		return
	}

	if err := s.db.UpdateUserTimezone(userID, req.Timezone); err != nil {
		respondStoreError(w, err, "user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"timezone": req.Timezone})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authService.Logout(auth.BearerToken(r)); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Notification Preferences API

func (s *Server) handleGetNotificationPrefs(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	prefs, err := s.db.GetNotificationPrefs(userID)
	if err != nil {
		respondStoreError(w, err, "notification preferences")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"preferences": prefs,
		"available": map[string]bool{
			"email": s.notifyService != nil && s.notifyService.IsEmailAvailable(),
		},
	})
}

func (s *Server) handleUpdateEmailPrefs(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Enabled bool   `json:"enabled"`
		Address string `json:"address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := s.db.UpdateEmailPrefs(userID, req.Enabled, strings.TrimSpace(req.Address)); err != nil {
		respondStoreError(w, err, "notification preferences")
		return
	}

	prefs, err := s.db.GetNotificationPrefs(userID)
	if err != nil {
		respondStoreError(w, err, "notification preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}
