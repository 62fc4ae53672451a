package server

import (
	"net/http"
)

func (s *Server) handleGCalStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"connected": false,
		"message":   "Google Calendar client not initialized. Check credentials.json and run `planit gcal-auth`.",
	}

	if s.gcalClient.IsAuthenticated() {
		status["connected"] = true
		status["message"] = "Connected"
		status["mirroring"] = s.mirror != nil
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleGCalListCalendars(w http.ResponseWriter, r *http.Request) {
	if !s.gcalClient.IsAuthenticated() {
		respondError(w, http.StatusServiceUnavailable, "Google Calendar not connected")
		return
	}

	calendars, err := s.gcalClient.ListCalendars(r.Context())
	if err != nil {
		s.logger.Error("failed to list google calendars", "error", err)
		respondError(w, http.StatusBadGateway, "failed to list Google calendars")
		return
	}

	respondJSON(w, http.StatusOK, calendars)
}
