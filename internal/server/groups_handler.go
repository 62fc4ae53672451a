package server

import (
	"net/http"

	"github.com/skip2/go-qrcode"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	groups, err := s.db.ListGroupsForUser(userID)
	if err != nil {
		respondStoreError(w, err, "groups")
		return
	}

	respondJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	group, err := s.db.CreateGroup(userID, req.Name, req.Description)
	if err != nil {
		respondStoreError(w, err, "group")
		return
	}

	respondJSON(w, http.StatusCreated, group)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
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

	group, err := s.db.GetGroupForMember(userID, id)
	if err != nil {
		respondStoreError(w, err, "group")
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// handleJoinGroup adds the caller to the group with the given invite code
// POST /api/groups/join
// Body: { "invite_code": "..." }
func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.InviteCode == "" {
		respondError(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	group, err := s.db.JoinGroupByInviteCode(userID, req.InviteCode)
	if err != nil {
		respondStoreError(w, err, "group")
		return
	}

	respondJSON(w, http.StatusOK, group)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
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

	if err := s.db.RemoveGroupMember(userID, id, userID); err != nil {
		respondStoreError(w, err, "group")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *Server) handleRemoveGroupMember(w http.ResponseWriter, r *http.Request) {
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
	memberID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := s.db.RemoveGroupMember(userID, id, memberID); err != nil {
		respondStoreError(w, err, "group member")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
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

	if err := s.db.DeleteGroup(userID, id); err != nil {
		respondStoreError(w, err, "group")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGroupInviteQR renders the group's join link as a PNG QR code
// GET /api/groups/{id}/invite.png
func (s *Server) handleGroupInviteQR(w http.ResponseWriter, r *http.Request) {
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

	group, err := s.db.GetGroupForMember(userID, id)
	if err != nil {
		respondStoreError(w, err, "group")
		return
	}

	png, err := qrcode.Encode(s.inviteURL(group.InviteCode), qrcode.Medium, 512)
	if err != nil {
		s.logger.Error("failed to render invite QR", "group_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) inviteURL(code string) string {
	return s.appURL + "/join/" + code
}
