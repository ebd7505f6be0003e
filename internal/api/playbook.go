package api

import (
	"net/http"

	"playbook/internal/auth"
	"playbook/internal/store"
)

type savePlayRequest struct {
	PlayID int64 `json:"play_id"`
}

func (s *Server) savePlay(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req savePlayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayID <= 0 {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	entry, err := s.store.SavePlay(r.Context(), u.ID, req.PlayID)
	if err != nil {
		writeError(w, s.log, "Error adding play to book", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Play added to book successfully",
		"playBook": entry,
	})
}

func (s *Server) listPlaybook(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	book, err := s.store.ListPlaybook(r.Context(), u.ID, store.Filter{
		Formation: q.Get("formation"),
		PlayType:  q.Get("playType"),
	})
	if err != nil {
		writeError(w, s.log, "Error getting play book", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Play book retrieved successfully",
		"playBook": book,
	})
}
