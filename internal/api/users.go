package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"playbook/internal/auth"
	"playbook/internal/store"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func viewOf(u *store.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		writeError(w, s.log, "Error registering user", err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			writeMessage(w, http.StatusConflict, "Email already in use")
			return
		}
		writeError(w, s.log, "Error registering user", err)
		return
	}

	token, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		writeError(w, s.log, "Error registering user", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    viewOf(u),
		"token":   token,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		var nf *store.NotFoundError
		if errors.As(err, &nf) {
			writeMessage(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		writeError(w, s.log, "Error logging in", err)
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Authentication failed")
		return
	}

	token, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		writeError(w, s.log, "Error logging in", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Authentication successful",
		"user":    viewOf(u),
		"token":   token,
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Blank fields keep their current value.
	username := lo.CoalesceOrEmpty(strings.TrimSpace(req.Username), u.Username)
	email := lo.CoalesceOrEmpty(strings.ToLower(strings.TrimSpace(req.Email)), u.Email)

	updated, err := s.store.UpdateUser(r.Context(), u.ID, username, email)
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			writeMessage(w, http.StatusConflict, "Email already in use")
			return
		}
		writeError(w, s.log, "Error updating profile", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

func (s *Server) updatePassword(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		writeError(w, s.log, "Error updating password", err)
		return
	}
	if err := s.store.UpdatePassword(r.Context(), u.ID, hash); err != nil {
		writeError(w, s.log, "Error updating password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}
