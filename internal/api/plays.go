package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"playbook/internal/auth"
	"playbook/internal/store"
	"playbook/internal/tags"
)

// Tag parsing failures.
var (
	ErrTagsNotArray = errors.New("tags must be an array")
	ErrTagsBadJSON  = errors.New("invalid JSON format for tags")
)

type createPlayRequest struct {
	URL       string          `json:"url"`
	Formation string          `json:"formation"`
	Type      string          `json:"type"`
	Tags      json.RawMessage `json:"tags"`
	Caption   string          `json:"caption"`
}

// ParseTags accepts a JSON array of strings or a JSON string holding one.
// Absent or null tags yield nil.
func ParseTags(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var encoded string
		if err := json.Unmarshal([]byte(trimmed), &encoded); err != nil {
			return nil, ErrTagsBadJSON
		}
		if strings.TrimSpace(encoded) == "" {
			return nil, nil
		}
		var inner any
		if err := json.Unmarshal([]byte(encoded), &inner); err != nil {
			return nil, ErrTagsBadJSON
		}
		trimmed = encoded
	}

	var out []string
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, ErrTagsNotArray
	}
	return out, nil
}

func (s *Server) createPlay(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())

	var req createPlayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" || req.Formation == "" || req.Type == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	callerTags, err := ParseTags(req.Tags)
	switch {
	case errors.Is(err, ErrTagsBadJSON):
		writeMessage(w, http.StatusBadRequest, "Invalid JSON format for tags")
		return
	case err != nil:
		writeMessage(w, http.StatusBadRequest, "Tags must be an array")
		return
	}

	// A started ingestion runs to completion even if the client goes away;
	// the service's own timeout bounds it.
	res, err := s.ingester.Ingest(context.WithoutCancel(r.Context()), req.URL, "")
	if err != nil {
		writeError(w, s.log, "Error adding play", err)
		return
	}

	play, err := s.store.CreatePlay(r.Context(), store.Play{
		VideoURL:    res.URL,
		StorageKey:  res.Key,
		Source:      req.URL,
		SourceType:  "link",
		Formation:   req.Formation,
		PlayType:    req.Type,
		Tags:        tags.Resolve(s.tagPolicy, callerTags, req.Caption),
		SubmittedBy: u.ID,
	})
	if err != nil {
		s.discardIngested(res.Key)
		writeError(w, s.log, "Error adding play", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Play added successfully",
		"play":    play,
	})
}

// discardIngested removes an ingested video whose play was never stored.
func (s *Server) discardIngested(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.ingester.Discard(ctx, key); err != nil {
		s.log.WithField("key", key).WithError(err).Warn("orphaned ingested video")
	}
}

func (s *Server) listPlays(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	plays, err := s.store.ListPlays(r.Context(), u.ID, store.Filter{
		Formation: q.Get("formation"),
		PlayType:  q.Get("play_type"),
	})
	if err != nil {
		writeError(w, s.log, "Error getting plays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Plays retrieved successfully",
		"plays":   plays,
	})
}

func (s *Server) getPlay(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	id, ok := pathID(w, r, "id", "Invalid ID")
	if !ok {
		return
	}

	play, err := s.store.GetPlay(r.Context(), u.ID, id)
	if err != nil {
		writeError(w, s.log, "Error getting play", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Play got successfully",
		"play":    play,
	})
}

// pathID parses a positive integer URL parameter, answering 400 with msg
// when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, param, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, msg)
		return 0, false
	}
	return id, true
}
