package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"playbook/internal/media"
	"playbook/internal/store"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// statusFromError maps domain errors to HTTP status codes.
func statusFromError(err error) int {
	var (
		invalidURL  *media.InvalidURLError
		unsupported *media.UnsupportedPlatformError
		notFound    *store.NotFoundError
		conflict    *store.ConflictError
	)

	switch {
	case errors.As(err, &invalidURL), errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with {"message": msg, "error": err} using the status
// err maps to. Server-side failures are logged.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, msg string, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error(msg)
	}
	writeJSON(w, status, map[string]string{"message": msg, "error": err.Error()})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
}
