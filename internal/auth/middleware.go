package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"playbook/internal/store"
)

// UserGetter loads the account a token refers to.
type UserGetter interface {
	GetUser(ctx context.Context, id int64) (*store.User, error)
}

type contextKey int

const userKey contextKey = iota

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*store.User, bool) {
	u, ok := ctx.Value(userKey).(*store.User)
	return u, ok && u != nil
}

// Middleware requires a valid bearer token and loads its user into the
// request context.
func Middleware(issuer *Issuer, users UserGetter, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				deny(w, http.StatusUnauthorized, "Authorization header missing or malformed")
				return
			}

			claims, err := issuer.Parse(strings.TrimSpace(token))
			switch {
			case errors.Is(err, ErrTokenExpired):
				deny(w, http.StatusUnauthorized, "Token expired")
				return
			case err != nil:
				log.WithError(err).Debug("rejected token")
				deny(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			u, err := users.GetUser(r.Context(), claims.UserID)
			if err != nil {
				var nf *store.NotFoundError
				if errors.As(err, &nf) {
					deny(w, http.StatusNotFound, "User not found")
					return
				}
				log.WithError(err).Error("load token user")
				deny(w, http.StatusInternalServerError, "Server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
