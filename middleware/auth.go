// Package middleware holds the HTTP wrappers shared by every route: bearer-token
// authentication, access logging and request metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/models"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type contextKey int

const userKey contextKey = iota

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type Auth struct {
	Authenticator Authenticator
	Log           logger.Logger
}

func NewAuth(a Authenticator, log logger.Logger) *Auth {
	return &Auth{Authenticator: a, Log: log}
}

// Require rejects requests without a valid token with 401.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Please authenticate")
			return
		}
		user, err := a.Authenticator.Authenticate(r.Context(), token)
		if err != nil {
			status, msg := http.StatusUnauthorized, "Please authenticate"
			if se, ok := apperrors.As(err); ok && se.Status >= http.StatusInternalServerError {
				a.Log.WithError(err).Error("authentication lookup failed", map[string]interface{}{"path": r.URL.Path})
				status, msg = se.Status, se.Message
			}
			writeError(w, status, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Optional attaches the user when a valid token is present and otherwise lets the
// request through anonymously.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := BearerToken(r); token != "" {
			if user, err := a.Authenticator.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireFunc and OptionalFunc adapt the wrappers for mux HandleFunc registrations.
func (a *Auth) RequireFunc(h http.HandlerFunc) http.Handler  { return a.Require(h) }
func (a *Auth) OptionalFunc(h http.HandlerFunc) http.Handler { return a.Optional(h) }

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
