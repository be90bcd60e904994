// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// SessionKey is the context key for the authenticated session
	SessionKey ContextKey = "session"
	// TokenKey is the context key for the auth token
	TokenKey ContextKey = "token"
)

// Middleware provides HTTP middleware for authentication
type Middleware struct {
	provider Provider
	logger   *zap.Logger
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(provider Provider, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{
		provider: provider,
		logger:   logger,
	}
}

// RequireAuth is middleware that validates authentication tokens
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			writeUnauthorized(w, "missing token")
			return
		}

		session, err := m.provider.GetSession(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				m.logger.Warn("session lookup failed", zap.Error(err))
			}
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// OptionalAuth is middleware that extracts auth if present, but doesn't require it
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := ExtractToken(r); token != "" {
			if session, err := m.provider.GetSession(r.Context(), token); err == nil {
				r = r.WithContext(WithSession(r.Context(), session))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractToken extracts the bearer token from the Authorization header,
// falling back to the access_token query parameter for WebSocket clients.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	return r.URL.Query().Get("access_token")
}

// SessionFromContext extracts the session from request context
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(SessionKey).(*Session)
	return session, ok && session != nil
}

// UserIDFromContext extracts the user ID from request context
func UserIDFromContext(ctx context.Context) (string, bool) {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return "", false
	}
	return session.UserID, session.UserID != ""
}

// GetTokenFromContext extracts the token from request context
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// WithSession adds a session and its access token to a context
func WithSession(ctx context.Context, session *Session) context.Context {
	ctx = context.WithValue(ctx, SessionKey, session)
	return context.WithValue(ctx, TokenKey, session.AccessToken)
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized: " + msg})
}
