// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"inkwell/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"

	// UserIDKey is the context key for the resolved caller identity.
	UserIDKey contextKey = "user_id"

	// UserIDCookieName is the plain cookie consulted when no session
	// cookie is present and the fallback is enabled.
	UserIDCookieName = "user-id"
)

// LoadSession resolves the caller and stores it in the request context.
// The session cookie is tried first; when fallback is true a plain
// user-id cookie is accepted if no session is found. store may be nil, in
// which case only the fallback applies. This middleware does not enforce
// authentication.
func LoadSession(store *session.Store, fallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var data *session.Data
			if store != nil {
				var err error
				data, err = store.Get(ctx, r)
				if err != nil {
					// Treat as unauthenticated.
					slog.Warn("session load failed", "error", err)
				}
			}

			if data != nil {
				ctx = context.WithValue(ctx, SessionKey, data)
				if data.Authenticated() {
					ctx = WithUserID(ctx, data.UserID)
				}
			} else if fallback {
				if c, err := r.Cookie(UserIDCookieName); err == nil && c.Value != "" {
					ctx = WithUserID(ctx, c.Value)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a resolved caller with a JSON 401.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromCtx(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID returns a context carrying the caller identity.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromCtx returns the caller identity, or "" when none was resolved.
func UserIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded. A session may be present while
// UserIDFromCtx is empty, when the authenticator step is outstanding.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
