// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"kasetinfo/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
	// sessionErrKey marks requests whose session lookup failed.
	sessionErrKey contextKey = "session_err"
)

// SessionLoader resolves a session token. auth.Service satisfies it.
type SessionLoader interface {
	Session(ctx context.Context, token string) (*session.Data, error)
}

// LoadSession resolves the request's session token (bearer header or
// cookie) and stores the session in the request context. It never blocks
// the request: a failed lookup is recorded so SessionLookupFailed can tell
// "no session" apart from "could not check".
func LoadSession(loader SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			data, err := loader.Session(r.Context(), token)
			if err != nil {
				slog.Warn("session lookup failed", "error", err)
				r = r.WithContext(context.WithValue(r.Context(), sessionErrKey, true))
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth answers 401 for requests without a session. A failed
// lookup answers 503 since the caller may well be signed in.
// Must be applied after LoadSession in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			if SessionLookupFailed(r.Context()) {
				writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is present.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// SessionLookupFailed reports whether LoadSession saw a token but could
// not resolve it.
func SessionLookupFailed(ctx context.Context) bool {
	failed, _ := ctx.Value(sessionErrKey).(bool)
	return failed
}
