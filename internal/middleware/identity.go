// Package middleware provides HTTP middleware for placerec.
package middleware

import (
	"context"
	"net/http"
)

// contextKey is a private type for context keys.
type contextKey string

const clientIDKey contextKey = "client_id"

// ClientIDFromContext extracts the calling client's id from the request context.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientIDKey).(string); ok {
		return v
	}
	return ""
}

// ClientIdentity reads X-Client-ID and injects it into the request context.
// Callers without one (browsers, curl) are grouped as "anonymous"; the backend
// integration sends its service name so audit entries stay attributable.
func ClientIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := r.Header.Get("X-Client-ID")
			if clientID == "" {
				clientID = "anonymous"
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
