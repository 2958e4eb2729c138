// Package middleware holds cross-cutting HTTP wrappers shared by every
// route the balancer serves.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID is the only header the balancer synthesizes.
const HeaderRequestID = "x-request-id"

type contextKey int

const requestIDKey contextKey = iota

// RequestID wraps next so every inbound request carries a request id: the
// inbound header's value is preserved when present, otherwise a fresh
// UUIDv4 is generated. The id is attached to the outbound response and
// made available to handlers (and logs) via RequestIDFromContext.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request id attached by RequestID, or ""
// if the middleware was not applied.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
