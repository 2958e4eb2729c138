package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"reverseproxy-lb/internal/middleware"
)

func TestRequestID_PreservesInboundHeader(t *testing.T) {
	var seenInHandler string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenInHandler = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("x-request-id", "custom-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, "custom-123", w.Header().Get("x-request-id"))
	require.Equal(t, "custom-123", seenInHandler)
}

func TestRequestID_GeneratesUUIDWhenAbsent(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	got := w.Header().Get("x-request-id")
	require.NotEmpty(t, got)
	require.Len(t, got, 36) // canonical UUID string length
}
