package proxy

import "net/http"

// HealthEndpoint answers liveness checks against the balancer itself. It is
// intentionally unconditional and says nothing about upstream health.
func HealthEndpoint(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("PONG"))
}
