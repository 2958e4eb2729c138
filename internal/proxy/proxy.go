// Package proxy implements the per-request pipeline: select a live target,
// translate the inbound request, dispatch it, and translate the response (or
// error) back to the caller.
package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"reverseproxy-lb/internal/balancer"
	"reverseproxy-lb/internal/httpclient"
	"reverseproxy-lb/internal/metrics"
	"reverseproxy-lb/internal/middleware"
)

// RequestTimeout bounds every dispatched upstream call.
const RequestTimeout = 30 * time.Second

var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
	http.MethodPatch:  {},
}

// Handler is the balancer's reverse-proxy entry point. It holds no per-request
// state; concurrent calls share the Selector and Client by reference.
type Handler struct {
	selector balancer.Selector
	client   httpclient.Client
	log      zerolog.Logger
}

// New builds a Handler over the given Selector and Client.
func New(selector balancer.Selector, client httpclient.Client, log zerolog.Logger) *Handler {
	return &Handler{selector: selector, client: client, log: log.With().Str("component", "proxy").Logger()}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.RequestIDFromContext(r.Context())

	target, err := h.selector.Select()
	if err != nil {
		if errors.Is(err, balancer.ErrNoHealthyTargets) {
			h.log.Warn().Str("request_id", requestID).Str("path", r.URL.Path).Msg("no healthy targets")
			h.respondPlain(w, r, start, http.StatusServiceUnavailable, "no healthy upstream targets")
			return
		}
		h.log.Error().Str("request_id", requestID).Err(err).Msg("selector failure")
		h.respondPlain(w, r, start, http.StatusInternalServerError, "selector failure")
		return
	}

	if _, ok := supportedMethods[r.Method]; !ok {
		h.respondPlain(w, r, start, http.StatusInternalServerError, "unsupported method")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error().Str("request_id", requestID).Err(err).Msg("could not buffer inbound body")
		h.respondPlain(w, r, start, http.StatusInternalServerError, "could not read request body")
		return
	}

	upstreamURL := target.String() + r.URL.RequestURI()
	outbound, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL, newReader(body))
	if err != nil {
		h.log.Error().Str("request_id", requestID).Err(err).Msg("could not build outbound request")
		h.respondPlain(w, r, start, http.StatusInternalServerError, "could not build outbound request")
		return
	}
	outbound.Header = translateHeaders(r.Header)
	outbound.Header.Set(middleware.HeaderRequestID, requestID)

	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()
	outbound = outbound.WithContext(ctx)

	upstreamStart := time.Now()
	resp, err := h.client.Execute(ctx, outbound)
	upstreamDur := time.Since(upstreamStart)
	if err != nil {
		h.translateError(w, r, start, requestID, target.Host, err)
		return
	}

	metrics.ObserveUpstreamResponse(target.Host, r.Method, resp.StatusCode, upstreamDur)
	h.writeResponse(w, resp)
	metrics.ObserveProxyResponse(r.Method, clampStatus(resp.StatusCode), time.Since(start))
	h.log.Info().Str("request_id", requestID).Str("method", r.Method).Str("target", target.Host).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("proxied request")
}

func (h *Handler) translateError(w http.ResponseWriter, r *http.Request, start time.Time, requestID, targetHost string, err error) {
	status := http.StatusBadGateway
	body := "Network error"
	switch {
	case httpclient.IsTimeout(err):
		status = http.StatusGatewayTimeout
		body = "Timeout"
	case httpclient.IsNetwork(err):
		status = http.StatusBadGateway
		body = "Network error"
	case httpclient.IsInvalidRequest(err):
		status = http.StatusBadRequest
		body = "Invalid request"
	}
	h.log.Error().Str("request_id", requestID).Str("target", targetHost).Err(err).Msg(body)
	metrics.ObserveUpstreamResponse(targetHost, r.Method, status, time.Since(start))
	h.respondPlain(w, r, start, status, body)
}

// writeResponse forwards the upstream response headers and body verbatim.
// Headers came out of httpclient already lowercased and UTF-8-filtered; they
// are assigned directly into the response writer's header map to preserve
// that casing rather than going through Set/Add, which would re-canonicalize
// them.
func (h *Handler) writeResponse(w http.ResponseWriter, resp *httpclient.Response) {
	dst := w.Header()
	for k, v := range resp.Header {
		dst[k] = v
	}
	w.WriteHeader(clampStatus(resp.StatusCode))
	_, _ = w.Write(resp.Body)
}

func (h *Handler) respondPlain(w http.ResponseWriter, r *http.Request, start time.Time, status int, body string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
	metrics.ObserveProxyResponse(r.Method, status, time.Since(start))
}

// translateHeaders copies every inbound header whose values are valid UTF-8;
// all others are dropped. Hop-by-hop headers are not stripped, matching the
// pass-through contract this balancer guarantees.
func translateHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if utf8.ValidString(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			dst[k] = kept
		}
	}
	return dst
}

// clampStatus forces an out-of-range upstream status into a valid HTTP range,
// falling back to 200 rather than propagating a malformed status line.
func clampStatus(status int) int {
	if status < 100 || status > 599 {
		return http.StatusOK
	}
	return status
}

func newReader(body []byte) io.Reader {
	if len(body) == 0 {
		return nil
	}
	return &byteReader{data: body}
}

// byteReader is a minimal io.Reader over an in-memory buffer, used to avoid
// retaining the inbound request's original body reader across the selector
// and header-translation steps above.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
