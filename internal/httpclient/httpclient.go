// Package httpclient is the outbound HTTP capability shared by the proxy
// dispatch path and the health checker. It is a capability, not a concrete
// type: callers depend only on the Client interface so tests can substitute
// a programmable double.
package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"
)

// Response is the translated result of a successful Execute call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Kind tags the taxonomy of ProxyError / ProxyError at the client boundary.
type Kind int

const (
	// KindTimeout means the outbound call exceeded its deadline.
	KindTimeout Kind = iota
	// KindNetwork means a connect failure or other transport-level failure.
	KindNetwork
	// KindInvalidRequest means the request itself could not be issued.
	KindInvalidRequest
)

// Error is the tagged error type returned by Execute. No other kinds exist
// at this layer.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network error: " + e.Message
	default:
		return "invalid request: " + e.Message
	}
}

// IsTimeout reports whether err is a Timeout-kind Error.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsNetwork reports whether err is a Network-kind Error.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsInvalidRequest reports whether err is an InvalidRequest-kind Error.
func IsInvalidRequest(err error) bool { return kindOf(err) == KindInvalidRequest }

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return -1
}

// Client is the outbound HTTP capability: given a request, return a
// translated response or a typed Error. Implementations must apply the
// timeout carried by the request's context.
type Client interface {
	Execute(ctx context.Context, req *http.Request) (*Response, error)
}

// StdClient adapts net/http's Transport to the Client capability. One
// instance is shared by the proxy dispatch path and the health checker;
// each caller supplies its own per-call deadline via context.
type StdClient struct {
	transport *http.Transport
}

// New builds a StdClient with pooled, keep-alive connections tuned for a
// reverse proxy under sustained fan-out to a small set of upstreams.
func New() *StdClient {
	return &StdClient{
		transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Execute issues req (which must already carry its deadline in ctx) and
// translates the outcome. Transport errors are mapped to the Error
// taxonomy: a context deadline or transport timeout becomes KindTimeout,
// a connection/dial failure becomes KindNetwork, anything else
// (malformed request, unsupported scheme) becomes KindInvalidRequest.
// Non-UTF-8 response header values are dropped silently; every other
// header is forwarded with a lowercased name.
func (c *StdClient) Execute(ctx context.Context, req *http.Request) (*Response, error) {
	req = req.WithContext(ctx)

	resp, err := c.transport.RoundTrip(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     sanitizeHeaders(resp.Header),
		Body:       body,
	}, nil
}

// classify maps a transport-layer failure onto the Error taxonomy the way
// the original proxy's HTTP client does: timeout first, then
// connect/network, everything else is treated as an invalid request.
func classify(ctx context.Context, err error) *Error {
	if ctx.Err() == context.DeadlineExceeded {
		return &Error{Kind: KindTimeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	return &Error{Kind: KindInvalidRequest, Message: err.Error()}
}

// sanitizeHeaders lowercases header names on emission and drops any value
// that is not valid UTF-8, per the client contract.
func sanitizeHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		lname := lowerHeaderName(name)
		for _, v := range values {
			if !utf8.ValidString(v) {
				continue
			}
			out[lname] = append(out[lname], v)
		}
	}
	return out
}

func lowerHeaderName(name string) string {
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
