package healthcheck_test

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"reverseproxy-lb/internal/balancer"
	"reverseproxy-lb/internal/healthcheck"
	"reverseproxy-lb/internal/httpclient"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// TestRunCycle_AllHealthy verifies that a cycle where every target answers
// 200 replaces the healthy set with the full configured list, in order.
func TestRunCycle_AllHealthy(t *testing.T) {
	a := mustURL(t, "http://a")
	b := mustURL(t, "http://b")

	client := &httpclient.Fake{
		ExecuteFunc: func(ctx context.Context, req *http.Request) (*httpclient.Response, error) {
			return &httpclient.Response{StatusCode: http.StatusOK}, nil
		},
	}

	set := balancer.NewHealthySet(nil)
	checker := healthcheck.New([]*url.URL{a, b}, "/health", 5*time.Millisecond, client, set, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	checker.Run(ctx)

	got := set.Snapshot()
	require.Len(t, got, 2)
	require.Equal(t, a.String(), got[0].String())
	require.Equal(t, b.String(), got[1].String())
}

// TestRunCycle_PartialFailure verifies that a target answering non-200 is
// excluded while order among survivors is preserved.
func TestRunCycle_PartialFailure(t *testing.T) {
	a := mustURL(t, "http://a")
	b := mustURL(t, "http://b")

	client := &httpclient.Fake{
		ExecuteFunc: func(ctx context.Context, req *http.Request) (*httpclient.Response, error) {
			if req.URL.Host == "b" {
				return &httpclient.Response{StatusCode: http.StatusServiceUnavailable}, nil
			}
			return &httpclient.Response{StatusCode: http.StatusOK}, nil
		},
	}

	set := balancer.NewHealthySet([]*url.URL{a, b})
	checker := healthcheck.New([]*url.URL{a, b}, "/health", 5*time.Millisecond, client, set, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	checker.Run(ctx)

	got := set.Snapshot()
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].Host)
}

// TestRunCycle_NetworkErrorExcludesTarget verifies a transport error during
// a probe excludes that target without being fatal to the loop.
func TestRunCycle_NetworkErrorExcludesTarget(t *testing.T) {
	a := mustURL(t, "http://a")
	var calls int64

	client := &httpclient.Fake{
		ExecuteFunc: func(ctx context.Context, req *http.Request) (*httpclient.Response, error) {
			atomic.AddInt64(&calls, 1)
			return nil, &httpclient.Error{Kind: httpclient.KindNetwork, Message: "connection refused"}
		},
	}

	set := balancer.NewHealthySet([]*url.URL{a})
	checker := healthcheck.New([]*url.URL{a}, "/health", 5*time.Millisecond, client, set, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	checker.Run(ctx)

	require.Empty(t, set.Snapshot())
	require.Greater(t, atomic.LoadInt64(&calls), int64(0))
}

// TestRunCycle_EmptyConfiguredList verifies an empty configured list is a
// documented no-op, not an error: the healthy set is left untouched.
func TestRunCycle_EmptyConfiguredList(t *testing.T) {
	set := balancer.NewHealthySet(nil)
	checker := healthcheck.New(nil, "/health", 5*time.Millisecond, &httpclient.Fake{}, set, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	checker.Run(ctx)

	require.Empty(t, set.Snapshot())
}
