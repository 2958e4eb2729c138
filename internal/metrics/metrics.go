// Package metrics defines the Prometheus metrics exported by the balancer:
// client-facing proxy outcomes, per-target selection counts, and the live
// healthy-target gauge. All helpers below encapsulate label normalization
// and consistent observation patterns.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// proxyRequestsTotal counts client-facing proxy responses by method and status.
	proxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_requests_total",
			Help: "Total proxy responses by method and status",
		},
		[]string{"method", "status"},
	)
	// proxyReqDuration captures end-to-end proxy latency (client-facing).
	proxyReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxy_request_duration_seconds",
			Help:    "End-to-end proxy request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	// proxyUpstreamRequestsTotal counts upstream responses observed by the proxy, per target host.
	proxyUpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_upstream_requests_total",
			Help: "Total upstream responses observed by the proxy, labeled by target, method and status",
		},
		[]string{"target", "method", "status"},
	)
	// proxyUpstreamReqDuration measures upstream latency from the proxy's perspective, per target.
	proxyUpstreamReqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxy_upstream_request_duration_seconds",
			Help:    "Upstream request duration observed at the proxy by target and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target", "method"},
	)
	// healthyTargets reports the current size of the healthy set.
	healthyTargets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "healthchecker_healthy_targets",
			Help: "Number of targets considered healthy after the most recent probe cycle",
		},
	)
	// healthcheckCycleDuration measures how long one full probe cycle takes.
	healthcheckCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "healthchecker_cycle_duration_seconds",
			Help:    "Duration of one complete health-check cycle over all configured targets",
			Buckets: prometheus.DefBuckets,
		},
	)
	// selectionsTotal counts selections made by the active routing policy, per chosen target.
	selectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selector_selections_total",
			Help: "Total selections made by the routing policy, labeled by policy and chosen target",
		},
		[]string{"policy", "target"},
	)
	// selectorNoHealthyTargetsTotal counts selections that failed because the healthy set was empty.
	selectorNoHealthyTargetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "selector_no_healthy_targets_total",
			Help: "Total selections that failed because no healthy target was available",
		},
	)
)

func init() {
	// MustRegister will panic on programmer errors (e.g., duplicate registration).
	prometheus.MustRegister(
		proxyRequestsTotal,
		proxyReqDuration,
		proxyUpstreamRequestsTotal,
		proxyUpstreamReqDuration,
		healthyTargets,
		healthcheckCycleDuration,
		selectionsTotal,
		selectorNoHealthyTargetsTotal,
	)
}

// ObserveProxyResponse records a client-facing proxy response.
func ObserveProxyResponse(method string, status int, dur time.Duration) {
	proxyRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	proxyReqDuration.WithLabelValues(method).Observe(dur.Seconds())
}

// ObserveUpstreamResponse records the upstream response as seen by the proxy for a given target.
func ObserveUpstreamResponse(target, method string, status int, dur time.Duration) {
	proxyUpstreamRequestsTotal.WithLabelValues(target, method, strconv.Itoa(status)).Inc()
	proxyUpstreamReqDuration.WithLabelValues(target, method).Observe(dur.Seconds())
}

// SetHealthyTargets records the size of the healthy set after a probe cycle.
func SetHealthyTargets(n int) { healthyTargets.Set(float64(n)) }

// ObserveHealthcheckCycle records the wall-clock duration of one probe cycle.
func ObserveHealthcheckCycle(d time.Duration) { healthcheckCycleDuration.Observe(d.Seconds()) }

// ObserveSelection records a successful selection made by policy, for target.
func ObserveSelection(policy, target string) { selectionsTotal.WithLabelValues(policy, target).Inc() }

// ObserveNoHealthyTargets records a selection that failed with no healthy targets.
func ObserveNoHealthyTargets() { selectorNoHealthyTargetsTotal.Inc() }
