// Package healthcheck runs the background probe loop that decides which
// configured targets are currently live.
package healthcheck

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"reverseproxy-lb/internal/balancer"
	"reverseproxy-lb/internal/httpclient"
	"reverseproxy-lb/internal/metrics"
)

const probeTimeout = 5 * time.Second

// Checker owns the periodic probe loop. One instance is started at startup
// and runs until the context passed to Run is cancelled.
type Checker struct {
	configured []*url.URL
	healthPath string
	interval   time.Duration
	client     httpclient.Client
	set        *balancer.HealthySet
	log        zerolog.Logger

	lastHealthy int
}

// New builds a Checker over the immutable configured target list.
func New(configured []*url.URL, healthPath string, interval time.Duration, client httpclient.Client, set *balancer.HealthySet, log zerolog.Logger) *Checker {
	return &Checker{
		configured:  configured,
		healthPath:  healthPath,
		interval:    interval,
		client:      client,
		set:         set,
		log:         log.With().Str("component", "healthcheck").Logger(),
		lastHealthy: -1,
	}
}

// Run ticks forever at the configured interval, probing every configured
// target each cycle and replacing the healthy set atomically. Run never
// returns under normal operation; cancel ctx to stop it (used by tests and
// graceful shutdown).
func (c *Checker) Run(ctx context.Context) {
	c.log.Info().Dur("interval", c.interval).Int("targets", len(c.configured)).Msg("starting health checker")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle(ctx)
		}
	}
}

// runCycle executes exactly one probe pass, sequential per target so the
// resulting list preserves configured order.
func (c *Checker) runCycle(ctx context.Context) {
	if len(c.configured) == 0 {
		c.log.Warn().Msg("no configured targets; skipping cycle")
		return
	}

	cycleStart := time.Now()
	healthy := make([]*url.URL, 0, len(c.configured))
	for _, target := range c.configured {
		if c.probe(ctx, target) {
			healthy = append(healthy, target)
		}
	}

	c.set.Replace(healthy)
	metrics.SetHealthyTargets(len(healthy))
	metrics.ObserveHealthcheckCycle(time.Since(cycleStart))

	if len(healthy) != c.lastHealthy {
		c.log.Info().Int("healthy", len(healthy)).Int("configured", len(c.configured)).Msg("healthy target count changed")
		c.lastHealthy = len(healthy)
	}
	if len(healthy) == 0 {
		c.log.Warn().Msg("no healthy targets after this cycle")
	}
}

// probe issues one GET against target+healthPath with a 5s deadline. A
// target is healthy this cycle iff the response status is exactly 200; any
// other status, a network error, or a timeout marks it unhealthy. Probe
// failures are per-target and never fatal to the loop.
func (c *Checker) probe(ctx context.Context, target *url.URL) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	healthURL := target.String() + c.healthPath
	req, err := http.NewRequest(http.MethodGet, healthURL, nil)
	if err != nil {
		c.log.Warn().Str("target", target.String()).Err(err).Msg("could not build probe request")
		return false
	}

	resp, err := c.client.Execute(probeCtx, req)
	if err != nil {
		c.log.Warn().Str("target", target.String()).Err(err).Msg("probe failed")
		return false
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Str("target", target.String()).Int("status", resp.StatusCode).Msg("probe returned non-200")
		return false
	}
	return true
}
