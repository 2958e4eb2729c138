// Package balancer holds the shared live-target membership and the
// selection policies (round-robin, random) that pick one target per request.
package balancer

import (
	"errors"
	"net/url"
	"sync/atomic"
)

// ErrNoHealthyTargets is returned by a Selector when the healthy set is empty.
var ErrNoHealthyTargets = errors.New("no healthy targets")

// HealthySet is the shared, mutable membership of live upstream targets.
// Readers (selectors) and the single writer (the health checker) never block
// each other: Snapshot and Replace operate on an atomic pointer to an
// immutable slice, so a reader always observes either the pre- or
// post-replacement set, never a partially-written one.
type HealthySet struct {
	targets atomic.Pointer[[]*url.URL]
}

// NewHealthySet creates a HealthySet optimistically seeded with every
// configured target (all assumed healthy until the first probe cycle).
func NewHealthySet(configured []*url.URL) *HealthySet {
	initial := append([]*url.URL(nil), configured...)
	hs := &HealthySet{}
	hs.targets.Store(&initial)
	return hs
}

// Snapshot returns a stable, point-in-time view of the live targets. The
// caller may iterate or index it without further synchronization; the
// returned slice is never mutated in place.
func (hs *HealthySet) Snapshot() []*url.URL {
	p := hs.targets.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Replace atomically substitutes the entire membership. Calling Replace
// with the same content as the current set is a no-op from the perspective
// of any observer.
func (hs *HealthySet) Replace(newTargets []*url.URL) {
	copied := append([]*url.URL(nil), newTargets...)
	hs.targets.Store(&copied)
}
