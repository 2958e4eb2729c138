package balancer

import (
	"math/rand/v2"
	"net/url"
	"sync/atomic"

	"reverseproxy-lb/internal/metrics"
)

// Selector picks one live target per call. Both implementations are safe
// for concurrent invocation from many request handlers.
type Selector interface {
	Select() (*url.URL, error)
	// Name identifies the policy for logging and metrics labels.
	Name() string
}

// roundRobin cycles through the current healthy snapshot. The counter
// advances by exactly one per successful selection regardless of snapshot
// length (a call that finds the snapshot empty leaves it unchanged);
// wrap-around is unobservable to the caller. When the snapshot size changes between
// calls no fairness is promised across the transition, only that the
// returned target was present in the snapshot used to pick it.
type roundRobin struct {
	set  *HealthySet
	next atomic.Uint64
}

// NewRoundRobin builds a round-robin Selector over the given HealthySet.
func NewRoundRobin(set *HealthySet) Selector {
	return &roundRobin{set: set}
}

func (r *roundRobin) Select() (*url.URL, error) {
	snapshot := r.set.Snapshot()
	if len(snapshot) == 0 {
		metrics.ObserveNoHealthyTargets()
		return nil, ErrNoHealthyTargets
	}
	k := r.next.Add(1) - 1
	chosen := snapshot[k%uint64(len(snapshot))]
	metrics.ObserveSelection(r.Name(), chosen.Host)
	return chosen, nil
}

func (r *roundRobin) Name() string { return "round-robin" }

// random picks uniformly over the current snapshot, independently each call.
type random struct {
	set *HealthySet
}

// NewRandom builds a random Selector over the given HealthySet.
func NewRandom(set *HealthySet) Selector {
	return &random{set: set}
}

func (r *random) Select() (*url.URL, error) {
	snapshot := r.set.Snapshot()
	if len(snapshot) == 0 {
		metrics.ObserveNoHealthyTargets()
		return nil, ErrNoHealthyTargets
	}
	chosen := snapshot[rand.N(len(snapshot))]
	metrics.ObserveSelection(r.Name(), chosen.Host)
	return chosen, nil
}

func (r *random) Name() string { return "random" }

// New builds a Selector by policy name; unrecognized names fall back to
// round-robin, the configured default.
func New(policy string, set *HealthySet) Selector {
	if policy == "random" {
		return NewRandom(set)
	}
	return NewRoundRobin(set)
}
