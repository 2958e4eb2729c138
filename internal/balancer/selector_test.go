package balancer_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"reverseproxy-lb/internal/balancer"
)

func TestRoundRobin_CoversEachElementExactlyOncePerCycle(t *testing.T) {
	a, b, c := mustURL(t, "http://a"), mustURL(t, "http://b"), mustURL(t, "http://c")
	set := balancer.NewHealthySet([]*url.URL{a, b, c})
	sel := balancer.NewRoundRobin(set)

	seen := map[string]int{}
	for i := 0; i < 6; i++ {
		target, err := sel.Select()
		require.NoError(t, err)
		seen[target.Host]++
	}

	require.Equal(t, 2, seen["a"])
	require.Equal(t, 2, seen["b"])
	require.Equal(t, 2, seen["c"])
}

func TestRoundRobin_StableOrderWhileSetUnchanged(t *testing.T) {
	a, b := mustURL(t, "http://a"), mustURL(t, "http://b")
	set := balancer.NewHealthySet([]*url.URL{a, b})
	sel := balancer.NewRoundRobin(set)

	var got []string
	for i := 0; i < 4; i++ {
		target, err := sel.Select()
		require.NoError(t, err)
		got = append(got, target.Host)
	}
	require.Equal(t, []string{"a", "b", "a", "b"}, got)
}

func TestRoundRobin_EmptySetReturnsNoHealthyTargets(t *testing.T) {
	set := balancer.NewHealthySet(nil)
	sel := balancer.NewRoundRobin(set)

	_, err := sel.Select()
	require.ErrorIs(t, err, balancer.ErrNoHealthyTargets)
}

func TestRandom_EmptySetReturnsNoHealthyTargets(t *testing.T) {
	set := balancer.NewHealthySet(nil)
	sel := balancer.NewRandom(set)

	_, err := sel.Select()
	require.ErrorIs(t, err, balancer.ErrNoHealthyTargets)
}

func TestRandom_AlwaysReturnsAMemberOfTheSnapshot(t *testing.T) {
	a, b := mustURL(t, "http://a"), mustURL(t, "http://b")
	set := balancer.NewHealthySet([]*url.URL{a, b})
	sel := balancer.NewRandom(set)

	for i := 0; i < 50; i++ {
		target, err := sel.Select()
		require.NoError(t, err)
		require.Contains(t, []string{"a", "b"}, target.Host)
	}
}

func TestRandom_ConvergesToUniformOverManySelections(t *testing.T) {
	a, b := mustURL(t, "http://a"), mustURL(t, "http://b")
	set := balancer.NewHealthySet([]*url.URL{a, b})
	sel := balancer.NewRandom(set)

	const n = 4000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		target, err := sel.Select()
		require.NoError(t, err)
		counts[target.Host]++
	}

	// Each side should land within 10% of the expected 50/50 split.
	for _, host := range []string{"a", "b"} {
		frac := float64(counts[host]) / float64(n)
		require.InDelta(t, 0.5, frac, 0.1, "host %s selection frequency skewed: %v", host, counts)
	}
}

func TestNew_FallsBackToRoundRobinForUnknownPolicy(t *testing.T) {
	a := mustURL(t, "http://a")
	set := balancer.NewHealthySet([]*url.URL{a})

	sel := balancer.New("bogus-policy", set)
	require.Equal(t, "round-robin", sel.Name())

	sel = balancer.New("random", set)
	require.Equal(t, "random", sel.Name())
}
