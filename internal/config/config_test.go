package config_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"reverseproxy-lb/internal/config"
)

func parseArgs(t *testing.T, args []string) (*config.Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return flags.Parse()
}

func TestParse_RequiresTargetServers(t *testing.T) {
	_, err := parseArgs(t, []string{})
	require.Error(t, err)
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := parseArgs(t, []string{"--target-servers", "http://a,http://b"})
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "round-robin", cfg.RoutingPolicy)
	require.Equal(t, "/health", cfg.HealthPath)
	require.Equal(t, 10*time.Second, cfg.PollInterval)
	require.Len(t, cfg.Targets, 2)
}

func TestParse_RejectsInvalidTargetURL(t *testing.T) {
	_, err := parseArgs(t, []string{"--target-servers", "not-a-url"})
	require.Error(t, err)
}

func TestParse_RejectsOutOfRangePort(t *testing.T) {
	_, err := parseArgs(t, []string{"--target-servers", "http://a", "--port", "70000"})
	require.Error(t, err)
}

func TestParse_RejectsUnknownRoutingPolicy(t *testing.T) {
	_, err := parseArgs(t, []string{"--target-servers", "http://a", "--routing-policy", "weighted"})
	require.Error(t, err)
}

func TestParse_RejectsZeroPollingSeconds(t *testing.T) {
	_, err := parseArgs(t, []string{"--target-servers", "http://a", "--health-checker-polling-seconds", "0"})
	require.Error(t, err)
}

func TestParse_NormalizesHealthPathMissingLeadingSlash(t *testing.T) {
	cfg, err := parseArgs(t, []string{"--target-servers", "http://a", "--target-servers-health-path", "status"})
	require.NoError(t, err)
	require.Equal(t, "/status", cfg.HealthPath)
}

func TestParse_AcceptsRandomRoutingPolicy(t *testing.T) {
	cfg, err := parseArgs(t, []string{"--target-servers", "http://a", "--routing-policy", "random"})
	require.NoError(t, err)
	require.Equal(t, "random", cfg.RoutingPolicy)
}
