// Package config resolves the balancer's runtime configuration from CLI
// flags (bound via cobra/pflag), falling back to a .env file for local
// development and to the defaults mandated by the CLI surface contract.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultPort          = 3000
	defaultRoutingPolicy = "round-robin"
	defaultHealthPath    = "/health"
	defaultPollSeconds   = 10
)

// Config is the fully validated configuration the core components depend on.
type Config struct {
	Port          int
	Targets       []*url.URL
	RoutingPolicy string
	HealthPath    string
	PollInterval  time.Duration
	LogLevel      string
}

// Flags binds the CLI surface to a pflag.FlagSet. Call Parse after parsing
// the flag set to obtain a validated Config.
type Flags struct {
	fs *pflag.FlagSet

	port          int
	targets       string
	routingPolicy string
	healthPath    string
	pollSeconds   int
	logLevel      string
}

// RegisterFlags loads .env (best-effort, a missing file is not an error) and
// binds every flag from the CLI surface onto fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	_ = godotenv.Load()

	f := &Flags{fs: fs}
	fs.IntVarP(&f.port, "port", "p", envInt("PORT", defaultPort), "bind port for the balancer listener")
	fs.StringVarP(&f.targets, "target-servers", "t", os.Getenv("TARGET_SERVERS"), "comma-separated list of upstream target URLs")
	fs.StringVarP(&f.routingPolicy, "routing-policy", "r", envString("ROUTING_POLICY", defaultRoutingPolicy), "selector policy: round-robin or random")
	fs.StringVar(&f.healthPath, "target-servers-health-path", envString("TARGET_SERVERS_HEALTH_PATH", defaultHealthPath), "path appended to each target for health probing")
	fs.IntVar(&f.pollSeconds, "health-checker-polling-seconds", envInt("HEALTH_CHECKER_POLLING_SECONDS", defaultPollSeconds), "tick interval in seconds for the probe loop")
	fs.StringVar(&f.logLevel, "log-level", envString("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	return f
}

// Parse validates the bound flag values and produces a Config.
func (f *Flags) Parse() (*Config, error) {
	if f.port < 1 || f.port > 65535 {
		return nil, fmt.Errorf("--port must be between 1 and 65535, got %d", f.port)
	}

	rawTargets := strings.TrimSpace(f.targets)
	if rawTargets == "" {
		return nil, fmt.Errorf("--target-servers is required")
	}
	var targets []*url.URL
	for _, part := range strings.Split(rawTargets, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		u, err := url.Parse(part)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid entry in --target-servers: %q", part)
		}
		targets = append(targets, u)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("--target-servers provided but no valid URLs parsed")
	}

	policy := strings.ToLower(strings.TrimSpace(f.routingPolicy))
	if policy != "round-robin" && policy != "random" {
		return nil, fmt.Errorf("--routing-policy must be round-robin or random, got %q", f.routingPolicy)
	}

	if f.pollSeconds < 1 {
		return nil, fmt.Errorf("--health-checker-polling-seconds must be >= 1, got %d", f.pollSeconds)
	}

	healthPath := f.healthPath
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}

	return &Config{
		Port:          f.port,
		Targets:       targets,
		RoutingPolicy: policy,
		HealthPath:    healthPath,
		PollInterval:  time.Duration(f.pollSeconds) * time.Second,
		LogLevel:      f.logLevel,
	}, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return def
	}
	return n
}

