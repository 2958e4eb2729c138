// Command balancer runs the HTTP reverse-proxy load balancer: it accepts
// inbound traffic on a single port, selects a live upstream per request
// using a pluggable policy, and continuously probes upstream health in the
// background.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reverseproxy-lb/internal/applog"
	"reverseproxy-lb/internal/balancer"
	"reverseproxy-lb/internal/config"
	"reverseproxy-lb/internal/healthcheck"
	"reverseproxy-lb/internal/httpclient"
	"reverseproxy-lb/internal/metrics"
	"reverseproxy-lb/internal/middleware"
	"reverseproxy-lb/internal/proxy"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "balancer",
		Short:   "HTTP reverse-proxy load balancer",
		Version: version,
	}
	flags := config.RegisterFlags(root.Flags())
	root.RunE = func(cmd *cobra.Command, args []string) error {
		return run(flags)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(flags *config.Flags) error {
	cfg, err := flags.Parse()
	if err != nil {
		return err
	}

	log := applog.New(cfg.LogLevel)
	log = log.Hook(applog.NewLokiHook(map[string]string{"component": "balancer"}))

	healthySet := balancer.NewHealthySet(cfg.Targets)
	selector := balancer.New(cfg.RoutingPolicy, healthySet)
	client := httpclient.New()

	checker := healthcheck.New(cfg.Targets, cfg.HealthPath, cfg.PollInterval, client, healthySet, log)
	proxyHandler := proxy.New(selector, client, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", proxy.HealthEndpoint)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", proxyHandler)

	rootHandler := middleware.RequestID(mux)

	metrics.SetHealthyTargets(len(cfg.Targets))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		checker.Run(gctx)
		return nil
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
	}

	group.Go(func() error {
		log.Info().Int("port", cfg.Port).Strs("targets", targetStrings(cfg)).Str("policy", cfg.RoutingPolicy).Msg("starting balancer")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func targetStrings(cfg *config.Config) []string {
	out := make([]string, len(cfg.Targets))
	for i, t := range cfg.Targets {
		out[i] = t.String()
	}
	return out
}
