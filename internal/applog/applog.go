// Package applog configures the process-wide zerolog logger and provides a
// best-effort, fire-and-forget push of log lines to Loki, mirroring the
// optional observability hook the balancer has always shipped with.
package applog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var (
	lokiURL    string
	lokiOnce   sync.Once
	lokiClient = &http.Client{Timeout: 200 * time.Millisecond}
	lokiApp    = "balancer"
)

// New builds the root logger. levelName is typically sourced from the
// LOG_LEVEL environment variable or a --log-level flag; unrecognized values
// fall back to info. Output goes to stderr as structured JSON.
func New(levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelName)))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "balancer").Logger()
	return logger
}

// lokiHook is a zerolog.Hook that mirrors every log event to Loki,
// best-effort. It is a no-op until a Loki URL is discovered via
// configs/config.yaml, at which point every event is pushed with its level
// and the configured labels attached as stream labels.
type lokiHook struct {
	labels map[string]string
}

// NewLokiHook builds a hook carrying a fixed set of stream labels (e.g.
// host, component) in addition to the level label attached per event.
func NewLokiHook(labels map[string]string) zerolog.Hook {
	return lokiHook{labels: labels}
}

func (h lokiHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	lokiOnce.Do(initLoki)
	if lokiURL == "" || level == zerolog.NoLevel {
		return
	}
	labels := map[string]string{
		"app":   lokiApp,
		"level": level.String(),
	}
	for k, v := range h.labels {
		if strings.TrimSpace(k) != "" {
			labels[k] = v
		}
	}
	pushLoki(labels, msg)
}

func initLoki() {
	lokiURL = ""
	cfgFile := ""
	for _, c := range []string{"configs/config.yaml", "configs/config.yml"} {
		if _, err := os.Stat(c); err == nil {
			cfgFile = c
			break
		}
	}
	if cfgFile == "" {
		return
	}
	var cfg struct {
		Metrics *struct {
			LokiURL string `yaml:"loki_url"`
		} `yaml:"metrics"`
	}
	b, err := os.ReadFile(cfgFile)
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return
	}
	if cfg.Metrics == nil || strings.TrimSpace(cfg.Metrics.LokiURL) == "" {
		return
	}
	lokiURL = strings.TrimSpace(cfg.Metrics.LokiURL)
	if !strings.Contains(lokiURL, "/loki/api/v1/push") {
		lokiURL = strings.TrimRight(lokiURL, "/") + "/loki/api/v1/push"
	}
}

func pushLoki(labels map[string]string, line string) {
	ts := strconv.FormatInt(time.Now().UnixNano(), 10)
	payload := struct {
		Streams []struct {
			Stream map[string]string `json:"stream"`
			Values [][2]string       `json:"values"`
		} `json:"streams"`
	}{
		Streams: []struct {
			Stream map[string]string `json:"stream"`
			Values [][2]string       `json:"values"`
		}{
			{Stream: labels, Values: [][2]string{{ts, line}}},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, lokiURL, bytes.NewReader(b))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	_, _ = lokiClient.Do(req)
}
