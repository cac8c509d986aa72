// Command zonemap renders a live zone/portal map in the terminal and keeps
// it in step with a snapshot feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/zonemap/pkg/config"
	"github.com/dd0wney/zonemap/pkg/feed"
	"github.com/dd0wney/zonemap/pkg/health"
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/mapview"
	"github.com/dd0wney/zonemap/pkg/metrics"
	"github.com/dd0wney/zonemap/pkg/pubsub"
)

// flags holds the command-line overrides applied over the config file.
type flags struct {
	config     string
	snapshot   string
	zonesURL   string
	portalsURL string
	nngAddr    string
	relay      string
	metrics    string
	log        string
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "Path to YAML config file")
	flag.StringVar(&f.snapshot, "snapshot", "", "Snapshot file (.yaml, .json or .sz); overrides the feed section")
	flag.StringVar(&f.zonesURL, "zones-url", "", "Zones endpoint; with -portals-url selects the HTTP feed")
	flag.StringVar(&f.portalsURL, "portals-url", "", "Portals endpoint")
	flag.StringVar(&f.nngAddr, "nng", "", "Follow a snapshot relay at this nng address (e.g. tcp://host:7451)")
	flag.StringVar(&f.relay, "relay", "", "Republish snapshots on this nng address")
	flag.StringVar(&f.metrics, "metrics", "", "Serve Prometheus metrics and health on this address (e.g. :9102)")
	flag.StringVar(&f.log, "log", "zonemap.log", "Log file")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "zonemap: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger, closer, err := logging.NewFileLogger(f.log, cfg.Level())
	if err != nil {
		return err
	}
	defer closer.Close()
	logging.SetDefaultLogger(logger)

	reg := metrics.DefaultRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := feed.NewSource(cfg.FeedOptions())
	if err != nil {
		return err
	}
	if c, ok := source.(io.Closer); ok {
		defer c.Close()
	}

	bus := pubsub.New[mapdata.Snapshot](pubsub.DefaultBuffer)
	defer bus.Shutdown()

	sub, err := bus.Subscribe(ctx, pubsub.TopicSnapshots)
	if err != nil {
		return err
	}

	view, err := mapview.New(mapview.Options{
		UpdateLayoutOnChange: cfg.View.UpdateLayoutOnChange,
		Dark:                 cfg.View.Dark,
		Layout:               cfg.View.Layout,
		LayoutConfig:         cfg.LayoutConfig(),
		EdgeIDs:              cfg.EdgeIDs(),
		OnNodeClick: func(id string) {
			logger.Info("zone selected", logging.ElementID(id))
		},
		Logger:  logger,
		Metrics: reg,
	})
	if err != nil {
		return err
	}
	defer view.Close()

	poller := feed.NewPoller(source, cfg.Feed.Interval, bus, logger, reg)

	if cfg.Metrics.Listen != "" {
		srv := startMetricsServer(ctx, cfg.Metrics.Listen, reg, newHealthChecker(poller, view), logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.Feed.Relay != "" {
		if err := startRelay(ctx, cfg.Feed.Relay, bus, logger); err != nil {
			return err
		}
	}

	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("feed poller exited", logging.Error(err))
		}
	}()

	logger.Info("zonemap started",
		logging.String("view_id", view.ID()),
		logging.String("feed", source.Kind()),
		logging.String("layout", view.Layout()),
	)

	p := tea.NewProgram(initialModel(view, sub.Channel(), logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	return nil
}

// loadConfig reads the config file and lets flags override the feed and
// metrics settings.
func loadConfig(f flags) (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}

	switch {
	case f.snapshot != "":
		cfg.Feed.Kind = feed.KindFile
		cfg.Feed.Path = f.snapshot
	case f.zonesURL != "" || f.portalsURL != "":
		cfg.Feed.Kind = feed.KindHTTP
		cfg.Feed.ZonesURL = f.zonesURL
		cfg.Feed.PortalsURL = f.portalsURL
	case f.nngAddr != "":
		cfg.Feed.Kind = feed.KindNNG
		cfg.Feed.Address = f.nngAddr
	}
	if f.relay != "" {
		cfg.Feed.Relay = f.relay
	}
	if f.metrics != "" {
		cfg.Metrics.Listen = f.metrics
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startRelay republishes every snapshot from the bus until ctx is done.
func startRelay(ctx context.Context, addr string, bus *pubsub.PubSub[mapdata.Snapshot], logger logging.Logger) error {
	relay, err := feed.NewNNGRelay(addr)
	if err != nil {
		return err
	}
	sub, err := bus.Subscribe(ctx, pubsub.TopicSnapshots)
	if err != nil {
		relay.Close()
		return err
	}
	go func() {
		defer relay.Close()
		if err := relay.Run(ctx, sub, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("snapshot relay stopped", logging.Error(err))
		}
	}()
	return nil
}

func newHealthChecker(poller *feed.Poller, view *mapview.View) *health.HealthChecker {
	hc := health.NewHealthChecker()

	feedCheck := health.FeedCheck(func() (time.Time, int, time.Duration) {
		st := poller.Status()
		return st.LastSuccess, st.Failures, st.Interval
	})
	layoutCheck := health.LayoutCheck(view.Canvas().LayoutGeneration)
	memoryCheck := health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	})

	hc.RegisterCheck("feed", feedCheck)
	hc.RegisterCheck("reconcile", health.ReconcileCheck(func() (int, int) {
		st := view.Stats()
		return st.Passes, st.LastFailed
	}))
	hc.RegisterCheck("layout", layoutCheck)
	hc.RegisterCheck("memory", memoryCheck)

	hc.RegisterReadinessCheck("feed", feedCheck)
	hc.RegisterReadinessCheck("layout", layoutCheck)
	hc.RegisterLivenessCheck("memory", memoryCheck)
	return hc
}

const systemMetricsInterval = 10 * time.Second

// refreshSystemMetrics updates the runtime gauges every interval until ctx
// is done.
func refreshSystemMetrics(ctx context.Context, reg *metrics.Registry, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.UpdateSystemMetrics()
		}
	}
}

func startMetricsServer(ctx context.Context, addr string, reg *metrics.Registry, hc *health.HealthChecker, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.Handle("/healthz", hc.HTTPHandler())
	mux.Handle("/readyz", hc.ReadinessHandler())
	mux.Handle("/livez", hc.LivenessHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go refreshSystemMetrics(ctx, reg, systemMetricsInterval)
	go func() {
		logger.Info("metrics endpoint listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", logging.Error(err))
		}
	}()
	return srv
}
