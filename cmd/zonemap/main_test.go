package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/zonemap/pkg/feed"
	"github.com/dd0wney/zonemap/pkg/health"
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/mapview"
	"github.com/dd0wney/zonemap/pkg/metrics"
	"github.com/dd0wney/zonemap/pkg/pubsub"
	"github.com/dd0wney/zonemap/pkg/visualization"
)

func TestHealthCheckerTracksFeedAndView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.sz")
	require.NoError(t, feed.WriteFile(path, testSnapshot()))

	bus := pubsub.New[mapdata.Snapshot](1)
	defer bus.Shutdown()
	sub, err := bus.Subscribe(context.Background(), pubsub.TopicSnapshots)
	require.NoError(t, err)

	poller := feed.NewPoller(feed.NewFileSource(path), time.Minute, bus, nil, nil)

	v, err := mapview.New(mapview.Options{
		UpdateLayoutOnChange: true,
		Layout:               visualization.LayoutCircle,
		LayoutConfig:         visualization.LayoutConfig{Width: 800, Height: 600},
		Logger:               logging.NewNopLogger(),
		Metrics:              metrics.NewRegistry(),
	})
	require.NoError(t, err)
	defer v.Close()

	hc := newHealthChecker(poller, v)
	assert.Equal(t, health.StatusUnhealthy, hc.CheckReadiness().Checks["feed"].Status)

	_, err = poller.Poll(context.Background())
	require.NoError(t, err)
	_, err = v.Apply(<-sub.Channel())
	require.NoError(t, err)
	v.Canvas().WaitLayout()

	resp := hc.Check()
	for _, name := range []string{"feed", "reconcile", "layout"} {
		assert.Equal(t, health.StatusHealthy, resp.Checks[name].Status, name)
	}
	assert.Equal(t, 1, resp.Checks["reconcile"].Details["passes"])

	rec := httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartRelayForwardsBus(t *testing.T) {
	addr := "inproc://zonemap-main-relay"
	bus := pubsub.New[mapdata.Snapshot](4)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, startRelay(ctx, addr, bus, logging.NewNopLogger()))

	src := feed.NewNNGSource(addr, 50*time.Millisecond)
	defer src.Close()

	require.Eventually(t, func() bool {
		bus.Publish(pubsub.TopicSnapshots, testSnapshot())
		snap, err := src.Fetch(context.Background())
		return err == nil && len(snap.Zones) == 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRefreshSystemMetricsStopsWithContext(t *testing.T) {
	reg := metrics.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		refreshSystemMetrics(ctx, reg, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		var m dto.Metric
		if err := reg.UptimeSeconds.Write(&m); err != nil {
			return false
		}
		return m.GetGauge().GetValue() > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh loop still running after cancel")
	}
}
