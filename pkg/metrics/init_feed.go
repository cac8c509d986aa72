package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFeedMetrics() {
	r.FeedFetchesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonemap_feed_fetches_total",
			Help: "Snapshot fetches by source and status",
		},
		[]string{"source", "status"},
	)

	r.FeedFetchDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zonemap_feed_fetch_duration_seconds",
			Help:    "Snapshot fetch duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"source"},
	)

	r.FeedLastSuccessTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "zonemap_feed_last_success_timestamp_seconds",
			Help: "Unix time of the last successful snapshot fetch",
		},
	)

	r.FeedSnapshotsDropped = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "zonemap_feed_snapshots_dropped_total",
			Help: "Snapshots published while no subscriber could take them",
		},
	)
}
