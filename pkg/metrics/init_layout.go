package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonemap_layout_runs_total",
			Help: "Layout runs by algorithm and outcome (applied, superseded, failed)",
		},
		[]string{"layout", "outcome"},
	)

	r.LayoutSkippedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonemap_layout_skipped_total",
			Help: "Passes that did not rerun the layout, by reason",
		},
		[]string{"reason"},
	)

	r.LayoutDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zonemap_layout_duration_seconds",
			Help:    "Layout computation time in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"layout"},
	)
}
