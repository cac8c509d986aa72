package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initReconcileMetrics() {
	r.ReconcilePassesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "zonemap_reconcile_passes_total",
			Help: "Total number of reconciliation passes",
		},
	)

	r.ReconcileDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "zonemap_reconcile_duration_seconds",
			Help:    "Reconciliation pass duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	r.ElementMutationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonemap_element_mutations_total",
			Help: "Live graph mutations by operation, element kind and outcome",
		},
		[]string{"operation", "kind", "status"},
	)

	r.ElementsAttached = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zonemap_elements_attached",
			Help: "Elements currently drawn in the live graph",
		},
		[]string{"kind"},
	)

	r.ElementsKnown = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "zonemap_elements_known",
			Help: "Records held by the element store, attached or not",
		},
	)

	r.DataQualityIssuesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonemap_data_quality_issues_total",
			Help: "Snapshot records that were dropped or styled with defaults",
		},
		[]string{"issue"},
	)

	r.ReversedEdgePairs = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "zonemap_reversed_edge_pairs",
			Help: "Portals in the latest snapshot also reported in the opposite direction",
		},
	)

	r.SelectionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "zonemap_selections_total",
			Help: "Node selections made by the user",
		},
	)
}
