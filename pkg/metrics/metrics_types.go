package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Reconciliation Metrics
	ReconcilePassesTotal  prometheus.Counter
	ReconcileDuration     prometheus.Histogram
	ElementMutationsTotal *prometheus.CounterVec
	ElementsAttached      *prometheus.GaugeVec
	ElementsKnown         prometheus.Gauge

	// Data Quality Metrics
	DataQualityIssuesTotal *prometheus.CounterVec
	ReversedEdgePairs      prometheus.Gauge

	// Layout Metrics
	LayoutRunsTotal    *prometheus.CounterVec
	LayoutSkippedTotal *prometheus.CounterVec
	LayoutDuration     *prometheus.HistogramVec

	// Selection Metrics
	SelectionsTotal prometheus.Counter

	// Feed Metrics
	FeedFetchesTotal         *prometheus.CounterVec
	FeedFetchDuration        *prometheus.HistogramVec
	FeedLastSuccessTimestamp prometheus.Gauge
	FeedSnapshotsDropped     prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	r.initReconcileMetrics()
	r.initLayoutMetrics()
	r.initFeedMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
