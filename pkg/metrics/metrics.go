package metrics

import (
	"runtime"
	"time"
)

// RecordReconcilePass records one reconciliation pass
func (r *Registry) RecordReconcilePass(duration time.Duration, attachedNodes, attachedEdges, known int) {
	r.ReconcilePassesTotal.Inc()
	r.ReconcileDuration.Observe(duration.Seconds())
	r.ElementsAttached.WithLabelValues("node").Set(float64(attachedNodes))
	r.ElementsAttached.WithLabelValues("edge").Set(float64(attachedEdges))
	r.ElementsKnown.Set(float64(known))
}

// RecordMutation records one live graph mutation
func (r *Registry) RecordMutation(operation, kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.ElementMutationsTotal.WithLabelValues(operation, kind, status).Inc()
}

// RecordDataQuality adds n occurrences of a data-quality issue. Zero is a no-op
// so callers can pass report slice lengths directly.
func (r *Registry) RecordDataQuality(issue string, n int) {
	if n <= 0 {
		return
	}
	r.DataQualityIssuesTotal.WithLabelValues(issue).Add(float64(n))
}

// SetReversedEdgePairs reports the reversed pairs seen in the latest snapshot
func (r *Registry) SetReversedEdgePairs(n int) {
	r.ReversedEdgePairs.Set(float64(n))
}

// RecordLayoutRun records a finished layout computation
func (r *Registry) RecordLayoutRun(layout, outcome string, duration time.Duration) {
	r.LayoutRunsTotal.WithLabelValues(layout, outcome).Inc()
	r.LayoutDuration.WithLabelValues(layout).Observe(duration.Seconds())
}

// RecordLayoutSkipped records a pass that left the layout alone
func (r *Registry) RecordLayoutSkipped(reason string) {
	r.LayoutSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordSelection records a user node selection
func (r *Registry) RecordSelection() {
	r.SelectionsTotal.Inc()
}

// RecordFeedFetch records a snapshot fetch
func (r *Registry) RecordFeedFetch(source string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.FeedFetchesTotal.WithLabelValues(source, status).Inc()
	r.FeedFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err == nil {
		r.FeedLastSuccessTimestamp.Set(float64(time.Now().Unix()))
	}
}

// RecordSnapshotDropped records a snapshot nobody received
func (r *Registry) RecordSnapshotDropped() {
	r.FeedSnapshotsDropped.Inc()
}

// UpdateSystemMetrics samples uptime, goroutines and memory
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}
