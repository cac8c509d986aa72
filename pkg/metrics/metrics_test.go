package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var metric dto.Metric
	if err := g.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return metric.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.ReconcilePassesTotal == nil {
		t.Error("ReconcilePassesTotal not initialized")
	}
	if r.ElementMutationsTotal == nil {
		t.Error("ElementMutationsTotal not initialized")
	}
	if r.LayoutRunsTotal == nil {
		t.Error("LayoutRunsTotal not initialized")
	}
	if r.FeedFetchesTotal == nil {
		t.Error("FeedFetchesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordReconcilePass(t *testing.T) {
	r := NewRegistry()

	r.RecordReconcilePass(2*time.Millisecond, 2, 1, 3)
	r.RecordReconcilePass(time.Millisecond, 0, 0, 0)

	if got := counterValue(t, r.ReconcilePassesTotal); got != 2 {
		t.Errorf("passes = %v, want 2", got)
	}

	nodes, err := r.ElementsAttached.GetMetricWithLabelValues("node")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got := gaugeValue(t, nodes); got != 0 {
		t.Errorf("attached nodes = %v, want 0 after second pass", got)
	}

	var metric dto.Metric
	if err := r.ReconcileDuration.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestRecordMutation(t *testing.T) {
	r := NewRegistry()

	r.RecordMutation("attach", "node", nil)
	r.RecordMutation("attach", "node", nil)
	r.RecordMutation("attach", "edge", errors.New("missing endpoint"))

	ok, _ := r.ElementMutationsTotal.GetMetricWithLabelValues("attach", "node", "success")
	if got := counterValue(t, ok); got != 2 {
		t.Errorf("attach/node/success = %v, want 2", got)
	}

	failed, _ := r.ElementMutationsTotal.GetMetricWithLabelValues("attach", "edge", "error")
	if got := counterValue(t, failed); got != 1 {
		t.Errorf("attach/edge/error = %v, want 1", got)
	}
}

func TestRecordDataQuality(t *testing.T) {
	r := NewRegistry()

	r.RecordDataQuality("dangling_portal", 3)
	r.RecordDataQuality("dangling_portal", 0)
	r.RecordDataQuality("unmapped_color", -1)
	r.SetReversedEdgePairs(2)

	c, _ := r.DataQualityIssuesTotal.GetMetricWithLabelValues("dangling_portal")
	if got := counterValue(t, c); got != 3 {
		t.Errorf("dangling_portal = %v, want 3", got)
	}
	if got := gaugeValue(t, r.ReversedEdgePairs); got != 2 {
		t.Errorf("reversed pairs = %v, want 2", got)
	}
}

func TestLayoutMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordLayoutRun("cose", "applied", 20*time.Millisecond)
	r.RecordLayoutRun("cose", "superseded", 30*time.Millisecond)
	r.RecordLayoutSkipped("no_topology_change")

	applied, _ := r.LayoutRunsTotal.GetMetricWithLabelValues("cose", "applied")
	if got := counterValue(t, applied); got != 1 {
		t.Errorf("applied = %v, want 1", got)
	}
	skipped, _ := r.LayoutSkippedTotal.GetMetricWithLabelValues("no_topology_change")
	if got := counterValue(t, skipped); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}

	h, err := r.LayoutDuration.GetMetricWithLabelValues("cose")
	if err != nil {
		t.Fatalf("Failed to get histogram: %v", err)
	}
	var metric dto.Metric
	if err := h.(prometheus.Histogram).Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 2 {
		t.Errorf("Sample count = %v, want 2", metric.Histogram.GetSampleCount())
	}
}

func TestFeedMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordFeedFetch("file", 5*time.Millisecond, nil)
	r.RecordFeedFetch("file", 5*time.Millisecond, errors.New("boom"))
	r.RecordSnapshotDropped()

	ok, _ := r.FeedFetchesTotal.GetMetricWithLabelValues("file", "success")
	if got := counterValue(t, ok); got != 1 {
		t.Errorf("success = %v, want 1", got)
	}
	if got := gaugeValue(t, r.FeedLastSuccessTimestamp); got == 0 {
		t.Error("last success timestamp not set")
	}
	if got := counterValue(t, r.FeedSnapshotsDropped); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
}

func TestSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	if got := gaugeValue(t, r.GoRoutines); got < 1 {
		t.Errorf("GoRoutines = %v, want >= 1", got)
	}
	if got := gaugeValue(t, r.MemorySysBytes); got <= 0 {
		t.Errorf("MemorySysBytes = %v, want > 0", got)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordMutation("update", "edge", nil)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	c, _ := r.ElementMutationsTotal.GetMetricWithLabelValues("update", "edge", "success")
	if got := counterValue(t, c); got != 1000 {
		t.Errorf("Counter = %v, want 1000", got)
	}
}

func TestMetricNaming(t *testing.T) {
	r := NewRegistry()
	r.RecordMutation("attach", "node", nil)
	r.RecordLayoutRun("grid", "applied", time.Millisecond)

	metrics, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("No metrics registered")
	}

	names := make(map[string]bool)
	for _, m := range metrics {
		name := m.GetName()
		names[name] = true
		if !strings.HasPrefix(name, "zonemap_") {
			t.Errorf("Metric %s does not have zonemap_ prefix", name)
		}
	}

	for _, expected := range []string{
		"zonemap_reconcile_passes_total",
		"zonemap_element_mutations_total",
		"zonemap_layout_runs_total",
		"zonemap_uptime_seconds",
	} {
		if !names[expected] {
			t.Errorf("Expected metric %s not found", expected)
		}
	}
}

func BenchmarkRecordMutation(b *testing.B) {
	r := NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordMutation("update", "edge", nil)
	}
}
