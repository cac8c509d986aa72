package reconcile

import (
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/metrics"
)

// LayoutRunner starts a layout run and returns without waiting for it.
type LayoutRunner interface {
	RunLayout()
}

// Reasons a pass leaves the layout alone.
const (
	SkipDisabled         = "disabled"
	SkipNoTopologyChange = "no_topology_change"
)

// LayoutTrigger decides after each pass whether the layout must be rerun.
// Relabelling alone never triggers a run.
type LayoutTrigger struct {
	runner         LayoutRunner
	updateOnChange bool
	logger         logging.Logger
	metrics        *metrics.Registry
}

// NewLayoutTrigger creates a trigger that delegates runs to runner.
func NewLayoutTrigger(runner LayoutRunner, updateOnChange bool, logger logging.Logger, reg *metrics.Registry) *LayoutTrigger {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LayoutTrigger{
		runner:         runner,
		updateOnChange: updateOnChange,
		logger:         logger,
		metrics:        reg,
	}
}

// SetUpdateOnChange toggles automatic reruns.
func (t *LayoutTrigger) SetUpdateOnChange(on bool) {
	t.updateOnChange = on
}

// UpdateOnChange reports whether automatic reruns are enabled.
func (t *LayoutTrigger) UpdateOnChange() bool {
	return t.updateOnChange
}

// Observe inspects a pass result and fires a layout run when enabled and the
// topology changed. It reports whether a run was issued.
func (t *LayoutTrigger) Observe(res Result) bool {
	reason := ""
	switch {
	case !t.updateOnChange:
		reason = SkipDisabled
	case !res.TopologyChanged():
		reason = SkipNoTopologyChange
	}

	if reason != "" {
		if t.metrics != nil {
			t.metrics.RecordLayoutSkipped(reason)
		}
		return false
	}

	t.logger.Debug("topology changed, rerunning layout",
		logging.Int("attached", len(res.Attached)),
		logging.Int("removed", len(res.Removed)),
	)
	t.runner.RunLayout()
	return true
}
