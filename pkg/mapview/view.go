// Package mapview hosts one zone map: it owns the element store, the canvas
// and the components that keep the canvas in step with incoming snapshots.
// A View is created with the page and must be closed with it.
package mapview

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/zonemap/pkg/canvas"
	"github.com/dd0wney/zonemap/pkg/descriptor"
	"github.com/dd0wney/zonemap/pkg/elementstore"
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/metrics"
	"github.com/dd0wney/zonemap/pkg/reconcile"
	"github.com/dd0wney/zonemap/pkg/selection"
	"github.com/dd0wney/zonemap/pkg/visualization"
)

// ErrClosed is returned by operations on a closed view.
var ErrClosed = errors.New("mapview: view closed")

// Data-quality issue labels.
const (
	IssueRejected      = "rejected"
	IssueUnmappedColor = "unmapped_color"
	IssueUnmappedSize  = "unmapped_size"
	IssueDangling      = "dangling_portal"
	IssueDuplicateID   = "duplicate_id"
	IssueReversedPair  = "reversed_pair"
)

// Options configures a View.
type Options struct {
	UpdateLayoutOnChange bool
	Dark                 bool
	Layout               string
	LayoutConfig         visualization.LayoutConfig
	EdgeIDs              descriptor.EdgeIDPolicy
	OnNodeClick          func(id string)
	Logger               logging.Logger
	Metrics              *metrics.Registry
}

// Pass summarises one Apply call.
type Pass struct {
	ID              string
	Result          reconcile.Result
	Report          descriptor.Report
	Rejections      []mapdata.Rejection
	LayoutTriggered bool
	Duration        time.Duration
}

// Stats counts reconcile passes over the view's lifetime.
type Stats struct {
	Passes       int
	LastPassAt   time.Time
	LastFailed   int // mutations left for retry by the latest pass
	TotalFailed  int
	LayoutsFired int
}

// View wires the normalizer, reconciler, layout trigger and selection to a
// single canvas.
type View struct {
	mu sync.Mutex

	id         string
	store      *elementstore.Store
	canvas     *canvas.Canvas
	reconciler *reconcile.Reconciler
	trigger    *reconcile.LayoutTrigger
	selection  *selection.Selection

	edgeIDs descriptor.EdgeIDPolicy
	latest  mapdata.Snapshot
	stats   Stats
	dark    bool
	closed  bool

	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a view with an empty canvas. A nil Logger falls back to
// logging.DefaultLogger.
func New(opts Options) (*View, error) {
	id := uuid.New().String()
	logger := opts.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	logger = logger.With(logging.Component("mapview"), logging.String("view_id", id))

	c, err := canvas.New(canvas.Options{
		Layout:       opts.Layout,
		LayoutConfig: opts.LayoutConfig,
		Dark:         opts.Dark,
		Logger:       logger,
		Metrics:      opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	store := elementstore.New()
	v := &View{
		id:    id,
		store: store,
		canvas: c,
		reconciler: reconcile.New(store, c,
			reconcile.WithLogger(logger.With(logging.Component("reconcile"))),
			reconcile.WithMetrics(opts.Metrics),
		),
		trigger:   reconcile.NewLayoutTrigger(c, opts.UpdateLayoutOnChange, logger, opts.Metrics),
		selection: selection.New(opts.OnNodeClick, logger, opts.Metrics),
		edgeIDs:   opts.EdgeIDs,
		dark:      opts.Dark,
		logger:    logger,
		metrics:   opts.Metrics,
	}
	if err := v.selection.Bind(c); err != nil {
		c.Destroy()
		return nil, err
	}

	logger.Info("view created", logging.String("layout", c.LayoutName()))
	return v, nil
}

// ID returns the view's instance id.
func (v *View) ID() string {
	return v.id
}

// Canvas returns the live graph for rendering.
func (v *View) Canvas() *canvas.Canvas {
	return v.canvas
}

// Stats returns the pass counters.
func (v *View) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Apply reconciles the canvas against snap. Records that fail validation
// are dropped before normalization and listed in the returned Pass.
func (v *View) Apply(snap mapdata.Snapshot) (Pass, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return Pass{}, ErrClosed
	}

	pass := Pass{ID: uuid.New().String()}
	logger := v.logger.With(logging.Pass(pass.ID))
	timer := logging.StartTimer(logger, "reconcile pass")

	clean, rejections := mapdata.Sanitize(snap)
	pass.Rejections = rejections
	for _, r := range rejections {
		logger.Warn("snapshot record rejected", logging.String("record", r.String()))
	}

	elements, report := descriptor.Normalize(clean.Zones, clean.Portals, descriptor.Options{EdgeIDs: v.edgeIDs})
	pass.Report = report
	v.reportQuality(logger, report, len(rejections))

	pass.Result = v.reconciler.Reconcile(elements)
	pass.LayoutTriggered = v.trigger.Observe(pass.Result)
	v.latest = clean

	v.stats.Passes++
	v.stats.LastPassAt = time.Now()
	v.stats.LastFailed = len(pass.Result.Failed)
	v.stats.TotalFailed += len(pass.Result.Failed)
	if pass.LayoutTriggered {
		v.stats.LayoutsFired++
	}

	pass.Duration = timer.Elapsed()
	timer.End(
		logging.Int("attached", len(pass.Result.Attached)),
		logging.Int("updated", len(pass.Result.Updated)),
		logging.Int("removed", len(pass.Result.Removed)),
		logging.Int("failed", len(pass.Result.Failed)),
		logging.Bool("layout", pass.LayoutTriggered),
	)

	if v.metrics != nil {
		nodes, edges := 0, 0
		for _, rec := range v.store.AllAttached() {
			if rec.Element.Kind == descriptor.KindEdge {
				edges++
			} else {
				nodes++
			}
		}
		v.metrics.RecordReconcilePass(pass.Duration, nodes, edges, v.store.Len())
	}
	return pass, nil
}

func (v *View) reportQuality(logger logging.Logger, report descriptor.Report, rejected int) {
	if len(report.ReversedPairs) > 0 {
		logger.Warn("portal pair reported in both directions",
			logging.Strings("edge_ids", report.ReversedPairs))
	}
	if len(report.UnmappedColors) > 0 {
		logger.Warn("zones with unknown colour drawn unstyled",
			logging.Strings("zones", report.UnmappedColors))
	}
	if len(report.UnmappedSizes) > 0 {
		logger.Warn("portals with unknown size drawn unstyled",
			logging.Strings("edge_ids", report.UnmappedSizes))
	}
	if len(report.DanglingPortals) > 0 {
		logger.Warn("portals to unknown zones dropped",
			logging.Strings("edge_ids", report.DanglingPortals))
	}
	if len(report.DuplicateIDs) > 0 {
		logger.Debug("duplicate ids collapsed", logging.Strings("ids", report.DuplicateIDs))
	}

	if v.metrics == nil {
		return
	}
	v.metrics.RecordDataQuality(IssueRejected, rejected)
	v.metrics.RecordDataQuality(IssueUnmappedColor, len(report.UnmappedColors))
	v.metrics.RecordDataQuality(IssueUnmappedSize, len(report.UnmappedSizes))
	v.metrics.RecordDataQuality(IssueDangling, len(report.DanglingPortals))
	v.metrics.RecordDataQuality(IssueDuplicateID, len(report.DuplicateIDs))
	v.metrics.RecordDataQuality(IssueReversedPair, len(report.ReversedPairs))
	v.metrics.SetReversedEdgePairs(len(report.ReversedPairs))
}

// Select behaves as if the user tapped node id.
func (v *View) Select(id string) error {
	if v.isClosed() {
		return ErrClosed
	}
	return v.canvas.Tap(id)
}

// Selected returns the id of the active zone, or "".
func (v *View) Selected() string {
	return v.selection.Active()
}

// SetUpdateLayoutOnChange toggles automatic layout reruns.
func (v *View) SetUpdateLayoutOnChange(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.trigger.SetUpdateOnChange(on)
}

// UpdateLayoutOnChange reports whether automatic reruns are on.
func (v *View) UpdateLayoutOnChange() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.trigger.UpdateOnChange()
}

// SetDark switches the stylesheet. It never touches elements.
func (v *View) SetDark(dark bool) {
	v.mu.Lock()
	v.dark = dark
	v.mu.Unlock()
	v.canvas.SetStylesheet(canvas.NewStylesheet(dark))
}

// Dark reports whether the dark stylesheet is active.
func (v *View) Dark() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dark
}

// SetLayout selects a layout and reruns it.
func (v *View) SetLayout(name string) error {
	if v.isClosed() {
		return ErrClosed
	}
	if err := v.canvas.SetLayout(name); err != nil {
		return err
	}
	v.canvas.RunLayout()
	return nil
}

// Layout returns the selected layout name.
func (v *View) Layout() string {
	return v.canvas.LayoutName()
}

// RunLayout reruns the current layout regardless of the update-on-change flag.
func (v *View) RunLayout() {
	if v.isClosed() {
		return
	}
	v.canvas.RunLayout()
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Close de-registers the tap listener, stops pending layout runs, destroys
// the canvas and drops the store. Safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.store = nil
	v.reconciler = nil
	v.latest = mapdata.Snapshot{}
	v.mu.Unlock()

	v.selection.Close()
	v.canvas.Destroy()
	v.logger.Info("view closed")
}
