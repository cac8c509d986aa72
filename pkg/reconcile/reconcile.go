// Package reconcile keeps a live graph in step with the latest normalized
// snapshot. A Reconciler diffs descriptors against the element store, applies
// the minimal set of add, update and remove calls, and reports whether the
// topology changed so a LayoutTrigger can decide on a layout rerun.
package reconcile

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dd0wney/zonemap/pkg/descriptor"
	"github.com/dd0wney/zonemap/pkg/elementstore"
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/metrics"
)

// LiveGraph is the mutable graph object being drawn. It is only ever written
// to; membership is tracked by the element store. Remove on a node that still
// has edges should fail rather than cascade, otherwise the store would keep
// edges marked attached that the graph dropped.
type LiveGraph interface {
	Add(el descriptor.Element) error
	Update(el descriptor.Element) error
	Remove(id string) error
}

// ElementLookup is implemented by live graphs that can report what they hold
// under an id. When the graph provides it, an attach that collides with an
// element of the other kind replaces that element instead of counting as
// converged.
type ElementLookup interface {
	Element(id string) (descriptor.Element, bool)
}

// Result is the three-way partition computed by one pass together with what
// was actually applied.
type Result struct {
	// Planned work.
	ToAttach []string
	ToUpdate []string
	ToRemove []string

	// Applied work.
	Attached []string
	Updated  []string
	Removed  []string

	// Evicted lists ids that were known but never attached and are no longer
	// in the snapshot. They cost no graph mutation.
	Evicted []string

	Failed []*MutationError
}

// TopologyChanged reports whether any element was actually added to or removed
// from the live graph.
func (r Result) TopologyChanged() bool {
	return len(r.Attached)+len(r.Removed) > 0
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// WithMetrics records per-mutation outcomes in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Reconciler) {
		r.metrics = reg
	}
}

// Reconciler owns the diff-and-apply step for one view.
type Reconciler struct {
	store   *elementstore.Store
	graph   LiveGraph
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a reconciler over store and graph.
func New(store *elementstore.Store, graph LiveGraph, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		graph:  graph,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type pendingUpdate struct {
	el   descriptor.Element
	prev elementstore.Record
}

// Reconcile runs one pass. It never aborts part way: a mutation that fails is
// logged, reported in Result.Failed and left for the next pass to retry.
func (r *Reconciler) Reconcile(elements []descriptor.Element) Result {
	var res Result

	incoming := make(map[string]struct{}, len(elements))
	var attach []descriptor.Element
	var updates []pendingUpdate
	var remove []elementstore.Record
	// replaced holds ids whose kind flipped; the drawn element has to go
	// before the new one can be attached.
	replaced := make(map[string]descriptor.Element)

	for _, el := range elements {
		incoming[el.ID] = struct{}{}

		prev, existed := r.store.Upsert(el)
		switch {
		case !existed || !prev.Attached:
			attach = append(attach, el)
			res.ToAttach = append(res.ToAttach, el.ID)
		case prev.Element.Kind != el.Kind:
			replaced[el.ID] = el
			remove = append(remove, prev)
			attach = append(attach, el)
			res.ToRemove = append(res.ToRemove, el.ID)
			res.ToAttach = append(res.ToAttach, el.ID)
		case !prev.Element.Equal(el):
			updates = append(updates, pendingUpdate{el: el, prev: prev})
			res.ToUpdate = append(res.ToUpdate, el.ID)
		}
	}

	for _, id := range r.store.Keys() {
		if _, ok := incoming[id]; ok {
			continue
		}
		rec, _ := r.store.Get(id)
		if rec.Attached {
			remove = append(remove, rec)
			res.ToRemove = append(res.ToRemove, id)
			continue
		}
		r.store.Evict(id)
		res.Evicted = append(res.Evicted, id)
	}

	// Edges go before the nodes they hang off when removing, and after them
	// when attaching.
	slices.SortStableFunc(remove, func(a, b elementstore.Record) int {
		return cmp.Compare(b.Element.Kind, a.Element.Kind)
	})
	slices.SortStableFunc(attach, func(a, b descriptor.Element) int {
		return cmp.Compare(a.Kind, b.Kind)
	})

	blocked := make(map[string]bool)
	for _, rec := range remove {
		if err := r.mutate(OpRemove, rec.Element, func() error { return r.graph.Remove(rec.ID) }); err != nil {
			if _, ok := replaced[rec.ID]; ok {
				r.store.Restore(rec)
				blocked[rec.ID] = true
			}
			res.Failed = append(res.Failed, err)
			continue
		}
		r.store.Evict(rec.ID)
		res.Removed = append(res.Removed, rec.ID)
		if el, ok := replaced[rec.ID]; ok {
			r.store.Upsert(el)
		}
	}

	for _, el := range attach {
		if blocked[el.ID] {
			continue
		}
		if err := r.mutate(OpAttach, el, func() error { return r.add(el) }); err != nil {
			res.Failed = append(res.Failed, err)
			continue
		}
		r.store.MarkAttached(el.ID)
		res.Attached = append(res.Attached, el.ID)
	}

	for _, u := range updates {
		if err := r.mutate(OpUpdate, u.el, func() error { return r.graph.Update(u.el) }); err != nil {
			// Put the old descriptor back so the next pass sees the change again.
			r.store.Restore(u.prev)
			res.Failed = append(res.Failed, err)
			continue
		}
		res.Updated = append(res.Updated, u.el.ID)
	}

	return res
}

// add attaches el. If the graph already holds the id as the other kind, the
// stale element is removed and el added in its place.
func (r *Reconciler) add(el descriptor.Element) error {
	err := r.graph.Add(el)
	if !errors.Is(err, ErrAlreadyPresent) {
		return err
	}
	lookup, ok := r.graph.(ElementLookup)
	if !ok {
		return err
	}
	cur, ok := lookup.Element(el.ID)
	if !ok || cur.Kind == el.Kind {
		return err
	}
	r.logger.Info("replacing element of another kind",
		logging.ElementID(el.ID),
		logging.Kind(cur.Kind.String()),
	)
	if err := r.graph.Remove(el.ID); err != nil {
		return fmt.Errorf("replace %s: %w", cur, err)
	}
	return r.graph.Add(el)
}

func (r *Reconciler) mutate(op string, el descriptor.Element, fn func() error) (merr *MutationError) {
	kind := el.Kind.String()

	defer func() {
		if p := recover(); p != nil {
			merr = &MutationError{Op: op, ElementID: el.ID, Kind: kind, Cause: fmt.Errorf("%w: %v", ErrMutationPanicked, p)}
		}
		if merr != nil {
			r.logger.Warn("live graph mutation failed, will retry next pass",
				logging.Operation(op),
				logging.ElementID(el.ID),
				logging.Kind(kind),
				logging.Error(merr.Cause),
			)
		} else {
			r.logger.Debug("live graph mutated",
				logging.Operation(op),
				logging.ElementID(el.ID),
				logging.Kind(kind),
			)
		}
		if r.metrics != nil {
			var err error
			if merr != nil {
				err = merr
			}
			r.metrics.RecordMutation(op, kind, err)
		}
	}()

	err := fn()
	switch {
	case err == nil:
	case op == OpRemove && errors.Is(err, ErrAbsent):
	case op == OpAttach && errors.Is(err, ErrAlreadyPresent):
		r.logger.Debug("live graph already converged", logging.Operation(op), logging.ElementID(el.ID))
	default:
		return &MutationError{Op: op, ElementID: el.ID, Kind: kind, Cause: err}
	}
	return nil
}
