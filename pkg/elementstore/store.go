// Package elementstore is the keyed registry of graph elements known to a
// view. It is the single source of truth for what the live graph contains:
// a record with Attached=true is drawn and must be kept in sync, a record with
// Attached=false is known but not drawn yet.
//
// The store never removes records on its own; eviction is driven by the
// reconciler. It is not safe for concurrent use; a view owns one store and
// touches it only from its event loop.
package elementstore

import (
	"maps"
	"slices"

	"github.com/dd0wney/zonemap/pkg/descriptor"
)

// Record is one registry entry.
type Record struct {
	ID       string
	Element  descriptor.Element
	Attached bool
}

// Store maps element ids to records and keeps insertion order.
type Store struct {
	records map[string]*Record
	order   []string
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Has reports whether id is known.
func (s *Store) Has(id string) bool {
	_, ok := s.records[id]
	return ok
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (Record, bool) {
	r, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return copyRecord(r), true
}

// Upsert inserts el with Attached=false if its id is new. A known record that
// is not attached yet takes el as a whole. An attached record keeps its kind:
// label, style class, attributes and endpoints are refreshed in place and
// Attached is left alone. It returns the record as it was before the call.
func (s *Store) Upsert(el descriptor.Element) (prev Record, existed bool) {
	r, ok := s.records[el.ID]
	if !ok {
		s.records[el.ID] = &Record{ID: el.ID, Element: el.Clone()}
		s.order = append(s.order, el.ID)
		return Record{}, false
	}

	prev = copyRecord(r)
	if !r.Attached {
		r.Element = el.Clone()
		return prev, true
	}
	r.Element.Label = el.Label
	r.Element.StyleClass = el.StyleClass
	r.Element.Attributes = maps.Clone(el.Attributes)
	if r.Element.Kind == el.Kind {
		r.Element.Source = el.Source
		r.Element.Target = el.Target
	}
	return prev, true
}

// Restore puts back a previously returned descriptor, keeping Attached. The
// reconciler uses it to roll back an in-place update the live graph rejected.
func (s *Store) Restore(prev Record) {
	r, ok := s.records[prev.ID]
	if !ok {
		return
	}
	r.Element = prev.Element.Clone()
}

// MarkAttached flags id as drawn. Unknown ids are ignored.
func (s *Store) MarkAttached(id string) {
	if r, ok := s.records[id]; ok {
		r.Attached = true
	}
}

// Evict forgets id.
func (s *Store) Evict(id string) {
	if _, ok := s.records[id]; !ok {
		return
	}
	delete(s.records, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// Keys returns every known id in insertion order.
func (s *Store) Keys() []string {
	return slices.Clone(s.order)
}

// AllAttached returns copies of the attached records in insertion order.
func (s *Store) AllAttached() []Record {
	out := make([]Record, 0, len(s.records))
	for _, id := range s.order {
		if r := s.records[id]; r.Attached {
			out = append(out, copyRecord(r))
		}
	}
	return out
}

func copyRecord(r *Record) Record {
	return Record{ID: r.ID, Element: r.Element.Clone(), Attached: r.Attached}
}
