package reconcile

import (
	"errors"
	"fmt"

	"github.com/dd0wney/zonemap/pkg/descriptor"
)

var errInjected = errors.New("injected failure")

// fakeGraph is an in-memory LiveGraph that enforces the same structural rules
// as the canvas: edges need both endpoints, nodes with edges cannot be removed.
type fakeGraph struct {
	elements map[string]descriptor.Element
	ops      []string

	failAdd    map[string]int
	failUpdate map[string]int
	failRemove map[string]int
	panicOn    map[string]bool
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		elements:   make(map[string]descriptor.Element),
		failAdd:    make(map[string]int),
		failUpdate: make(map[string]int),
		failRemove: make(map[string]int),
		panicOn:    make(map[string]bool),
	}
}

func consume(m map[string]int, id string) bool {
	if m[id] > 0 {
		m[id]--
		return true
	}
	return false
}

func (g *fakeGraph) Add(el descriptor.Element) error {
	g.ops = append(g.ops, "add "+el.ID)
	if g.panicOn[el.ID] {
		panic("renderer exploded")
	}
	if consume(g.failAdd, el.ID) {
		return errInjected
	}
	if _, ok := g.elements[el.ID]; ok {
		return fmt.Errorf("add %s: %w", el.ID, ErrAlreadyPresent)
	}
	if el.Kind == descriptor.KindEdge {
		if _, ok := g.elements[el.Source]; !ok {
			return fmt.Errorf("edge %s: missing source %s", el.ID, el.Source)
		}
		if _, ok := g.elements[el.Target]; !ok {
			return fmt.Errorf("edge %s: missing target %s", el.ID, el.Target)
		}
	}
	g.elements[el.ID] = el.Clone()
	return nil
}

func (g *fakeGraph) Update(el descriptor.Element) error {
	g.ops = append(g.ops, "update "+el.ID)
	if consume(g.failUpdate, el.ID) {
		return errInjected
	}
	cur, ok := g.elements[el.ID]
	if !ok {
		return fmt.Errorf("update %s: not found", el.ID)
	}
	if cur.Kind != el.Kind {
		return fmt.Errorf("update %s: is a %s", el.ID, cur.Kind)
	}
	g.elements[el.ID] = el.Clone()
	return nil
}

func (g *fakeGraph) Remove(id string) error {
	g.ops = append(g.ops, "remove "+id)
	if consume(g.failRemove, id) {
		return errInjected
	}
	if _, ok := g.elements[id]; !ok {
		return fmt.Errorf("remove %s: %w", id, ErrAbsent)
	}
	for _, e := range g.elements {
		if e.Kind == descriptor.KindEdge && (e.Source == id || e.Target == id) {
			return fmt.Errorf("remove %s: still connected by %s", id, e.ID)
		}
	}
	delete(g.elements, id)
	return nil
}

func (g *fakeGraph) Element(id string) (descriptor.Element, bool) {
	el, ok := g.elements[id]
	return el, ok
}

func (g *fakeGraph) resetOps() {
	g.ops = nil
}

type countingRunner struct {
	runs int
}

func (c *countingRunner) RunLayout() {
	c.runs++
}
