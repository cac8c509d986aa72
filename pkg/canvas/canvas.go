// Package canvas is an in-memory live graph. It accepts element mutations,
// holds per-element styles, dispatches taps to listeners, runs layouts in the
// background and renders itself to a terminal.
package canvas

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dd0wney/zonemap/pkg/descriptor"
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/metrics"
	"github.com/dd0wney/zonemap/pkg/visualization"
)

type item struct {
	el     descriptor.Element
	styles map[string]string
}

// Options configures a Canvas.
type Options struct {
	Layout       string
	LayoutConfig visualization.LayoutConfig
	Dark         bool
	Logger       logging.Logger
	Metrics      *metrics.Registry
}

// Canvas is safe for concurrent use. Layout runs write positions from their
// own goroutines; everything else is expected on the caller's event loop.
type Canvas struct {
	mu sync.RWMutex

	nodes     map[string]*item
	nodeOrder []string
	edges     map[string]*item
	edgeOrder []string

	listeners    map[uint64]func(id string)
	nextListener uint64

	layoutName   string
	layoutConfig visualization.LayoutConfig
	positions    map[string]visualization.Position
	generation   uint64
	applied      uint64

	sheet Stylesheet

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	destroyed bool

	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates an empty canvas.
func New(opts Options) (*Canvas, error) {
	if opts.Layout == "" {
		opts.Layout = visualization.DefaultLayout
	}
	if _, err := visualization.New(opts.Layout, opts.LayoutConfig); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Canvas{
		nodes:        make(map[string]*item),
		edges:        make(map[string]*item),
		listeners:    make(map[uint64]func(string)),
		layoutName:   opts.Layout,
		layoutConfig: opts.LayoutConfig,
		positions:    make(map[string]visualization.Position),
		sheet:        NewStylesheet(opts.Dark),
		ctx:          ctx,
		cancel:       cancel,
		logger:       opts.Logger.With(logging.Component("canvas")),
		metrics:      opts.Metrics,
	}, nil
}

// Add draws a new element. Edges need both endpoints drawn first.
func (c *Canvas) Add(el descriptor.Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if _, ok := c.nodes[el.ID]; ok {
		return fmt.Errorf("%w: %s", ErrElementExists, el.ID)
	}
	if _, ok := c.edges[el.ID]; ok {
		return fmt.Errorf("%w: %s", ErrElementExists, el.ID)
	}

	it := &item{el: el.Clone(), styles: make(map[string]string)}
	if el.Kind == descriptor.KindEdge {
		for _, end := range []string{el.Source, el.Target} {
			if _, ok := c.nodes[end]; !ok {
				return fmt.Errorf("%w: %s needs %s", ErrMissingEndpoint, el.ID, end)
			}
		}
		c.edges[el.ID] = it
		c.edgeOrder = append(c.edgeOrder, el.ID)
		return nil
	}

	c.nodes[el.ID] = it
	c.nodeOrder = append(c.nodeOrder, el.ID)
	return nil
}

// Update replaces the descriptor of a drawn element in place. Styles set
// through SetStyle and the element's position are kept.
func (c *Canvas) Update(el descriptor.Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	it, ok := c.lookup(el.ID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, el.ID)
	}
	if it.el.Kind != el.Kind {
		return fmt.Errorf("%w: %s is a %s", ErrKindMismatch, el.ID, it.el.Kind)
	}
	if el.Kind == descriptor.KindEdge && (el.Source != it.el.Source || el.Target != it.el.Target) {
		for _, end := range []string{el.Source, el.Target} {
			if _, ok := c.nodes[end]; !ok {
				return fmt.Errorf("%w: %s needs %s", ErrMissingEndpoint, el.ID, end)
			}
		}
	}
	it.el = el.Clone()
	return nil
}

// Remove erases an element. A node with edges is refused; the edges have to
// go first.
func (c *Canvas) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	if _, ok := c.edges[id]; ok {
		delete(c.edges, id)
		c.edgeOrder = slices.DeleteFunc(c.edgeOrder, func(e string) bool { return e == id })
		return nil
	}
	if _, ok := c.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	for _, eid := range c.edgeOrder {
		e := c.edges[eid].el
		if e.Source == id || e.Target == id {
			return fmt.Errorf("%w: %s via %s", ErrNodeHasEdges, id, eid)
		}
	}
	delete(c.nodes, id)
	delete(c.positions, id)
	c.nodeOrder = slices.DeleteFunc(c.nodeOrder, func(n string) bool { return n == id })
	return nil
}

func (c *Canvas) lookup(id string) (*item, bool) {
	if it, ok := c.nodes[id]; ok {
		return it, true
	}
	it, ok := c.edges[id]
	return it, ok
}

// Element returns a copy of the drawn element.
func (c *Canvas) Element(id string) (descriptor.Element, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.lookup(id)
	if !ok {
		return descriptor.Element{}, false
	}
	return it.el.Clone(), true
}

// NodeIDs returns drawn node ids in the order they were added.
func (c *Canvas) NodeIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.nodeOrder)
}

// EdgeIDs returns drawn edge ids in the order they were added.
func (c *Canvas) EdgeIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.edgeOrder)
}

// Len returns the number of drawn elements.
func (c *Canvas) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes) + len(c.edges)
}

// SetStyle sets an inline style on a drawn element.
func (c *Canvas) SetStyle(id, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return ErrDestroyed
	}
	it, ok := c.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	it.styles[key] = value
	return nil
}

// Style returns an inline style set with SetStyle.
func (c *Canvas) Style(id, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.lookup(id)
	if !ok {
		return "", false
	}
	v, ok := it.styles[key]
	return v, ok
}

// Styles returns a copy of every inline style on id.
func (c *Canvas) Styles(id string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.lookup(id)
	if !ok {
		return nil
	}
	return maps.Clone(it.styles)
}

// OnTap registers fn for node taps and returns its de-registration.
func (c *Canvas) OnTap(fn func(id string)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.nextListener
	c.nextListener++
	c.listeners[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, key)
			c.mu.Unlock()
		})
	}
}

// ListenerCount returns the number of registered tap listeners.
func (c *Canvas) ListenerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners)
}

// Tap simulates a user tap on node id. Listeners run on the caller's
// goroutine without the canvas lock held.
func (c *Canvas) Tap(id string) error {
	c.mu.RLock()
	if c.destroyed {
		c.mu.RUnlock()
		return ErrDestroyed
	}
	if _, ok := c.nodes[id]; !ok {
		c.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	keys := slices.Sorted(maps.Keys(c.listeners))
	fns := make([]func(string), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, c.listeners[k])
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(id)
	}
	return nil
}

// SetStylesheet swaps the stylesheet used by Render.
func (c *Canvas) SetStylesheet(sheet Stylesheet) {
	c.mu.Lock()
	c.sheet = sheet
	c.mu.Unlock()
}

// Stylesheet returns the active stylesheet.
func (c *Canvas) Stylesheet() Stylesheet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sheet
}

// Destroy cancels pending layout runs, waits for them, drops all elements
// and listeners. Later mutations fail with ErrDestroyed.
func (c *Canvas) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	c.nodes = make(map[string]*item)
	c.edges = make(map[string]*item)
	c.nodeOrder = nil
	c.edgeOrder = nil
	c.listeners = make(map[uint64]func(string))
	c.positions = make(map[string]visualization.Position)
	c.mu.Unlock()

	c.logger.Debug("canvas destroyed")
}
