// Package selection tracks which zone the user has tapped and highlights it on
// the live graph.
package selection

import (
	"errors"
	"sync"

	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/metrics"
)

// Highlight styling applied to the active node.
const (
	StyleBorderColor = "border-color"
	StyleBorderWidth = "border-width"

	ActiveBorderColor = "#ea80fc"
	ActiveBorderWidth = "2"
	IdleBorderWidth   = "0"
)

// ErrAlreadyBound is returned by Bind when a graph is already bound.
var ErrAlreadyBound = errors.New("selection already bound to a graph")

// Graph is the part of the live graph selection needs. OnTap returns a
// function that removes the listener.
type Graph interface {
	NodeIDs() []string
	SetStyle(id, key, value string) error
	OnTap(fn func(id string)) (unsubscribe func())
}

// Selection holds the active node id for one view.
type Selection struct {
	mu          sync.Mutex
	graph       Graph
	unsubscribe func()
	active      string
	onNodeClick func(id string)
	logger      logging.Logger
	metrics     *metrics.Registry
}

// New creates a selection. onNodeClick may be nil.
func New(onNodeClick func(id string), logger logging.Logger, reg *metrics.Registry) *Selection {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Selection{
		onNodeClick: onNodeClick,
		logger:      logger,
		metrics:     reg,
	}
}

// Bind registers a tap listener on graph.
func (s *Selection) Bind(graph Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph != nil {
		return ErrAlreadyBound
	}
	s.graph = graph
	s.unsubscribe = graph.OnTap(s.Tap)
	return nil
}

// Close removes the tap listener. It is safe to call more than once.
func (s *Selection) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.graph = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Active returns the id of the last tapped node, or "" if none.
func (s *Selection) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Tap marks id active, notifies the callback and restyles the nodes currently
// on the graph. Only styles change.
func (s *Selection) Tap(id string) {
	s.mu.Lock()
	graph := s.graph
	s.active = id
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordSelection()
	}
	if s.onNodeClick != nil {
		s.onNodeClick(id)
	}
	if graph == nil {
		return
	}

	for _, node := range graph.NodeIDs() {
		var err error
		if node == id {
			err = errors.Join(
				graph.SetStyle(node, StyleBorderColor, ActiveBorderColor),
				graph.SetStyle(node, StyleBorderWidth, ActiveBorderWidth),
			)
		} else {
			err = graph.SetStyle(node, StyleBorderWidth, IdleBorderWidth)
		}
		if err != nil {
			s.logger.Warn("failed to restyle node", logging.ElementID(node), logging.Error(err))
		}
	}
}
