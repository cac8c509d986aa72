package visualization

import (
	"context"
	"errors"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed connection between two node ids
type Edge struct {
	Source string
	Target string
}

// Topology is the node and edge set a layout positions. Node order is the
// order layouts place nodes in when they have no better criterion.
type Topology struct {
	Nodes []string
	Edges []Edge
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for randomised layouts, 0 picks one
}

// Layout interface for different layout algorithms
type Layout interface {
	ComputeLayout(ctx context.Context, topo Topology) (map[string]Position, error)
}

// Layout names
const (
	LayoutRandom       = "random"
	LayoutGrid         = "grid"
	LayoutCircle       = "circle"
	LayoutCose         = "cose"
	LayoutConcentric   = "concentric"
	LayoutBreadthFirst = "breadthfirst"
)

// DefaultLayout is used when no layout is configured.
const DefaultLayout = LayoutCose

// ErrUnknownLayout is returned by New for a name it does not recognise.
var ErrUnknownLayout = errors.New("unknown layout")
