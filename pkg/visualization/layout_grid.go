package visualization

import (
	"context"
	"math"
)

// GridLayout places nodes in row-major order on an evenly spaced grid
type GridLayout struct {
	config *LayoutConfig
}

// NewGridLayout creates a new grid layout
func NewGridLayout(config *LayoutConfig) *GridLayout {
	return &GridLayout{config: withPadding(config)}
}

// ComputeLayout places nodes in cell centres, filling rows first
func (gl *GridLayout) ComputeLayout(_ context.Context, topo Topology) (map[string]Position, error) {
	n := len(topo.Nodes)
	positions := make(map[string]Position, n)
	if n == 0 {
		return positions, nil
	}

	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	cellW := (gl.config.Width - 2*gl.config.Padding) / float64(cols)
	cellH := (gl.config.Height - 2*gl.config.Padding) / float64(rows)

	for i, id := range topo.Nodes {
		row, col := i/cols, i%cols
		positions[id] = Position{
			X: gl.config.Padding + cellW*(float64(col)+0.5),
			Y: gl.config.Padding + cellH*(float64(row)+0.5),
		}
	}
	return positions, nil
}
