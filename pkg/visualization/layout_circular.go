package visualization

import (
	"context"
	"math"
)

// CircularLayout arranges nodes in a circle
type CircularLayout struct {
	config *LayoutConfig
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	return &CircularLayout{config: withPadding(config)}
}

// ComputeLayout arranges nodes in a circle in topology order
func (cl *CircularLayout) ComputeLayout(_ context.Context, topo Topology) (map[string]Position, error) {
	positions := make(map[string]Position, len(topo.Nodes))

	if len(topo.Nodes) == 0 {
		return positions, nil
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding

	angleStep := 2 * math.Pi / float64(len(topo.Nodes))

	for i, id := range topo.Nodes {
		angle := float64(i) * angleStep
		positions[id] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}

	return positions, nil
}
