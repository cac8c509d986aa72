package visualization

import (
	"context"
	"math"
)

// ForceDirectedLayout implements force-directed graph layout. It backs the
// "cose" layout name.
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	return &ForceDirectedLayout{config: withPadding(config)}
}

// ComputeLayout computes positions using force-directed algorithm. It stops
// early with ctx.Err() when ctx is cancelled between iterations.
func (fdl *ForceDirectedLayout) ComputeLayout(ctx context.Context, topo Topology) (map[string]Position, error) {
	nodeIDs := topo.Nodes
	if len(nodeIDs) == 0 {
		return make(map[string]Position), nil
	}

	// Single node - center it
	if len(nodeIDs) == 1 {
		return map[string]Position{
			nodeIDs[0]: {
				X: fdl.config.Width / 2,
				Y: fdl.config.Height / 2,
			},
		}, nil
	}

	rng := newRand(fdl.config.Seed)
	positions := make(map[string]Position, len(nodeIDs))
	for _, id := range nodeIDs {
		positions[id] = Position{
			X: rng.Float64()*(fdl.config.Width-2*fdl.config.Padding) + fdl.config.Padding,
			Y: rng.Float64()*(fdl.config.Height-2*fdl.config.Padding) + fdl.config.Padding,
		}
	}

	adj := neighbours(topo)

	k := math.Sqrt((fdl.config.Width * fdl.config.Height) / float64(len(nodeIDs))) // Optimal distance
	temperature := fdl.config.Width / 10.0

	for iter := 0; iter < fdl.config.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		forces := make(map[string]Position, len(nodeIDs))

		// Repulsion between all nodes
		for i, id1 := range nodeIDs {
			for j := i + 1; j < len(nodeIDs); j++ {
				id2 := nodeIDs[j]
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)

				if dist < 0.01 {
					dist = 0.01
				}

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[id1] = Position{X: forces[id1].X + fx, Y: forces[id1].Y + fy}
				forces[id2] = Position{X: forces[id2].X - fx, Y: forces[id2].Y - fy}
			}
		}

		// Attraction between connected nodes
		for _, id1 := range nodeIDs {
			for id2 := range adj[id1] {
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)

				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[id1] = Position{X: forces[id1].X - fx, Y: forces[id1].Y - fy}
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(fdl.config.Iterations)
		for _, id := range nodeIDs {
			fx := forces[id].X
			fy := forces[id].Y
			force := math.Sqrt(fx*fx + fy*fy)

			if force > 0 {
				positions[id] = Position{
					X: positions[id].X + (fx/force)*math.Min(force, temperature)*cool,
					Y: positions[id].Y + (fy/force)*math.Min(force, temperature)*cool,
				}
			}
		}

		temperature *= 0.95
	}

	return normalizePositions(positions, fdl.config.Width, fdl.config.Height, fdl.config.Padding), nil
}
