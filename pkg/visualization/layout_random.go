package visualization

import "context"

// RandomLayout scatters nodes uniformly inside the padded canvas
type RandomLayout struct {
	config *LayoutConfig
}

// NewRandomLayout creates a new random layout
func NewRandomLayout(config *LayoutConfig) *RandomLayout {
	return &RandomLayout{config: withPadding(config)}
}

// ComputeLayout assigns each node a random position
func (rl *RandomLayout) ComputeLayout(_ context.Context, topo Topology) (map[string]Position, error) {
	rng := newRand(rl.config.Seed)
	positions := make(map[string]Position, len(topo.Nodes))
	for _, id := range topo.Nodes {
		positions[id] = Position{
			X: rl.config.Padding + rng.Float64()*(rl.config.Width-2*rl.config.Padding),
			Y: rl.config.Padding + rng.Float64()*(rl.config.Height-2*rl.config.Padding),
		}
	}
	return positions, nil
}
