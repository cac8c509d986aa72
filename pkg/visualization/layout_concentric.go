package visualization

import (
	"cmp"
	"context"
	"math"
	"slices"
)

// ConcentricLayout puts the best connected nodes in the middle and rings of
// decreasing degree around them.
type ConcentricLayout struct {
	config *LayoutConfig
}

// NewConcentricLayout creates a new concentric layout
func NewConcentricLayout(config *LayoutConfig) *ConcentricLayout {
	return &ConcentricLayout{config: withPadding(config)}
}

// ComputeLayout groups nodes by degree, one ring per distinct degree
func (cl *ConcentricLayout) ComputeLayout(_ context.Context, topo Topology) (map[string]Position, error) {
	positions := make(map[string]Position, len(topo.Nodes))
	if len(topo.Nodes) == 0 {
		return positions, nil
	}

	adj := neighbours(topo)
	degrees := make([]int, 0)
	rings := make(map[int][]string)
	for _, id := range topo.Nodes {
		d := len(adj[id])
		if _, ok := rings[d]; !ok {
			degrees = append(degrees, d)
		}
		rings[d] = append(rings[d], id)
	}
	slices.SortFunc(degrees, func(a, b int) int { return cmp.Compare(b, a) })

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	maxRadius := math.Min(centerX, centerY) - cl.config.Padding

	// A lone best-connected node sits on the centre
	centred := len(rings[degrees[0]]) == 1
	slots := len(degrees)
	if centred {
		slots--
	}
	step := 0.0
	if slots > 0 {
		step = maxRadius / float64(slots)
	}

	for ringIdx, d := range degrees {
		ring := rings[d]
		level := ringIdx + 1
		if centred {
			level = ringIdx
		}
		radius := step * float64(level)

		angleStep := 2 * math.Pi / float64(len(ring))
		for i, id := range ring {
			angle := float64(i) * angleStep
			positions[id] = Position{
				X: centerX + radius*math.Cos(angle),
				Y: centerY + radius*math.Sin(angle),
			}
		}
	}
	return positions, nil
}
