package visualization

import (
	"math"
	"math/rand"
	"time"
)

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions map[string]Position, width, height, padding float64) map[string]Position {
	if len(positions) == 0 {
		return positions
	}

	// Find bounds
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	normalized := make(map[string]Position, len(positions))
	for id, pos := range positions {
		normalized[id] = Position{
			X: padding + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + ((pos.Y-minY)/rangeY)*targetHeight,
		}
	}

	return normalized
}

// neighbours returns the undirected adjacency of topo. Edges whose endpoints
// are not in the node set are ignored, as are self loops.
func neighbours(topo Topology) map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(topo.Nodes))
	for _, id := range topo.Nodes {
		adj[id] = make(map[string]bool)
	}
	for _, e := range topo.Edges {
		if e.Source == e.Target {
			continue
		}
		if adj[e.Source] == nil || adj[e.Target] == nil {
			continue
		}
		adj[e.Source][e.Target] = true
		adj[e.Target][e.Source] = true
	}
	return adj
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func withPadding(config *LayoutConfig) *LayoutConfig {
	if config.Padding == 0 {
		config.Padding = 50
	}
	return config
}
