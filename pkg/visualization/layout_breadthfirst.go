package visualization

import "context"

// BreadthFirstLayout arranges nodes in levels by BFS distance from the roots
type BreadthFirstLayout struct {
	config *LayoutConfig
}

// NewBreadthFirstLayout creates a new breadth-first layout
func NewBreadthFirstLayout(config *LayoutConfig) *BreadthFirstLayout {
	return &BreadthFirstLayout{config: withPadding(config)}
}

// ComputeLayout arranges nodes level by level following edge direction
func (bl *BreadthFirstLayout) ComputeLayout(_ context.Context, topo Topology) (map[string]Position, error) {
	positions := make(map[string]Position, len(topo.Nodes))

	if len(topo.Nodes) == 0 {
		return positions, nil
	}

	known := make(map[string]bool, len(topo.Nodes))
	for _, id := range topo.Nodes {
		known[id] = true
	}
	outgoing := make(map[string][]string)
	hasIncoming := make(map[string]bool)
	for _, e := range topo.Edges {
		if !known[e.Source] || !known[e.Target] || e.Source == e.Target {
			continue
		}
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		hasIncoming[e.Target] = true
	}

	// Roots are nodes with no incoming edges
	roots := make([]string, 0)
	for _, id := range topo.Nodes {
		if !hasIncoming[id] {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		// Every node sits on a cycle, start from the first one
		roots = []string{topo.Nodes[0]}
	}

	levels := make([][]string, 0)
	visited := make(map[string]bool, len(topo.Nodes))
	for _, id := range roots {
		visited[id] = true
	}
	currentLevel := roots

	for len(currentLevel) > 0 {
		levels = append(levels, currentLevel)
		nextLevel := make([]string, 0)

		for _, id := range currentLevel {
			for _, to := range outgoing[id] {
				if !visited[to] {
					nextLevel = append(nextLevel, to)
					visited[to] = true
				}
			}
		}

		currentLevel = nextLevel
	}

	// Nodes only reachable through a cycle land on the last level
	for _, id := range topo.Nodes {
		if !visited[id] {
			levels[len(levels)-1] = append(levels[len(levels)-1], id)
		}
	}

	levelHeight := (bl.config.Height - 2*bl.config.Padding) / float64(len(levels))
	levelWidth := bl.config.Width - 2*bl.config.Padding

	for levelIdx, level := range levels {
		y := bl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)

		for nodeIdx, id := range level {
			positions[id] = Position{X: bl.config.Padding + spacing*float64(nodeIdx+1), Y: y}
		}
	}

	return positions, nil
}
