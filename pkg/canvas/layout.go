package canvas

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/visualization"
)

// Layout run outcomes recorded in metrics.
const (
	OutcomeApplied   = "applied"
	OutcomeStale     = "stale"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// SetLayout selects the layout used by later runs.
func (c *Canvas) SetLayout(name string) error {
	if _, err := visualization.New(name, c.layoutConfig); err != nil {
		return err
	}
	c.mu.Lock()
	c.layoutName = name
	c.mu.Unlock()
	return nil
}

// LayoutName returns the selected layout.
func (c *Canvas) LayoutName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layoutName
}

// RunLayout starts a layout over the current topology and returns at once.
// Runs are not queued: each one completes, but its positions are applied only
// if no newer run has already been applied.
func (c *Canvas) RunLayout() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	name := c.layoutName
	topo := c.topologyLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	// Constructed per run so randomised layouts do not share a source.
	layout, err := visualization.New(name, c.layoutConfig)
	if err != nil {
		c.wg.Done()
		c.logger.Error("layout unavailable", logging.String("layout", name), logging.Error(err))
		return
	}

	go c.runLayout(c.ctx, gen, name, layout, topo)
}

func (c *Canvas) runLayout(ctx context.Context, gen uint64, name string, layout visualization.Layout, topo visualization.Topology) {
	defer c.wg.Done()

	start := time.Now()
	positions, err := layout.ComputeLayout(ctx, topo)
	elapsed := time.Since(start)

	outcome := OutcomeApplied
	switch {
	case errors.Is(err, context.Canceled):
		outcome = OutcomeCancelled
	case err != nil:
		outcome = OutcomeFailed
		c.logger.Warn("layout run failed", logging.String("layout", name), logging.Error(err))
	default:
		c.mu.Lock()
		if c.destroyed || gen <= c.applied {
			outcome = OutcomeStale
		} else {
			c.applied = gen
			c.positions = positions
		}
		c.mu.Unlock()
	}

	c.logger.Debug("layout run finished",
		logging.String("layout", name),
		logging.Int64("generation", int64(gen)),
		logging.String("outcome", outcome),
		logging.Latency(elapsed),
	)
	if c.metrics != nil {
		c.metrics.RecordLayoutRun(name, outcome, elapsed)
	}
}

func (c *Canvas) topologyLocked() visualization.Topology {
	topo := visualization.Topology{
		Nodes: append([]string(nil), c.nodeOrder...),
		Edges: make([]visualization.Edge, 0, len(c.edgeOrder)),
	}
	for _, id := range c.edgeOrder {
		e := c.edges[id].el
		topo.Edges = append(topo.Edges, visualization.Edge{Source: e.Source, Target: e.Target})
	}
	return topo
}

// WaitLayout blocks until every started layout run has finished.
func (c *Canvas) WaitLayout() {
	c.wg.Wait()
}

// LayoutGeneration returns the number of runs started and the generation of
// the run whose positions are currently applied.
func (c *Canvas) LayoutGeneration() (started, applied uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, c.applied
}

// Positions returns a copy of the applied node positions. Nodes added after
// the last applied run have no position yet.
func (c *Canvas) Positions() map[string]visualization.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]visualization.Position, len(c.positions))
	for id, p := range c.positions {
		if _, ok := c.nodes[id]; ok {
			out[id] = p
		}
	}
	return out
}
