package feed

import (
	"context"
	"sync"
	"time"

	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/metrics"
	"github.com/dd0wney/zonemap/pkg/pubsub"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 30 * time.Second

// Poller fetches from a source on a fixed interval and publishes each
// snapshot on pubsub.TopicSnapshots. It never touches a view directly.
type Poller struct {
	source   Source
	interval time.Duration
	bus      *pubsub.PubSub[mapdata.Snapshot]
	logger   logging.Logger
	metrics  *metrics.Registry

	mu     sync.Mutex
	status Status
}

// Status describes the most recent poll attempts.
type Status struct {
	Interval    time.Duration
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   error
	Failures    int // consecutive
}

// NewPoller creates a poller. reg may be nil; a nil logger falls back to
// logging.DefaultLogger.
func NewPoller(source Source, interval time.Duration, bus *pubsub.PubSub[mapdata.Snapshot], logger logging.Logger, reg *metrics.Registry) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Poller{
		source:   source,
		interval: interval,
		bus:      bus,
		logger:   logger.With(logging.Component("feed"), logging.String("source", source.Kind())),
		metrics:  reg,
	}
}

// Run polls immediately and then every interval until ctx is done. Fetch
// errors are logged and the next tick retries.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("feed poller started", logging.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("snapshot fetch failed", logging.Error(err))
		}

		select {
		case <-ctx.Done():
			p.logger.Info("feed poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches one snapshot and publishes it.
func (p *Poller) Poll(ctx context.Context) (pubsub.Delivery, error) {
	start := time.Now()
	snap, err := p.source.Fetch(ctx)
	if p.metrics != nil {
		p.metrics.RecordFeedFetch(p.source.Kind(), time.Since(start), err)
	}
	p.recordAttempt(start, err)
	if err != nil {
		return pubsub.Delivery{}, err
	}

	d := p.bus.Publish(pubsub.TopicSnapshots, snap)
	p.logger.Debug("snapshot published",
		logging.Int("zones", len(snap.Zones)),
		logging.Int("portals", len(snap.Portals)),
		logging.Int("delivered", d.Delivered),
		logging.Latency(time.Since(start)),
	)
	if d.Dropped > 0 {
		p.logger.Warn("snapshot dropped by slow subscriber", logging.Count(d.Dropped))
		if p.metrics != nil {
			for i := 0; i < d.Dropped; i++ {
				p.metrics.RecordSnapshotDropped()
			}
		}
	}
	return d, nil
}

func (p *Poller) recordAttempt(at time.Time, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastAttempt = at
	p.status.LastError = err
	if err != nil {
		p.status.Failures++
		return
	}
	p.status.LastSuccess = at
	p.status.Failures = 0
}

// Status returns a copy of the poll status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.status
	st.Interval = p.interval
	return st
}
