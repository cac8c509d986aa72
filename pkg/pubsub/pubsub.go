// Package pubsub fans messages out to topic subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the message and the drop
// is reported to the publisher.
package pubsub

import (
	"context"
	"errors"
	"sync"
)

// TopicSnapshots carries mapdata.Snapshot values from a feed to view hosts.
const TopicSnapshots = "snapshots"

// DefaultBuffer is the per-subscription channel capacity.
const DefaultBuffer = 16

// ErrShutdown is returned by Subscribe after Shutdown.
var ErrShutdown = errors.New("pubsub: shut down")

// PubSub provides publish/subscribe for values of type T
type PubSub[T any] struct {
	subscribers map[string]map[*Subscription[T]]bool
	mu          sync.RWMutex
	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	buffer      int
}

// Subscription represents a subscription to a topic
type Subscription[T any] struct {
	topic     string
	channel   chan T
	ps        *PubSub[T]
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Delivery reports how one Publish fared.
type Delivery struct {
	Delivered int
	Dropped   int
}

// New creates a PubSub whose subscriptions buffer up to buffer messages.
// A non-positive buffer uses DefaultBuffer.
func New[T any](buffer int) *PubSub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &PubSub[T]{
		subscribers: make(map[string]map[*Subscription[T]]bool),
		shutdown:    make(chan struct{}),
		buffer:      buffer,
	}
}

// Subscribe creates a new subscription to a topic. It ends when ctx is
// cancelled, Unsubscribe is called or the PubSub shuts down.
func (ps *PubSub[T]) Subscribe(ctx context.Context, topic string) (*Subscription[T], error) {
	ps.shutdownMu.Lock()
	defer ps.shutdownMu.Unlock()
	if ps.isShutdown {
		return nil, ErrShutdown
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		topic:   topic,
		channel: make(chan T, ps.buffer),
		ps:      ps,
		cancel:  cancel,
	}

	ps.mu.Lock()
	if ps.subscribers[topic] == nil {
		ps.subscribers[topic] = make(map[*Subscription[T]]bool)
	}
	ps.subscribers[topic][sub] = true
	ps.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-ps.shutdown:
			sub.cancel()
		}
	}()

	return sub, nil
}

// Publish sends a message to all subscribers of a topic without blocking.
func (ps *PubSub[T]) Publish(topic string, message T) Delivery {
	var d Delivery

	// Holding the read lock across the sends keeps close() from racing them.
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for sub := range ps.subscribers[topic] {
		select {
		case sub.channel <- message:
			d.Delivered++
		default:
			d.Dropped++
		}
	}
	return d
}

// SubscriberCount returns the number of subscribers for a topic
func (ps *PubSub[T]) SubscriberCount(topic string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[topic])
}

// Shutdown closes all subscriptions and shuts down the PubSub
func (ps *PubSub[T]) Shutdown() {
	ps.shutdownMu.Lock()
	if ps.isShutdown {
		ps.shutdownMu.Unlock()
		return
	}
	ps.isShutdown = true
	close(ps.shutdown)
	ps.shutdownMu.Unlock()

	ps.mu.Lock()
	for topic, subs := range ps.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(ps.subscribers, topic)
	}
	ps.mu.Unlock()
}

// Channel returns the subscription's message channel. It is closed when the
// subscription ends.
func (s *Subscription[T]) Channel() <-chan T {
	return s.channel
}

// Unsubscribe removes the subscription
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()

	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()

	if subs := s.ps.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ps.subscribers, s.topic)
		}
	}

	s.close()
}

func (s *Subscription[T]) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
