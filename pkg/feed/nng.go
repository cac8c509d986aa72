package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/snappy"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/pubsub"
)

// snapshotTopic prefixes every snapshot message on the wire. SUB sockets
// filter on it.
const snapshotTopic = "SNAP:"

// drainDeadline bounds each extra receive when skipping to the newest
// queued snapshot.
const drainDeadline = 5 * time.Millisecond

// NNGSource subscribes to snapshots pushed by an NNGRelay (or any PUB
// socket speaking the same framing). Fetch returns the newest queued
// snapshot, waiting up to the timeout for one to arrive.
type NNGSource struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	sock mangos.Socket
}

// NewNNGSource creates a source that dials addr on first Fetch.
func NewNNGSource(addr string, timeout time.Duration) *NNGSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &NNGSource{addr: addr, timeout: timeout}
}

// Kind implements Source.
func (s *NNGSource) Kind() string {
	return KindNNG
}

func (s *NNGSource) connect() error {
	if s.sock != nil {
		return nil
	}
	sock, err := sub.NewSocket()
	if err != nil {
		return fmt.Errorf("create SUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSubscribe, []byte(snapshotTopic)); err != nil {
		sock.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	// Asynchronous dial so a relay that is not up yet is retried in the
	// background instead of failing the poll.
	if err := sock.DialOptions(s.addr, map[string]any{mangos.OptionDialAsynch: true}); err != nil {
		sock.Close()
		return fmt.Errorf("dial %s: %w", s.addr, err)
	}
	s.sock = sock
	return nil
}

// Fetch implements Source.
func (s *NNGSource) Fetch(ctx context.Context) (mapdata.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return mapdata.Snapshot{}, err
	}
	if err := s.connect(); err != nil {
		return mapdata.Snapshot{}, &FetchError{Source: KindNNG, Target: s.addr, Cause: err}
	}

	wait := s.timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < wait {
		wait = time.Until(dl)
	}
	if wait <= 0 {
		return mapdata.Snapshot{}, context.DeadlineExceeded
	}
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, wait); err != nil {
		return mapdata.Snapshot{}, &FetchError{Source: KindNNG, Target: s.addr, Cause: err}
	}
	latest, err := s.sock.Recv()
	if err != nil {
		return mapdata.Snapshot{}, &FetchError{Source: KindNNG, Target: s.addr, Cause: err}
	}

	// Skip anything older than the newest queued message.
	if err := s.sock.SetOption(mangos.OptionRecvDeadline, drainDeadline); err == nil {
		for {
			msg, err := s.sock.Recv()
			if err != nil {
				break
			}
			latest = msg
		}
	}

	snap, err := decodeWire(latest)
	if err != nil {
		return mapdata.Snapshot{}, &FetchError{Source: KindNNG, Target: s.addr, Cause: err}
	}
	return snap, nil
}

// Close releases the socket.
func (s *NNGSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sock == nil {
		return nil
	}
	err := s.sock.Close()
	s.sock = nil
	return err
}

// NNGRelay republishes snapshots on a PUB socket so other map hosts can
// follow this one without polling the backend themselves.
type NNGRelay struct {
	addr string
	sock mangos.Socket
}

// NewNNGRelay listens on addr (e.g. tcp://:7451).
func NewNNGRelay(addr string) (*NNGRelay, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &NNGRelay{addr: addr, sock: sock}, nil
}

// Publish sends one snapshot to every connected subscriber.
func (r *NNGRelay) Publish(snap mapdata.Snapshot) error {
	msg, err := encodeWire(snap)
	if err != nil {
		return err
	}
	return r.sock.Send(msg)
}

// Run forwards every snapshot from sub until ctx is done or the
// subscription closes.
func (r *NNGRelay) Run(ctx context.Context, sub *pubsub.Subscription[mapdata.Snapshot], logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("relay"), logging.String("addr", r.addr))
	logger.Info("snapshot relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-sub.Channel():
			if !ok {
				return pubsub.ErrShutdown
			}
			if err := r.Publish(snap); err != nil {
				logger.Warn("relay publish failed", logging.Error(err))
			}
		}
	}
}

// Close stops listening.
func (r *NNGRelay) Close() error {
	return r.sock.Close()
}

func encodeWire(snap mapdata.Snapshot) ([]byte, error) {
	data, err := mapdata.EncodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	return append([]byte(snapshotTopic), snappy.Encode(nil, data)...), nil
}

var errBadFrame = errors.New("message without snapshot topic")

func decodeWire(msg []byte) (mapdata.Snapshot, error) {
	if !bytes.HasPrefix(msg, []byte(snapshotTopic)) {
		return mapdata.Snapshot{}, errBadFrame
	}
	data, err := snappy.Decode(nil, msg[len(snapshotTopic):])
	if err != nil {
		return mapdata.Snapshot{}, fmt.Errorf("snappy decode: %w", err)
	}
	return mapdata.DecodeSnapshot(data)
}
