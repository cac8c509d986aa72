package feed

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/pubsub"
)

var inprocSeq atomic.Int32

func inprocAddr() string {
	return fmt.Sprintf("inproc://zonemap-feed-%d", inprocSeq.Add(1))
}

func TestWireRoundTrip(t *testing.T) {
	msg, err := encodeWire(sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, snapshotTopic, string(msg[:len(snapshotTopic)]))

	snap, err := decodeWire(msg)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), snap)

	_, err = decodeWire([]byte("WAL:xyz"))
	assert.ErrorIs(t, err, errBadFrame)
	_, err = decodeWire([]byte(snapshotTopic + "not snappy"))
	assert.Error(t, err)
}

func TestNNGSourceReceivesFromRelay(t *testing.T) {
	addr := inprocAddr()
	relay, err := NewNNGRelay(addr)
	require.NoError(t, err)
	defer relay.Close()

	src := NewNNGSource(addr, 50*time.Millisecond)
	defer src.Close()
	assert.Equal(t, KindNNG, src.Kind())

	// SUB sockets miss messages sent before they connect, so keep
	// publishing until one lands.
	var snap mapdata.Snapshot
	require.Eventually(t, func() bool {
		if err := relay.Publish(sampleSnapshot()); err != nil {
			return false
		}
		got, err := src.Fetch(context.Background())
		if err != nil {
			return false
		}
		snap = got
		return true
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, sampleSnapshot(), snap)
}

func TestNNGSourceTimesOut(t *testing.T) {
	addr := inprocAddr()
	relay, err := NewNNGRelay(addr)
	require.NoError(t, err)
	defer relay.Close()

	src := NewNNGSource(addr, 20*time.Millisecond)
	defer src.Close()

	_, err = src.Fetch(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindNNG, fe.Source)
	assert.Equal(t, addr, fe.Target)
}

func TestNNGSourceCancelledContext(t *testing.T) {
	src := NewNNGSource(inprocAddr(), time.Second)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNNGRelayRunForwardsBus(t *testing.T) {
	addr := inprocAddr()
	relay, err := NewNNGRelay(addr)
	require.NoError(t, err)
	defer relay.Close()

	bus := pubsub.New[mapdata.Snapshot](4)
	defer bus.Shutdown()
	sub, err := bus.Subscribe(context.Background(), pubsub.TopicSnapshots)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, sub, nil) }()

	src := NewNNGSource(addr, 50*time.Millisecond)
	defer src.Close()

	require.Eventually(t, func() bool {
		bus.Publish(pubsub.TopicSnapshots, sampleSnapshot())
		_, err := src.Fetch(context.Background())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestNewNNGRelayBadAddress(t *testing.T) {
	_, err := NewNNGRelay("bogus://nowhere")
	assert.Error(t, err)
}
