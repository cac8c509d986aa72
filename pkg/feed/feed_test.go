package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/metrics"
	"github.com/dd0wney/zonemap/pkg/pubsub"
)

const zonesJSON = `[
  {"name": "Thetford", "type": "CITY", "color": "blue"},
  {"name": "Fort Sterling", "type": "TUNNEL_HIDEOUT", "color": "red",
   "resources": [{"tier": 6, "name": "ore"}], "markers": ["chest"]}
]`

const portalsJSON = `[
  {"source": "Thetford", "target": "Fort Sterling", "size": 7, "timeLeft": 45}
]`

func sampleSnapshot() mapdata.Snapshot {
	return mapdata.Snapshot{
		Zones: []mapdata.Zone{
			{Name: "A", Color: mapdata.ColorBlack},
			{Name: "B", Color: mapdata.ColorRoad, Markers: []string{"chest"}},
		},
		Portals: []mapdata.Portal{{Source: "A", Target: "B", Size: mapdata.Size20, TimeLeft: 12.5}},
	}
}

func TestFileSourceYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, WriteFile(path, sampleSnapshot()))

	src := NewFileSource(path)
	assert.Equal(t, KindFile, src.Kind())

	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), snap)
}

func TestFileSourceCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml"+CompressedExt)
	require.NoError(t, WriteFile(path, sampleSnapshot()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = mapdata.DecodeSnapshot(raw)
	assert.Error(t, err, "file should not be plain YAML")

	snap, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), snap)
}

func TestFileSourceJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	doc := `{"zones": ` + zonesJSON + `, "portals": ` + portalsJSON + `}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	snap, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Zones, 2)
	assert.Equal(t, "Fort Sterling", snap.Portals[0].Target)
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFileSource(filepath.Join(dir, "missing.yaml")).Fetch(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindFile, fe.Source)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = NewFileSource(empty).Fetch(context.Background())
	assert.ErrorIs(t, err, mapdata.ErrEmptySnapshot)

	garbled := filepath.Join(dir, "garbled.sz")
	require.NoError(t, os.WriteFile(garbled, []byte("not snappy"), 0o644))
	_, err = NewFileSource(garbled).Fetch(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFileSource(empty).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func newBackend(t *testing.T, zonesStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/zones", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(zonesStatus)
		_, _ = w.Write([]byte(zonesJSON))
	})
	mux.HandleFunc("/portals", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(portalsJSON))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource(t *testing.T) {
	srv := newBackend(t, http.StatusOK)

	src := NewHTTPSource(srv.URL+"/zones", srv.URL+"/portals", time.Second)
	assert.Equal(t, KindHTTP, src.Kind())

	snap, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Zones, 2)
	require.Len(t, snap.Portals, 1)
	assert.Equal(t, "T6 ore", snap.Zones[1].ResourceSummary())
	assert.Equal(t, mapdata.Size7, snap.Portals[0].Size)
	assert.Equal(t, 45.0, snap.Portals[0].TimeLeft)
}

func TestHTTPSourceBadStatus(t *testing.T) {
	srv := newBackend(t, http.StatusServiceUnavailable)

	_, err := NewHTTPSource(srv.URL+"/zones", srv.URL+"/portals", time.Second).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadStatus)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
	assert.Contains(t, fe.Error(), "status 503")
}

func TestHTTPSourceMalformed(t *testing.T) {
	srv := newBackend(t, http.StatusOK)

	_, err := NewHTTPSourceWithClient(srv.URL+"/zones", srv.URL+"/broken", nil).Fetch(context.Background())
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, srv.URL+"/broken", fe.Target)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(Options{Kind: KindFile, Path: "x.yaml"})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, src)

	src, err = NewSource(Options{Kind: KindHTTP, ZonesURL: "http://z", PortalsURL: "http://p"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPSource{}, src)

	src, err = NewSource(Options{Kind: KindNNG, Address: "tcp://127.0.0.1:7451"})
	require.NoError(t, err)
	assert.IsType(t, &NNGSource{}, src)

	_, err = NewSource(Options{Kind: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

type stubSource struct {
	calls atomic.Int32
	err   error
}

func (s *stubSource) Kind() string { return "stub" }

func (s *stubSource) Fetch(context.Context) (mapdata.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return mapdata.Snapshot{}, s.err
	}
	return sampleSnapshot(), nil
}

func TestPollerPoll(t *testing.T) {
	bus := pubsub.New[mapdata.Snapshot](1)
	defer bus.Shutdown()
	sub, err := bus.Subscribe(context.Background(), pubsub.TopicSnapshots)
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	p := NewPoller(&stubSource{}, time.Hour, bus, nil, reg)

	d, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Delivered)
	assert.Equal(t, sampleSnapshot(), <-sub.Channel())

	// Fill the buffer, then overflow it.
	_, err = p.Poll(context.Background())
	require.NoError(t, err)
	d, err = p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Dropped)

	m := &dto.Metric{}
	require.NoError(t, reg.FeedSnapshotsDropped.Write(m))
	assert.Equal(t, float64(1), m.GetCounter().GetValue())

	m = &dto.Metric{}
	require.NoError(t, reg.FeedFetchesTotal.WithLabelValues("stub", "success").Write(m))
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestPollerRunRetriesAndStops(t *testing.T) {
	bus := pubsub.New[mapdata.Snapshot](0)
	defer bus.Shutdown()

	src := &stubSource{err: errors.New("backend down")}
	p := NewPoller(src, 5*time.Millisecond, bus, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerStatus(t *testing.T) {
	bus := pubsub.New[mapdata.Snapshot](4)
	defer bus.Shutdown()

	src := &stubSource{}
	p := NewPoller(src, time.Minute, bus, nil, nil)

	st := p.Status()
	assert.True(t, st.LastAttempt.IsZero())
	assert.Equal(t, time.Minute, st.Interval)

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	st = p.Status()
	assert.False(t, st.LastSuccess.IsZero())
	assert.NoError(t, st.LastError)

	src.err = errors.New("backend down")
	_, _ = p.Poll(context.Background())
	_, _ = p.Poll(context.Background())
	st = p.Status()
	assert.EqualError(t, st.LastError, "backend down")
	assert.Equal(t, 2, st.Failures)
	assert.False(t, st.LastSuccess.IsZero())
}
