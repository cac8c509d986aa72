package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/zonemap/pkg/mapdata"
)

// maxBody caps each endpoint's response.
const maxBody = 8 << 20

// DefaultTimeout applies when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// HTTPSource fetches zones and portals from two JSON endpoints that each
// return an array.
type HTTPSource struct {
	zonesURL   string
	portalsURL string
	httpClient *http.Client
	signer     *TokenSigner
}

// NewHTTPSource creates a source with its own client.
func NewHTTPSource(zonesURL, portalsURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewHTTPSourceWithClient(zonesURL, portalsURL, &http.Client{Timeout: timeout})
}

// NewHTTPSourceWithClient creates a source using client.
func NewHTTPSourceWithClient(zonesURL, portalsURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPSource{
		zonesURL:   zonesURL,
		portalsURL: portalsURL,
		httpClient: client,
	}
}

// WithTokenSigner makes every request carry a bearer token from signer.
func (s *HTTPSource) WithTokenSigner(signer *TokenSigner) *HTTPSource {
	s.signer = signer
	return s
}

// Kind implements Source.
func (s *HTTPSource) Kind() string {
	return KindHTTP
}

// Fetch requests both endpoints concurrently. Either failing fails the
// snapshot; a half snapshot would make every portal dangle or every zone
// disappear.
func (s *HTTPSource) Fetch(ctx context.Context) (mapdata.Snapshot, error) {
	var snap mapdata.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.get(gctx, s.zonesURL, func(r io.Reader) (err error) {
			snap.Zones, err = mapdata.DecodeZones(r)
			return err
		})
	})
	g.Go(func() error {
		return s.get(gctx, s.portalsURL, func(r io.Reader) (err error) {
			snap.Portals, err = mapdata.DecodePortals(r)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		return mapdata.Snapshot{}, err
	}
	return snap, nil
}

func (s *HTTPSource) get(ctx context.Context, url string, decode func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{Source: KindHTTP, Target: url, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if s.signer != nil {
		token, err := s.signer.Sign()
		if err != nil {
			return &FetchError{Source: KindHTTP, Target: url, Cause: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &FetchError{Source: KindHTTP, Target: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &FetchError{
			Source: KindHTTP,
			Target: url,
			Status: resp.StatusCode,
			Cause:  fmt.Errorf("%w: %s", ErrBadStatus, string(body)),
		}
	}

	if err := decode(io.LimitReader(resp.Body, maxBody)); err != nil {
		return &FetchError{Source: KindHTTP, Target: url, Status: resp.StatusCode, Cause: err}
	}
	return nil
}
