// Package feed produces zone map snapshots from a file, an HTTP backend or
// an nng relay and publishes them for view hosts.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/zonemap/pkg/mapdata"
)

// Source kinds.
const (
	KindFile = "file"
	KindHTTP = "http"
	KindNNG  = "nng"
)

// Source fetches one snapshot per call.
type Source interface {
	Kind() string
	Fetch(ctx context.Context) (mapdata.Snapshot, error)
}

// Options selects and configures a Source.
type Options struct {
	Kind       string
	Path       string
	ZonesURL   string
	PortalsURL string
	Address    string
	Timeout    time.Duration

	// TokenSecret, when set, signs a bearer token onto every HTTP request.
	TokenSecret  string
	TokenSubject string
}

// NewSource builds the source named by opts.Kind.
func NewSource(opts Options) (Source, error) {
	switch opts.Kind {
	case KindFile:
		return NewFileSource(opts.Path), nil
	case KindHTTP:
		src := NewHTTPSource(opts.ZonesURL, opts.PortalsURL, opts.Timeout)
		if opts.TokenSecret != "" {
			signer, err := NewTokenSigner(opts.TokenSecret, opts.TokenSubject, 0)
			if err != nil {
				return nil, err
			}
			src.WithTokenSigner(signer)
		}
		return src, nil
	case KindNNG:
		return NewNNGSource(opts.Address, opts.Timeout), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, opts.Kind)
}
