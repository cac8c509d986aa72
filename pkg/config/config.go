// Package config loads zonemap settings from a YAML file and the
// environment and validates them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/zonemap/pkg/descriptor"
	"github.com/dd0wney/zonemap/pkg/feed"
	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/visualization"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ZONEMAP_"

var validate = validator.New()

// Config is the full zonemap configuration.
type Config struct {
	LogLevel string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	Feed     FeedConfig    `yaml:"feed"`
	View     ViewConfig    `yaml:"view"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// FeedConfig selects where snapshots come from.
type FeedConfig struct {
	Kind       string        `yaml:"kind" validate:"oneof=file http nng"`
	Path       string        `yaml:"path" validate:"required_if=Kind file"`
	ZonesURL   string        `yaml:"zones_url" validate:"required_if=Kind http"`
	PortalsURL string        `yaml:"portals_url" validate:"required_if=Kind http"`
	Address    string        `yaml:"address" validate:"required_if=Kind nng"`
	Interval   time.Duration `yaml:"interval" validate:"gte=1s"`
	Timeout    time.Duration `yaml:"timeout" validate:"gte=0"`

	// TokenSecret signs a bearer token onto HTTP feed requests.
	TokenSecret  string `yaml:"token_secret" validate:"omitempty,min=32"`
	TokenSubject string `yaml:"token_subject"`

	// Relay republishes every fetched snapshot on an nng PUB socket.
	Relay string `yaml:"relay"`
}

// ViewConfig holds the view toggles and layout parameters.
type ViewConfig struct {
	Layout               string  `yaml:"layout" validate:"oneof=random grid circle cose concentric breadthfirst"`
	UpdateLayoutOnChange bool    `yaml:"update_layout_on_change"`
	Dark                 bool    `yaml:"dark"`
	EdgeIDPolicy         string  `yaml:"edge_id_policy" validate:"oneof=directed unordered"`
	Width                float64 `yaml:"width" validate:"gt=0"`
	Height               float64 `yaml:"height" validate:"gt=0"`
	Iterations           int     `yaml:"iterations" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Feed: FeedConfig{
			Kind:     feed.KindFile,
			Path:     "snapshot.yaml",
			Interval: feed.DefaultInterval,
			Timeout:  feed.DefaultTimeout,
		},
		View: ViewConfig{
			Layout:               visualization.DefaultLayout,
			UpdateLayoutOnChange: true,
			EdgeIDPolicy:         descriptor.Directed.String(),
			Width:                800,
			Height:               600,
			Iterations:           50,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. LOG_LEVEL is honoured for
// compatibility with the logging package; ZONEMAP_LOG_LEVEL wins over it.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}

	strs := map[string]*string{
		"LOG_LEVEL":        &c.LogLevel,
		"FEED_KIND":        &c.Feed.Kind,
		"FEED_PATH":        &c.Feed.Path,
		"FEED_ZONES_URL":   &c.Feed.ZonesURL,
		"FEED_PORTALS_URL": &c.Feed.PortalsURL,
		"FEED_ADDRESS":     &c.Feed.Address,
		"FEED_TOKEN":       &c.Feed.TokenSecret,
		"FEED_RELAY":       &c.Feed.Relay,
		"VIEW_LAYOUT":      &c.View.Layout,
		"VIEW_EDGE_ID":     &c.View.EdgeIDPolicy,
		"METRICS_LISTEN":   &c.Metrics.Listen,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	durations := map[string]*time.Duration{
		"FEED_INTERVAL": &c.Feed.Interval,
		"FEED_TIMEOUT":  &c.Feed.Timeout,
	}
	for key, dst := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"VIEW_UPDATE_LAYOUT_ON_CHANGE": &c.View.UpdateLayoutOnChange,
		"VIEW_DARK":                    &c.View.Dark,
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, formatValidationError(err))
	}
	if c.Feed.Kind == feed.KindHTTP {
		for _, u := range []string{c.Feed.ZonesURL, c.Feed.PortalsURL} {
			if err := validate.Var(u, "url"); err != nil {
				return fmt.Errorf("%w: feed url %q is not a URL", ErrInvalidConfig, u)
			}
		}
	}
	return nil
}

func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// FeedOptions converts the feed section for feed.NewSource.
func (c *Config) FeedOptions() feed.Options {
	return feed.Options{
		Kind:         c.Feed.Kind,
		Path:         c.Feed.Path,
		ZonesURL:     c.Feed.ZonesURL,
		PortalsURL:   c.Feed.PortalsURL,
		Address:      c.Feed.Address,
		Timeout:      c.Feed.Timeout,
		TokenSecret:  c.Feed.TokenSecret,
		TokenSubject: c.Feed.TokenSubject,
	}
}

// EdgeIDs returns the configured edge id policy.
func (c *Config) EdgeIDs() descriptor.EdgeIDPolicy {
	p, _ := descriptor.ParseEdgeIDPolicy(c.View.EdgeIDPolicy)
	return p
}

// LayoutConfig returns the layout parameters.
func (c *Config) LayoutConfig() visualization.LayoutConfig {
	return visualization.LayoutConfig{
		Width:      c.View.Width,
		Height:     c.View.Height,
		Iterations: c.View.Iterations,
	}
}
