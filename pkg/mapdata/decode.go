package mapdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrEmptySnapshot is returned when a snapshot document has no content.
var ErrEmptySnapshot = errors.New("empty snapshot document")

// DecodeSnapshot parses a YAML (or JSON, which YAML accepts) snapshot document.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, ErrEmptySnapshot
	}
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// DecodeZones reads the JSON array served by the zones endpoint.
func DecodeZones(r io.Reader) ([]Zone, error) {
	var zones []Zone
	if err := json.NewDecoder(r).Decode(&zones); err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}
	return zones, nil
}

// DecodePortals reads the JSON array served by the portals endpoint.
func DecodePortals(r io.Reader) ([]Portal, error) {
	var portals []Portal
	if err := json.NewDecoder(r).Decode(&portals); err != nil {
		return nil, fmt.Errorf("decode portals: %w", err)
	}
	return portals, nil
}

// EncodeSnapshot renders a snapshot as YAML. Used to record feed output.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
