// Package mapdata holds the zone and portal snapshot model delivered by the
// mapping backend, plus decoding and sanitizing of raw snapshots.
package mapdata

import (
	"fmt"
	"strings"
)

// ZoneColor is the security colour of a zone as reported by the backend.
type ZoneColor string

const (
	ColorBlack  ZoneColor = "black"
	ColorRed    ZoneColor = "red"
	ColorYellow ZoneColor = "yellow"
	ColorBlue   ZoneColor = "blue"
	ColorRoad   ZoneColor = "road"
)

// PortalSize is the player capacity of a portal.
type PortalSize int

const (
	Size2  PortalSize = 2
	Size7  PortalSize = 7
	Size20 PortalSize = 20
)

// TunnelHideoutMarker marks zone types that contain a tunnel hideout.
const TunnelHideoutMarker = "TUNNEL_HIDEOUT"

// Resource is a gatherable resource available in a zone.
type Resource struct {
	Tier int    `json:"tier" yaml:"tier" validate:"gte=0"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// Zone is a named location. Name is its identity.
type Zone struct {
	Name      string     `json:"name" yaml:"name" validate:"required"`
	Type      string     `json:"type" yaml:"type"`
	Color     ZoneColor  `json:"color" yaml:"color"`
	Resources []Resource `json:"resources,omitempty" yaml:"resources,omitempty" validate:"omitempty,dive"`
	Markers   []string   `json:"markers,omitempty" yaml:"markers,omitempty"`
}

// IsTunnelHideout reports whether the zone type carries the hideout marker.
func (z Zone) IsTunnelHideout() bool {
	return strings.Contains(z.Type, TunnelHideoutMarker)
}

// ResourceSummary formats resources as "T<tier> <name>" joined by ", ".
func (z Zone) ResourceSummary() string {
	parts := make([]string, 0, len(z.Resources))
	for _, r := range z.Resources {
		parts = append(parts, fmt.Sprintf("T%d %s", r.Tier, r.Name))
	}
	return strings.Join(parts, ", ")
}

// MarkerSummary joins map markers with ", ".
func (z Zone) MarkerSummary() string {
	return strings.Join(z.Markers, ", ")
}

// Portal is a time-limited connection between two zones. TimeLeft is in
// minutes and counts down upstream; it is only ever re-read here.
type Portal struct {
	Source   string     `json:"source" yaml:"source" validate:"required"`
	Target   string     `json:"target" yaml:"target" validate:"required"`
	Size     PortalSize `json:"size" yaml:"size"`
	TimeLeft float64    `json:"timeLeft" yaml:"timeLeft" validate:"gte=0"`
}

// Snapshot is one refresh of both collections.
type Snapshot struct {
	Zones   []Zone   `json:"zones" yaml:"zones"`
	Portals []Portal `json:"portals" yaml:"portals"`
}

// ZoneByName returns the zone with the given name. When a name repeats the
// last occurrence wins, as it does when the snapshot is drawn.
func (s Snapshot) ZoneByName(name string) (Zone, bool) {
	for i := len(s.Zones) - 1; i >= 0; i-- {
		if s.Zones[i].Name == name {
			return s.Zones[i], true
		}
	}
	return Zone{}, false
}
