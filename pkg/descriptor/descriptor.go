// Package descriptor converts zone/portal snapshots into canonical,
// style-annotated graph element descriptors.
//
// Normalize is pure: no I/O, no hidden state, deterministic for a given input.
package descriptor

import (
	"fmt"
	"maps"
	"math"
	"strings"
	"unicode"

	"github.com/dd0wney/zonemap/pkg/mapdata"
)

// Kind distinguishes nodes (zones) from edges (portals).
type Kind int

const (
	KindNode Kind = iota
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Style classes and attribute keys understood by the renderer.
const (
	ClassTimeLow  = "timeLow"
	ClassPentagon = "pentagon"

	AttrBackgroundColor = "background-color"
	AttrShape           = "shape"
	AttrLineColor       = "line-color"

	ShapePentagon = "pentagon"

	// TimeLowThreshold is the minutes-left bound below which a portal is flagged.
	TimeLowThreshold = 30.0
)

// Element is the drawable view of a zone or portal.
type Element struct {
	ID         string
	Kind       Kind
	Label      string
	StyleClass string
	// Source and Target are set for edges only.
	Source     string
	Target     string
	Attributes map[string]string
}

// Clone returns a deep copy.
func (e Element) Clone() Element {
	e.Attributes = maps.Clone(e.Attributes)
	return e
}

// Equal reports whether two descriptors would render identically.
func (e Element) Equal(o Element) bool {
	return e.ID == o.ID &&
		e.Kind == o.Kind &&
		e.Label == o.Label &&
		e.StyleClass == o.StyleClass &&
		e.Source == o.Source &&
		e.Target == o.Target &&
		maps.Equal(e.Attributes, o.Attributes)
}

func (e Element) String() string {
	if e.Kind == KindEdge {
		return fmt.Sprintf("edge(%s %s->%s %q)", e.ID, e.Source, e.Target, e.Label)
	}
	return fmt.Sprintf("node(%s)", e.ID)
}

// ZoneColorToColor maps zone colours to fill colours.
var ZoneColorToColor = map[mapdata.ZoneColor]string{
	mapdata.ColorBlack:  "black",
	mapdata.ColorRed:    "red",
	mapdata.ColorYellow: "yellow",
	mapdata.ColorBlue:   "blue",
	mapdata.ColorRoad:   "lightblue",
}

// PortalSizeToColor maps portal sizes to line colours.
var PortalSizeToColor = map[mapdata.PortalSize]string{
	mapdata.Size2:  "green",
	mapdata.Size7:  "blue",
	mapdata.Size20: "orange",
}

// EdgeIDPolicy selects how a portal's identity is derived from its endpoints.
type EdgeIDPolicy int

const (
	// Directed concatenates source then target; (A,B) and (B,A) differ.
	Directed EdgeIDPolicy = iota
	// Unordered sorts the endpoints first so both directions share one id.
	Unordered
)

// ParseEdgeIDPolicy accepts "directed" or "unordered".
func ParseEdgeIDPolicy(s string) (EdgeIDPolicy, error) {
	switch strings.ToLower(s) {
	case "", "directed":
		return Directed, nil
	case "unordered":
		return Unordered, nil
	default:
		return Directed, fmt.Errorf("unknown edge id policy %q", s)
	}
}

func (p EdgeIDPolicy) String() string {
	if p == Unordered {
		return "unordered"
	}
	return "directed"
}

// EdgeID derives a portal's element id: source ++ target with all whitespace
// removed.
func EdgeID(source, target string, policy EdgeIDPolicy) string {
	if policy == Unordered && target < source {
		source, target = target, source
	}
	return stripSpace(source + target)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// TimeLabel formats minutes left as "<h>h <m>min". Minutes are rounded half
// up, so 59.5 minutes renders as "0h 60min".
func TimeLabel(minutes float64) string {
	h := math.Floor(minutes / 60)
	m := math.Floor(math.Mod(minutes, 60) + 0.5)
	return fmt.Sprintf("%dh %dmin", int(h), int(m))
}
