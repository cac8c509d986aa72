package descriptor

import (
	"github.com/dd0wney/zonemap/pkg/mapdata"
)

// Options tunes normalization.
type Options struct {
	EdgeIDs EdgeIDPolicy
}

// Report lists data-quality findings for one snapshot. None of them stop
// normalization.
type Report struct {
	// UnmappedColors holds zone names whose colour has no palette entry.
	UnmappedColors []string
	// UnmappedSizes holds edge ids whose size has no palette entry.
	UnmappedSizes []string
	// DanglingPortals holds edge ids dropped because an endpoint is not a
	// known zone.
	DanglingPortals []string
	// DuplicateIDs holds ids seen more than once; the last occurrence wins.
	// An edge whose id equals a zone name is dropped and listed here too.
	DuplicateIDs []string
	// ReversedPairs holds edge ids whose reverse direction is also present.
	ReversedPairs []string
}

// Clean reports whether the snapshot produced no findings.
func (r Report) Clean() bool {
	return len(r.UnmappedColors) == 0 &&
		len(r.UnmappedSizes) == 0 &&
		len(r.DanglingPortals) == 0 &&
		len(r.DuplicateIDs) == 0 &&
		len(r.ReversedPairs) == 0
}

// Normalize converts a snapshot into element descriptors: nodes in zone order
// followed by edges in portal order. Only zones referenced by a drawable portal
// become nodes.
func Normalize(zones []mapdata.Zone, portals []mapdata.Portal, opts Options) ([]Element, Report) {
	var report Report

	known := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		known[z.Name] = struct{}{}
	}

	edges := make([]Element, 0, len(portals))
	edgeIndex := make(map[string]int, len(portals))
	pairs := make(map[[2]string]struct{}, len(portals))

	for _, p := range portals {
		id := EdgeID(p.Source, p.Target, opts.EdgeIDs)
		_, srcOK := known[p.Source]
		_, dstOK := known[p.Target]
		if !srcOK || !dstOK {
			report.DanglingPortals = append(report.DanglingPortals, id)
			continue
		}

		if _, clash := known[id]; clash {
			// Nodes and edges share one id space in the live graph.
			report.DuplicateIDs = append(report.DuplicateIDs, id)
			continue
		}

		el, mapped := portalElement(p, id)
		if !mapped {
			report.UnmappedSizes = append(report.UnmappedSizes, id)
		}

		if i, dup := edgeIndex[id]; dup {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
			edges[i] = el
		} else {
			edgeIndex[id] = len(edges)
			edges = append(edges, el)
		}

		if p.Source != p.Target {
			if _, seen := pairs[[2]string{p.Target, p.Source}]; seen && opts.EdgeIDs == Directed {
				report.ReversedPairs = append(report.ReversedPairs, id)
			}
			pairs[[2]string{p.Source, p.Target}] = struct{}{}
		}
	}

	// Endpoints are collected after de-duplication so an overwritten edge
	// cannot keep its zones visible.
	referenced := make(map[string]struct{}, 2*len(edges))
	for _, e := range edges {
		referenced[e.Source] = struct{}{}
		referenced[e.Target] = struct{}{}
	}

	nodes := make([]Element, 0, len(referenced))
	nodeIndex := make(map[string]int, len(referenced))
	for _, z := range zones {
		if _, ok := referenced[z.Name]; !ok {
			continue
		}
		el, mapped := zoneElement(z)
		if !mapped {
			report.UnmappedColors = append(report.UnmappedColors, z.Name)
		}
		if i, dup := nodeIndex[z.Name]; dup {
			report.DuplicateIDs = append(report.DuplicateIDs, z.Name)
			nodes[i] = el
			continue
		}
		nodeIndex[z.Name] = len(nodes)
		nodes = append(nodes, el)
	}

	return append(nodes, edges...), report
}

func zoneElement(z mapdata.Zone) (Element, bool) {
	el := Element{
		ID:         z.Name,
		Kind:       KindNode,
		Label:      z.Name,
		Attributes: make(map[string]string, 2),
	}
	if z.IsTunnelHideout() {
		el.StyleClass = ClassPentagon
		el.Attributes[AttrShape] = ShapePentagon
	}
	color, ok := ZoneColorToColor[z.Color]
	if ok {
		el.Attributes[AttrBackgroundColor] = color
	}
	return el, ok
}

func portalElement(p mapdata.Portal, id string) (Element, bool) {
	el := Element{
		ID:         id,
		Kind:       KindEdge,
		Label:      TimeLabel(p.TimeLeft),
		Source:     p.Source,
		Target:     p.Target,
		Attributes: make(map[string]string, 1),
	}
	if p.TimeLeft < TimeLowThreshold {
		el.StyleClass = ClassTimeLow
	}
	color, ok := PortalSizeToColor[p.Size]
	if ok {
		el.Attributes[AttrLineColor] = color
	}
	return el, ok
}
