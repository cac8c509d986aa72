// Package visualization computes node positions for a topology. Each layout
// is a pure function of the topology and its config.
package visualization

import "fmt"

var layoutNames = []string{
	LayoutRandom,
	LayoutGrid,
	LayoutCircle,
	LayoutCose,
	LayoutConcentric,
	LayoutBreadthFirst,
}

// Names returns the supported layout names in selector order.
func Names() []string {
	return append([]string(nil), layoutNames...)
}

// Next returns the layout after name in selector order, wrapping around.
// Unknown names yield the first layout.
func Next(name string) string {
	for i, n := range layoutNames {
		if n == name {
			return layoutNames[(i+1)%len(layoutNames)]
		}
	}
	return layoutNames[0]
}

// New returns the layout registered under name. The config is copied.
func New(name string, config LayoutConfig) (Layout, error) {
	cfg := config
	switch name {
	case LayoutRandom:
		return NewRandomLayout(&cfg), nil
	case LayoutGrid:
		return NewGridLayout(&cfg), nil
	case LayoutCircle:
		return NewCircularLayout(&cfg), nil
	case LayoutCose:
		return NewForceDirectedLayout(&cfg), nil
	case LayoutConcentric:
		return NewConcentricLayout(&cfg), nil
	case LayoutBreadthFirst:
		return NewBreadthFirstLayout(&cfg), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
}
