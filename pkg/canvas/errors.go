package canvas

import (
	"errors"
	"fmt"

	"github.com/dd0wney/zonemap/pkg/reconcile"
)

var (
	// ErrElementExists is returned by Add for an id already on the canvas.
	ErrElementExists = fmt.Errorf("canvas: %w", reconcile.ErrAlreadyPresent)

	// ErrElementNotFound is returned for an id that is not on the canvas.
	ErrElementNotFound = fmt.Errorf("canvas: %w", reconcile.ErrAbsent)

	// ErrMissingEndpoint is returned when an edge names a node that is not drawn.
	ErrMissingEndpoint = errors.New("canvas: edge endpoint not on canvas")

	// ErrNodeHasEdges is returned when removing a node that edges still hang off.
	ErrNodeHasEdges = errors.New("canvas: node still has edges")

	// ErrKindMismatch is returned by Update when the element changes kind.
	ErrKindMismatch = errors.New("canvas: element kind changed")

	// ErrDestroyed is returned by every mutation after Destroy.
	ErrDestroyed = errors.New("canvas: destroyed")
)
