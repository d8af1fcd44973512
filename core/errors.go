package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedEndpoint is returned when a cable references a connection
	// point that does not exist, or whose position is not finite, at
	// generation time.
	ErrUnresolvedEndpoint = errors.New("unresolved cable endpoint")
	// ErrDegenerateCurve is returned when the curve solver has no defined
	// position for some sample, including a negative hang.
	ErrDegenerateCurve = errors.New("degenerate cable curve")
	// ErrTraversalCycle is returned when a single traversal step exceeds its
	// hop bound.
	ErrTraversalCycle = errors.New("traversal hop bound exceeded")

	ErrPointNotFound     = errors.New("connection point not found")
	ErrCableNotFound     = errors.New("cable not found")
	ErrSparkNotFound     = errors.New("spark not found")
	ErrCableNotGenerated = errors.New("cable geometry not generated")
	ErrInvalidCable      = errors.New("invalid cable")
	ErrInvalidPoint      = errors.New("invalid connection point")
	ErrInvalidDelta      = errors.New("invalid traversal delta")
	ErrDegenerateHeading = errors.New("towers share a planar position")
)

func errDegenerate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDegenerateCurve, fmt.Sprintf(format, args...))
}
