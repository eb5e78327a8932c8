package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/facet/pkg/math3d"
)

// ErrInvalidLens is returned by Lens.Validate.
var ErrInvalidLens = errors.New("scene: invalid lens")

// Lens is a symmetric viewing frustum: the half extents of the near plane
// and the near and far distances, all positive.
type Lens struct {
	Top   float64
	Right float64
	Near  float64
	Far   float64
}

// DefaultLens returns {Top: 1, Right: 1, Near: 1.8, Far: 10}.
func DefaultLens() Lens {
	return Lens{Top: 1, Right: 1, Near: 1.8, Far: 10}
}

// Validate reports whether the lens describes a usable frustum.
func (l Lens) Validate() error {
	switch {
	case l.Top <= 0 || l.Right <= 0:
		return fmt.Errorf("%w: top and right must be positive (got %g, %g)", ErrInvalidLens, l.Top, l.Right)
	case l.Near <= 0:
		return fmt.Errorf("%w: near must be positive (got %g)", ErrInvalidLens, l.Near)
	case l.Far <= l.Near:
		return fmt.Errorf("%w: far %g must exceed near %g", ErrInvalidLens, l.Far, l.Near)
	}
	return nil
}

// Projection returns the perspective matrix for the lens.
func (l Lens) Projection() math3d.Mat4 {
	return math3d.Perspective(l.Top, l.Right, l.Near, l.Far)
}

// FitAspect returns a copy whose Right matches a width×height frame, so
// pixels stay square.
func (l Lens) FitAspect(width, height int) Lens {
	if width > 0 && height > 0 {
		l.Right = l.Top * float64(width) / float64(height)
	}
	return l
}
