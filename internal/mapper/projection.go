package mapper

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
)

// Orthographic is an orthographic camera looking at the world plane.
// HalfHeight is half the visible world height; the visible width follows
// from the screen aspect ratio.
type Orthographic struct {
	Screen     Resolution
	Center     r2.Vec
	HalfHeight float64
}

// NewOrthographic returns a camera centered on the world origin whose
// half height equals half the screen height, so one world unit is one
// screen pixel.
func NewOrthographic(screen Resolution) Orthographic {
	return Orthographic{
		Screen:     screen,
		HalfHeight: float64(screen.Height) / 2,
	}
}

// Validate reports whether the camera yields a finite, invertible mapping.
func (o Orthographic) Validate() error {
	if err := o.Screen.Validate(); err != nil {
		return errors.Wrap(err, "orthographic screen")
	}
	if math.IsNaN(o.HalfHeight) || math.IsInf(o.HalfHeight, 0) || o.HalfHeight <= 0 {
		return errors.Wrapf(ErrInvalidProjection, "half height %v", o.HalfHeight)
	}
	if !finite(o.Center) {
		return errors.Wrapf(ErrInvalidProjection, "center %v", o.Center)
	}
	return nil
}

// ScreenSize implements ScreenSizer.
func (o Orthographic) ScreenSize() Resolution { return o.Screen }

// unitsPerPixel is the same on both axes for an orthographic camera.
func (o Orthographic) unitsPerPixel() float64 {
	return 2 * o.HalfHeight / float64(o.Screen.Height)
}

// ScreenToWorld implements Projection.
func (o Orthographic) ScreenToWorld(screen r2.Vec) r2.Vec {
	half := r2.Scale(0.5, o.Screen.Vec())
	return r2.Add(o.Center, r2.Scale(o.unitsPerPixel(), r2.Sub(screen, half)))
}

// WorldToScreen implements Projection.
func (o Orthographic) WorldToScreen(world r2.Vec) r2.Vec {
	half := r2.Scale(0.5, o.Screen.Vec())
	return r2.Add(half, r2.Scale(1/o.unitsPerPixel(), r2.Sub(world, o.Center)))
}
