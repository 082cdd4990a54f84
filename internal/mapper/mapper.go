// Package mapper converts positions between capture-frame pixels and
// application world space.
//
// Capture frames put row 0 at the top of the image while the display's
// screen space puts row 0 at the bottom, so every conversion flips the
// vertical axis against the capture height in addition to rescaling.
package mapper

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrInvalidResolution is returned when a resolution has a non-positive axis.
	ErrInvalidResolution = errors.New("invalid resolution")
	// ErrNilProjection is returned when a Mapper is built without a projection.
	ErrNilProjection = errors.New("projection is required")
	// ErrInvalidProjection is returned for a projection that cannot map
	// the display to finite world positions.
	ErrInvalidProjection = errors.New("invalid projection")
)

// Resolution is a pixel size.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate reports whether both axes are strictly positive.
func (r Resolution) Validate() error {
	if r.Width <= 0 {
		return errors.Wrapf(ErrInvalidResolution, "width %d", r.Width)
	}
	if r.Height <= 0 {
		return errors.Wrapf(ErrInvalidResolution, "height %d", r.Height)
	}
	return nil
}

// Vec returns the resolution as a vector.
func (r Resolution) Vec() r2.Vec {
	return r2.Vec{X: float64(r.Width), Y: float64(r.Height)}
}

// Projection converts between display screen space and world space.
// Implementations must be pure: identical inputs give identical outputs.
type Projection interface {
	ScreenToWorld(screen r2.Vec) r2.Vec
	WorldToScreen(world r2.Vec) r2.Vec
}

// Validator is implemented by projections that can check their own parameters.
type Validator interface {
	Validate() error
}

// ScreenSizer is implemented by projections bound to a screen size, which
// must match the display resolution.
type ScreenSizer interface {
	ScreenSize() Resolution
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Mapper converts between a capture frame and world space for one pair of
// resolutions. It is immutable; build a new one when either resolution changes.
type Mapper struct {
	capture    Resolution
	display    Resolution
	projection Projection
	scale      r2.Vec
}

// New validates the inputs and returns a Mapper.
func New(capture, display Resolution, p Projection) (*Mapper, error) {
	if err := capture.Validate(); err != nil {
		return nil, errors.Wrap(err, "capture")
	}
	if err := display.Validate(); err != nil {
		return nil, errors.Wrap(err, "display")
	}
	if p == nil {
		return nil, ErrNilProjection
	}
	if v, ok := p.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	if s, ok := p.(ScreenSizer); ok && s.ScreenSize() != display {
		return nil, errors.Wrapf(ErrInvalidProjection, "projection screen %v does not match display %v", s.ScreenSize(), display)
	}

	return &Mapper{
		capture:    capture,
		display:    display,
		projection: p,
		scale: r2.Vec{
			X: float64(display.Width) / float64(capture.Width),
			Y: float64(display.Height) / float64(capture.Height),
		},
	}, nil
}

// Capture returns the capture resolution.
func (m *Mapper) Capture() Resolution { return m.capture }

// Display returns the display resolution.
func (m *Mapper) Display() Resolution { return m.display }

// Scale returns display/capture per axis.
func (m *Mapper) Scale() r2.Vec { return m.scale }

// ToWorld maps a capture-frame pixel to world space.
func (m *Mapper) ToWorld(pixel r2.Vec) r2.Vec {
	screen := r2.Vec{
		X: pixel.X * m.scale.X,
		Y: (float64(m.capture.Height) - pixel.Y) * m.scale.Y,
	}
	return m.projection.ScreenToWorld(screen)
}

// ToPixel maps a world position back to a capture-frame pixel.
// It is the inverse of ToWorld.
func (m *Mapper) ToPixel(world r2.Vec) r2.Vec {
	screen := m.projection.WorldToScreen(world)
	return r2.Vec{
		X: screen.X / m.scale.X,
		Y: float64(m.capture.Height) - screen.Y/m.scale.Y,
	}
}
