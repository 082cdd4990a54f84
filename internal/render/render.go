// Package render draws tracking directives onto captured frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/session"
)

// Style holds the ring colors and stroke.
type Style struct {
	Detection  color.RGBA `json:"detection"`
	Track      color.RGBA `json:"track"`
	Checkpoint color.RGBA `json:"checkpoint"`
	Thickness  int        `json:"thickness"`
}

// DefaultStyle returns red detection rings, green tracking rings and blue
// checkpoint rings. Colors are in gocv's BGR channel order.
func DefaultStyle() Style {
	return Style{
		Detection:  color.RGBA{0, 0, 255, 0},
		Track:      color.RGBA{0, 255, 0, 0},
		Checkpoint: color.RGBA{255, 0, 0, 0},
		Thickness:  3,
	}
}

// ColorFor returns the ring color for k, or false for session.None.
func (s Style) ColorFor(k session.Kind) (color.RGBA, bool) {
	switch k {
	case session.Detection:
		return s.Detection, true
	case session.Track:
		return s.Track, true
	case session.Checkpoint:
		return s.Checkpoint, true
	}
	return color.RGBA{}, false
}

// Ring is one ring in integer pixel coordinates.
type Ring struct {
	Center image.Point
	Radius int
	Color  color.RGBA
}

// Rings resolves directives to drawable rings, skipping invisible ones.
func Rings(directives []session.Directive, style Style) []Ring {
	rings := make([]Ring, 0, len(directives))
	for _, d := range directives {
		c, ok := style.ColorFor(d.Kind)
		if !ok {
			continue
		}
		rings = append(rings, Ring{
			Center: image.Pt(int(math.Round(d.Position.X)), int(math.Round(d.Position.Y))),
			Radius: int(math.Round(d.Radius)),
			Color:  c,
		})
	}
	return rings
}

// Draw renders directives onto img and returns the number of rings drawn.
func Draw(img *gocv.Mat, directives []session.Directive, style Style) int {
	rings := Rings(directives, style)
	for _, r := range rings {
		gocv.Circle(img, r.Center, r.Radius, r.Color, style.Thickness)
	}
	return len(rings)
}

// Encode returns img as JPEG bytes.
func Encode(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close releases.
	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
