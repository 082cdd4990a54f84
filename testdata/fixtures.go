// Package testdata builds synthetic court frames for tests.
package testdata

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

// Ball is a filled circle drawn onto a frame.
type Ball struct {
	Center r2.Vec
	Radius int
}

// Default frame geometry used by the fixtures.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

var (
	court    = color.RGBA{R: 40, G: 90, B: 40}
	ballTint = color.RGBA{R: 230, G: 250, B: 90}
)

// Frame draws balls on a plain court background of the given size.
// The caller closes the returned Mat.
func Frame(width, height int, balls ...Ball) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(court.B), float64(court.G), float64(court.R), 0))

	for _, b := range balls {
		center := image.Pt(int(b.Center.X+0.5), int(b.Center.Y+0.5))
		gocv.Circle(&mat, center, b.Radius, ballTint, -1)
	}
	return &mat
}

// BallFrame draws a single ball on a default-sized frame.
func BallFrame(x, y float64, radius int) *gocv.Mat {
	return Frame(FrameWidth, FrameHeight, Ball{Center: r2.Vec{X: x, Y: y}, Radius: radius})
}

// Path draws one default-sized frame per point, each with a ball of radius.
func Path(radius int, points ...r2.Vec) []*gocv.Mat {
	frames := make([]*gocv.Mat, len(points))
	for i, p := range points {
		frames[i] = Frame(FrameWidth, FrameHeight, Ball{Center: p, Radius: radius})
	}
	return frames
}

// Scatter draws n balls spread along a diagonal, enough to exceed a noise
// threshold of n-1.
func Scatter(n, radius int) (*gocv.Mat, error) {
	step := float64(radius) * 3
	if float64(n)*step > FrameWidth {
		return nil, fmt.Errorf("%d balls of radius %d do not fit a %dpx frame", n, radius, FrameWidth)
	}

	balls := make([]Ball, n)
	for i := range balls {
		balls[i] = Ball{
			Center: r2.Vec{X: step*float64(i) + step/2, Y: step*float64(i)/2 + step},
			Radius: radius,
		}
	}
	return Frame(FrameWidth, FrameHeight, balls...), nil
}

// CloseAll closes every frame.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		if f != nil {
			f.Close()
		}
	}
}
