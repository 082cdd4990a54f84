package detector

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyFrame is returned when Detect is given a nil or empty frame.
var ErrEmptyFrame = errors.New("empty frame")

// ErrClosed is returned by Detect after Close.
var ErrClosed = errors.New("detector closed")

// HoughDetector finds circles with the OpenCV Hough gradient method.
type HoughDetector struct {
	config Config
	gray   gocv.Mat
	closed bool
	mu     sync.Mutex
}

// NewHoughDetector validates config and returns a detector.
func NewHoughDetector(config Config) (*HoughDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &HoughDetector{
		config: config,
		gray:   gocv.NewMat(),
	}, nil
}

// Config returns the detector tunables.
func (d *HoughDetector) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// Detect analyzes a frame and returns circle candidates.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Apply Gaussian blur to suppress sensor noise
// 3. Run HoughCircles with the gradient method
// 4. Decode the 1xN (x, y, r) result in detection order
func (d *HoughDetector) Detect(frame *gocv.Mat) ([]Circle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A swapped-out detector may still be handed the frame already in flight.
	if d.closed {
		return nil, ErrClosed
	}
	if frame == nil || frame.Empty() {
		return nil, ErrEmptyFrame
	}

	switch frame.Channels() {
	case 1:
		frame.CopyTo(&d.gray)
	case 4:
		gocv.CvtColor(*frame, &d.gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(*frame, &d.gray, gocv.ColorBGRToGray)
	}

	if d.config.BlurSize > 0 {
		k := image.Point{X: d.config.BlurSize, Y: d.config.BlurSize}
		gocv.GaussianBlur(d.gray, &d.gray, k, d.config.BlurSigma, d.config.BlurSigma, gocv.BorderDefault)
	}

	circles := gocv.NewMat()
	defer circles.Close()

	gocv.HoughCirclesWithParams(d.gray, &circles, gocv.HoughGradient,
		d.config.DP, d.config.MinDistance,
		d.config.EdgeThreshold, d.config.CenterThreshold,
		d.config.MinRadius, d.config.MaxRadius)

	return decodeCircles(circles), nil
}

// decodeCircles reads a CV_32FC3 row of (x, y, radius) triples.
func decodeCircles(circles gocv.Mat) []Circle {
	if circles.Empty() || circles.Cols() == 0 {
		return []Circle{}
	}

	out := make([]Circle, 0, circles.Rows()*circles.Cols())
	for row := 0; row < circles.Rows(); row++ {
		for i := 0; i < circles.Cols(); i++ {
			out = append(out, Circle{
				Center: r2.Vec{
					X: float64(circles.GetFloatAt(row, i*3)),
					Y: float64(circles.GetFloatAt(row, i*3+1)),
				},
				Radius: float64(circles.GetFloatAt(row, i*3+2)),
			})
		}
	}
	return out
}

// Close releases the grayscale buffer. Closing twice is a no-op.
func (d *HoughDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.gray.Close()
}
