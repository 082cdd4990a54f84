// Package detector provides the circle candidate source for ball tracking.
package detector

import (
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalidConfig is returned when detection tunables are out of range.
var ErrInvalidConfig = errors.New("invalid detection config")

// Circle is one circle candidate in capture-frame pixel coordinates.
type Circle struct {
	Center r2.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}

// Valid reports whether the candidate has finite coordinates and a positive radius.
func (c Circle) Valid() bool {
	for _, v := range []float64{c.Center.X, c.Center.Y, c.Radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return c.Radius > 0
}

// Detector defines the interface for circle candidate sources.
type Detector interface {
	// Detect returns the circle candidates found in frame, in detection order.
	// Returns an empty slice if nothing is found.
	Detect(frame *gocv.Mat) ([]Circle, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds the Hough gradient tunables.
type Config struct {
	// DP is the inverse ratio of accumulator resolution to image resolution.
	DP float64 `json:"dp"`
	// MinDistance is the minimum distance between detected centers, in pixels.
	MinDistance float64 `json:"min_distance"`
	// EdgeThreshold is the upper Canny threshold.
	EdgeThreshold float64 `json:"edge_threshold"`
	// CenterThreshold is the accumulator threshold for circle centers.
	CenterThreshold float64 `json:"center_threshold"`
	MinRadius       int     `json:"min_radius"`
	MaxRadius       int     `json:"max_radius"`

	// BlurSize is the odd Gaussian kernel size applied before detection. 0 disables blur.
	BlurSize  int     `json:"blur_size"`
	BlurSigma float64 `json:"blur_sigma"`
}

// DefaultConfig returns values tuned for a tennis ball at arm's length from a
// 640x480 webcam.
func DefaultConfig() Config {
	return Config{
		DP:              2,
		MinDistance:     10,
		EdgeThreshold:   160,
		CenterThreshold: 50,
		MinRadius:       10,
		MaxRadius:       40,
		BlurSize:        3,
		BlurSigma:       2,
	}
}

// Validate rejects out-of-range tunables instead of clamping them.
func (c Config) Validate() error {
	switch {
	case !(c.DP > 0):
		return errors.Wrapf(ErrInvalidConfig, "dp %v must be positive", c.DP)
	case !(c.MinDistance > 0):
		return errors.Wrapf(ErrInvalidConfig, "min distance %v must be positive", c.MinDistance)
	case !(c.EdgeThreshold > 0):
		return errors.Wrapf(ErrInvalidConfig, "edge threshold %v must be positive", c.EdgeThreshold)
	case !(c.CenterThreshold > 0):
		return errors.Wrapf(ErrInvalidConfig, "center threshold %v must be positive", c.CenterThreshold)
	case c.MinRadius < 0 || c.MaxRadius < 0:
		return errors.Wrapf(ErrInvalidConfig, "radius range %d..%d must not be negative", c.MinRadius, c.MaxRadius)
	case c.MinRadius > c.MaxRadius:
		return errors.Wrapf(ErrInvalidConfig, "min radius %d exceeds max radius %d", c.MinRadius, c.MaxRadius)
	case c.BlurSize < 0 || (c.BlurSize > 0 && c.BlurSize%2 == 0):
		return errors.Wrapf(ErrInvalidConfig, "blur size %d must be zero or odd", c.BlurSize)
	}
	return nil
}
