package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionConfig tunes the frame-differencing motion gate.
type MotionConfig struct {
	// Threshold is the share of changed pixels, in percent, that counts as motion.
	Threshold float64 `json:"threshold"`
	// BlurSize is the odd Gaussian kernel applied before differencing.
	BlurSize int `json:"blur_size"`
	// PixelDelta is the per-pixel intensity change that marks a pixel as changed.
	PixelDelta float32 `json:"pixel_delta"`
}

// DefaultMotionConfig returns a gate tuned for a ball crossing a still court.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:  0.2,
		BlurSize:   11,
		PixelDelta: 25,
	}
}

// MotionDetector reports whether anything moved since the previous frame.
// The app uses it to drop to the idle frame rate while the court is still.
type MotionDetector struct {
	config MotionConfig
	prev   gocv.Mat
	primed bool
	closed bool
	last   float64
	mu     sync.Mutex
}

// NewMotionDetector returns a gate for config. Out-of-range fields fall back
// to the defaults.
func NewMotionDetector(config MotionConfig) *MotionDetector {
	def := DefaultMotionConfig()
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	if config.BlurSize <= 0 || config.BlurSize%2 == 0 {
		config.BlurSize = def.BlurSize
	}
	if config.PixelDelta <= 0 {
		config.PixelDelta = def.PixelDelta
	}

	return &MotionDetector{
		config: config,
		prev:   gocv.NewMat(),
	}
}

// Config returns the effective gate settings.
func (m *MotionDetector) Config() MotionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Detect compares frame with the previous one and returns whether the
// changed share exceeds the threshold, along with the share in percent.
// The first frame after construction or Reset only primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || frame == nil || frame.Empty() {
		return false, 0
	}

	cur := m.prepare(frame)

	// A resized capture invalidates the baseline.
	if !m.primed || cur.Rows() != m.prev.Rows() || cur.Cols() != m.prev.Cols() {
		m.prev.Close()
		m.prev = cur
		m.primed = true
		m.last = 0
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, m.prev, &diff)
	gocv.Threshold(diff, &diff, m.config.PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100

	m.prev.Close()
	m.prev = cur
	m.last = changed

	return changed > m.config.Threshold, changed
}

// prepare returns a blurred grayscale copy of frame owned by the caller.
func (m *MotionDetector) prepare(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	k := m.config.BlurSize
	gocv.GaussianBlur(gray, &gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	return gray
}

// Last returns the changed share measured by the most recent Detect.
func (m *MotionDetector) Last() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Reset drops the baseline so the next frame primes it again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
	m.last = 0
}

// Close releases the baseline frame. Detect reports no motion afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.primed = false
	m.last = 0
	m.prev.Close()
}

// SetThreshold changes the motion threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Threshold = threshold
}
