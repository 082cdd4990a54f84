package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It replays scripted frames of candidates, then repeats the last one.
type MockDetector struct {
	frames [][]Circle
	index  int
	err    error
	calls  int
	mu     sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetCircles makes every Detect call return circles.
func (m *MockDetector) SetCircles(circles []Circle) {
	m.SetSequence([][]Circle{circles})
}

// SetSequence scripts one candidate set per Detect call.
func (m *MockDetector) SetSequence(frames [][]Circle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = frames
	m.index = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted candidate set or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.frames) == 0 {
		return nil, nil
	}

	circles := m.frames[m.index]
	if m.index < len(m.frames)-1 {
		m.index++
	}
	return circles, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
