// Package session runs the per-frame tracking policy: noise rejection,
// coordinate mapping, the tracker state machine and the rendering
// directives handed back to the display.
//
// A Session is driven by a single frame loop and is not safe for
// concurrent use.
package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/mapper"
	"github.com/ayusman/courtside/internal/tracker"
)

// DefaultNoiseThreshold is the largest candidate count still treated as a
// plausible ball frame.
const DefaultNoiseThreshold = 5

var (
	// ErrInvalidConfig is returned for out-of-range session tunables.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrNilMapper is returned when a Session is built without a mapper.
	ErrNilMapper = errors.New("mapper is required")
)

// Config holds the session tunables.
type Config struct {
	// NoiseThreshold is the candidate count above which a frame is noise.
	NoiseThreshold int `json:"noise_threshold"`
	// BlinkFrequency is the checkpoint oscillator frequency in radians per second.
	BlinkFrequency float64        `json:"blink_frequency"`
	Tracker        tracker.Config `json:"tracker"`
}

// DefaultConfig returns the default session tunables.
func DefaultConfig() Config {
	return Config{
		NoiseThreshold: DefaultNoiseThreshold,
		BlinkFrequency: 8,
		Tracker:        tracker.DefaultConfig(),
	}
}

// Validate rejects out-of-range tunables.
func (c Config) Validate() error {
	if c.NoiseThreshold <= 0 {
		return fmt.Errorf("%w: noise threshold %d must be positive", ErrInvalidConfig, c.NoiseThreshold)
	}
	if !(c.BlinkFrequency > 0) || math.IsInf(c.BlinkFrequency, 0) {
		return fmt.Errorf("%w: blink frequency %v must be positive", ErrInvalidConfig, c.BlinkFrequency)
	}
	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Transition reports a tracker mode change.
type Transition struct {
	From     tracker.Mode  `json:"from"`
	To       tracker.Mode  `json:"to"`
	Position r2.Vec        `json:"position"`
	At       time.Duration `json:"at"`
}

// Options configures a Session beyond its tunables.
type Options struct {
	// AwaitStart starts the session in AwaitingStart until SetStartPosition.
	AwaitStart bool
	// OnTransition is called synchronously for every mode change.
	OnTransition func(Transition)
}

// Session owns the tracker state of one tracking session.
type Session struct {
	config  Config
	mapper  *mapper.Mapper
	state   tracker.State
	enabled bool
	notify  func(Transition)
}

// New validates config and returns a disabled session.
func New(config Config, m *mapper.Mapper, opts Options) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNilMapper
	}

	state := tracker.NewState()
	if opts.AwaitStart {
		state = tracker.AwaitStart()
	}

	return &Session{
		config: config,
		mapper: m,
		state:  state,
		notify: opts.OnTransition,
	}, nil
}

// Enable starts processing frames.
func (s *Session) Enable() { s.enabled = true }

// Disable stops processing frames. The tracker state is kept.
func (s *Session) Disable() { s.enabled = false }

// Enabled reports whether frames are processed.
func (s *Session) Enabled() bool { return s.enabled }

// Config returns the session tunables.
func (s *Session) Config() Config { return s.config }

// SetConfig replaces the tunables. The tracker state is kept.
func (s *Session) SetConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.config = config
	return nil
}

// State returns a copy of the tracker state.
func (s *Session) State() tracker.State { return s.state }

// Mapper returns the active coordinate mapper.
func (s *Session) Mapper() *mapper.Mapper { return s.mapper }

// SetMapper replaces the mapper after a capture or display resize.
func (s *Session) SetMapper(m *mapper.Mapper) error {
	if m == nil {
		return ErrNilMapper
	}
	s.mapper = m
	return nil
}

// SetStartPosition assigns the world-space start anchor. It may be called once.
func (s *Session) SetStartPosition(world r2.Vec) error {
	next, err := s.state.WithStart(world)
	if err != nil {
		return err
	}
	s.commit(next, world, 0)
	return nil
}

// commit stores next and reports a mode change.
func (s *Session) commit(next tracker.State, at r2.Vec, t time.Duration) {
	prev := s.state.Mode
	s.state = next
	if prev != next.Mode && s.notify != nil {
		s.notify(Transition{From: prev, To: next.Mode, Position: at, At: t})
	}
}

// CheckpointVisible reports whether the blinking checkpoint is lit at
// elapsed time at. It depends on wall-clock time only, never on frame count.
func CheckpointVisible(at time.Duration, frequency float64) bool {
	return math.Sin(at.Seconds()*frequency) > 0
}

// ProcessFrame runs one frame of candidates, in capture pixels, through the
// tracking policy and returns one directive per candidate. at is the time
// elapsed since the session clock started.
//
// A disabled session returns nil. A frame holding any malformed candidate is
// dropped as if empty. A frame with more than NoiseThreshold candidates is
// noise: every candidate is a raw detection and the tracker is untouched.
func (s *Session) ProcessFrame(candidates []detector.Circle, at time.Duration) []Directive {
	if !s.enabled {
		return nil
	}

	for _, c := range candidates {
		if !c.Valid() {
			return []Directive{}
		}
	}

	directives := make([]Directive, len(candidates))
	if len(candidates) > s.config.NoiseThreshold {
		for i, c := range candidates {
			directives[i] = Directive{Kind: Detection, Position: c.Center, Radius: c.Radius}
		}
		return directives
	}

	world := make([]r2.Vec, len(candidates))
	for i, c := range candidates {
		world[i] = s.mapper.ToWorld(c.Center)
	}

	next, obs := tracker.Step(s.config.Tracker, s.state, world)

	switch obs.Outcome {
	case tracker.Tracked, tracker.Regained:
		c := candidates[obs.Index]
		directives[obs.Index] = Directive{Kind: Track, Position: c.Center, Radius: c.Radius}
		s.commit(next, world[obs.Index], at)

	case tracker.Awaiting:
		anchor, ok := next.Checkpoint()
		if ok && CheckpointVisible(at, s.config.BlinkFrequency) {
			pixel := s.mapper.ToPixel(anchor)
			for i, c := range candidates {
				directives[i] = Directive{Kind: Checkpoint, Position: pixel, Radius: c.Radius}
			}
		}
		s.commit(next, anchor, at)

	case tracker.Lost:
		s.commit(next, next.LastKnown, at)

	default:
		s.commit(next, r2.Vec{}, at)
	}

	return directives
}
