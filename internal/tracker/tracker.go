// Package tracker implements the single-ball tracking state machine.
//
// A State is a plain value. Step consumes one frame's world-space candidates
// and returns the next State together with what happened, so the caller that
// owns the session decides where the State lives.
package tracker

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Mode is the tracking mode of the ball.
type Mode int

const (
	// AwaitingStart waits for the start anchor to be supplied.
	AwaitingStart Mode = iota
	// Tracking follows the ball frame to frame.
	Tracking
	// AwaitingRegain waits for the ball to reappear near the checkpoint.
	AwaitingRegain
)

var modeNames = [...]string{
	AwaitingStart:  "awaiting_start",
	Tracking:       "tracking",
	AwaitingRegain: "awaiting_regain",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var (
	// ErrStartAlreadySet is returned when the start anchor is assigned twice.
	ErrStartAlreadySet = errors.New("start position already set")
	// ErrInvalidPosition is returned for a start anchor that is not finite.
	ErrInvalidPosition = errors.New("position must be finite")
	// ErrInvalidThreshold is returned for non-positive distance thresholds.
	ErrInvalidThreshold = errors.New("threshold must be positive")
)

// Config holds the distance thresholds, in world units.
type Config struct {
	// ContinuityThreshold is the maximum jump between consecutive accepted positions.
	ContinuityThreshold float64 `json:"continuity_threshold"`
	// RegainThreshold is the maximum distance from the checkpoint that regains tracking.
	RegainThreshold float64 `json:"regain_threshold"`
}

// DefaultConfig returns thresholds sized for a ball of 10-40px radius on a
// 1:1 orthographic display. Regain is looser than continuity.
func DefaultConfig() Config {
	return Config{
		ContinuityThreshold: 60,
		RegainThreshold:     90,
	}
}

// Validate checks that both thresholds are strictly positive.
func (c Config) Validate() error {
	if !(c.ContinuityThreshold > 0) {
		return fmt.Errorf("continuity %v: %w", c.ContinuityThreshold, ErrInvalidThreshold)
	}
	if !(c.RegainThreshold > 0) {
		return fmt.Errorf("regain %v: %w", c.RegainThreshold, ErrInvalidThreshold)
	}
	return nil
}

// State is the tracking state of the ball for one session.
// LastKnown is meaningful only when HasLastKnown is set.
type State struct {
	Mode         Mode   `json:"mode"`
	Start        r2.Vec `json:"start"`
	HasStart     bool   `json:"has_start"`
	LastKnown    r2.Vec `json:"last_known"`
	HasLastKnown bool   `json:"has_last_known"`
}

// NewState returns the state of a session without a start anchor: tracking
// begins immediately and the first candidate defines the position.
func NewState() State {
	return State{Mode: Tracking}
}

// AwaitStart returns the state of a session that waits for its start anchor.
func AwaitStart() State {
	return State{Mode: AwaitingStart}
}

// WithStart assigns the start anchor. The ball is expected at the anchor, so
// the anchor also becomes the last known position and tracking begins.
func (s State) WithStart(p r2.Vec) (State, error) {
	if s.HasStart {
		return s, ErrStartAlreadySet
	}
	if !finite(p) {
		return s, fmt.Errorf("%w: %v", ErrInvalidPosition, p)
	}
	s.Start = p
	s.HasStart = true
	s.LastKnown = p
	s.HasLastKnown = true
	s.Mode = Tracking
	return s, nil
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Checkpoint returns the regain anchor: the start position if one was set,
// otherwise the last position recorded before tracking was lost.
func (s State) Checkpoint() (r2.Vec, bool) {
	if s.HasStart {
		return s.Start, true
	}
	return s.LastKnown, s.HasLastKnown
}

// Outcome describes what one frame did to the state.
type Outcome int

const (
	// Ignored means the state is unchanged and nothing was accepted.
	Ignored Outcome = iota
	// Tracked means a candidate continued the trajectory.
	Tracked
	// Lost means no candidate was close enough and tracking was lost.
	Lost
	// Regained means a candidate reappeared near the checkpoint.
	Regained
	// Awaiting means tracking is still lost after this frame.
	Awaiting
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Tracked:
		return "tracked"
	case Lost:
		return "lost"
	case Regained:
		return "regained"
	case Awaiting:
		return "awaiting"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Observation is the result of one Step. Index is the accepted candidate,
// or -1 when none was accepted.
type Observation struct {
	Outcome Outcome
	Index   int
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// firstWithin returns the index of the first candidate within limit of p.
func firstWithin(candidates []r2.Vec, p r2.Vec, limit float64) int {
	for i, c := range candidates {
		if Distance(c, p) <= limit {
			return i
		}
	}
	return -1
}

// Step advances s by one frame of world-space candidates. At most one
// candidate is accepted per frame: the first, in detection order, that
// passes the active threshold test.
func Step(cfg Config, s State, candidates []r2.Vec) (State, Observation) {
	none := Observation{Outcome: Ignored, Index: -1}
	if len(candidates) == 0 {
		return s, none
	}

	switch s.Mode {
	case Tracking:
		if !s.HasLastKnown {
			s.LastKnown = candidates[0]
			s.HasLastKnown = true
			return s, Observation{Outcome: Tracked, Index: 0}
		}
		if i := firstWithin(candidates, s.LastKnown, cfg.ContinuityThreshold); i >= 0 {
			s.LastKnown = candidates[i]
			return s, Observation{Outcome: Tracked, Index: i}
		}
		s.Mode = AwaitingRegain
		return s, Observation{Outcome: Lost, Index: -1}

	case AwaitingRegain:
		anchor, ok := s.Checkpoint()
		if !ok {
			// Unreachable through Step; recover by accepting the first candidate.
			anchor = candidates[0]
		}
		if i := firstWithin(candidates, anchor, cfg.RegainThreshold); i >= 0 {
			s.Mode = Tracking
			s.LastKnown = candidates[i]
			s.HasLastKnown = true
			return s, Observation{Outcome: Regained, Index: i}
		}
		return s, Observation{Outcome: Awaiting, Index: -1}
	}

	return s, none
}
