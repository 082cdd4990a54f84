package session

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind selects which ring the display draws for a candidate.
type Kind int

const (
	// None draws nothing.
	None Kind = iota
	// Detection is a raw candidate from a noise frame.
	Detection
	// Track marks the accepted ball position.
	Track
	// Checkpoint marks where the ball must return to regain tracking.
	Checkpoint
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Detection:
		return "detection"
	case Track:
		return "track"
	case Checkpoint:
		return "checkpoint"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Directive tells the display to draw one ring in capture-frame pixels.
type Directive struct {
	Kind     Kind    `json:"kind"`
	Position r2.Vec  `json:"position"`
	Radius   float64 `json:"radius"`
}

// Visible reports whether the directive draws anything.
func (d Directive) Visible() bool {
	return d.Kind != None
}
