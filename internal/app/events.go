package app

import (
	"sync"
	"time"

	"github.com/ayusman/courtside/internal/session"
	"github.com/ayusman/courtside/internal/tracker"
)

// Event types delivered to subscribers.
const (
	EventEnabled    = "enabled"
	EventDisabled   = "disabled"
	EventTransition = "transition"
)

// subscriberBuffer is how many events a subscriber may lag before drops.
const subscriberBuffer = 16

// Event is a tracking lifecycle notification.
type Event struct {
	Type       string              `json:"type"`
	SessionID  string              `json:"session_id,omitempty"`
	Mode       tracker.Mode        `json:"mode"`
	Transition *session.Transition `json:"transition,omitempty"`
	Time       time.Time           `json:"time"`
}

// broker fans events out to subscribers without blocking the publisher.
type broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[chan Event]struct{})}
}

func (b *broker) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (b *broker) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// closeAll ends every subscription.
func (b *broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
