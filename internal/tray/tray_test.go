package tray

import (
	"testing"

	"github.com/ayusman/courtside/internal/tracker"
)

func TestTray_Toggle(t *testing.T) {
	tr := New(false)

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("toggle callbacks = %v, want [true false]", got)
	}
	if tr.IsEnabled() {
		t.Error("expected tray to end disabled")
	}
}

func TestTray_SetEnabledDoesNotCallback(t *testing.T) {
	tr := New(true)
	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(false)

	if called {
		t.Error("SetEnabled must not invoke the toggle callback")
	}
	if tr.IsEnabled() {
		t.Error("expected tray to be disabled")
	}
}

func TestTray_Settings(t *testing.T) {
	tr := New(true)
	tr.handleSettings()

	opened := 0
	tr.OnSettings(func() { opened++ })
	tr.handleSettings()

	if opened != 1 {
		t.Errorf("settings opened %d times, want 1", opened)
	}
}

func TestTray_Mode(t *testing.T) {
	tr := New(true)
	if tr.Mode() != tracker.Tracking {
		t.Errorf("initial mode = %v", tr.Mode())
	}

	tr.SetMode(tracker.AwaitingRegain)
	if tr.Mode() != tracker.AwaitingRegain {
		t.Errorf("mode = %v, want awaiting_regain", tr.Mode())
	}
}

func TestTitles(t *testing.T) {
	if toggleTitle(true) == toggleTitle(false) {
		t.Error("toggle titles must differ by state")
	}

	seen := map[string]bool{}
	for _, m := range []tracker.Mode{tracker.AwaitingStart, tracker.Tracking, tracker.AwaitingRegain} {
		title := modeTitle(m)
		if title == "" || seen[title] {
			t.Errorf("mode %v has title %q", m, title)
		}
		seen[title] = true
	}
}
