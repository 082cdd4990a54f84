package store

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    Event
		wantErr bool
	}{
		{"lost", EventLost, false},
		{"regained", EventRegained, false},
		{"started", EventStarted, false},
		{"bounced", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvent(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Errorf("ParseEvent(%q) error = %v, want ErrInvalidEvent", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseEvent(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestBindingRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	b := &Binding{
		Event:      EventLost,
		PluginName: "sound",
		ActionName: "play",
		Config:     json.RawMessage(`{"file":"beep.wav"}`),
		Enabled:    true,
	}
	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.ID == "" || b.CreatedAt.IsZero() {
		t.Fatal("Create() should assign ID and CreatedAt")
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Event != EventLost || got.PluginName != "sound" || !got.Enabled {
		t.Errorf("GetByID() = %+v", got)
	}
	if string(got.Config) != `{"file":"beep.wav"}` {
		t.Errorf("Config = %s", got.Config)
	}

	got.Event = EventRegained
	got.Enabled = false
	got.Config = nil
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	updated, _ := repo.GetByID(b.ID)
	if updated.Event != EventRegained || updated.Enabled {
		t.Errorf("after Update() = %+v", updated)
	}
	if string(updated.Config) != "{}" {
		t.Errorf("nil config should be stored as {}, got %s", updated.Config)
	}

	if err := repo.Delete(b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_RejectsUnknownEvent(t *testing.T) {
	s := newTestStore(t)

	err := s.Bindings().Create(&Binding{Event: "bounced", PluginName: "p", ActionName: "a"})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Create() error = %v, want ErrInvalidEvent", err)
	}
}

func TestBindingRepository_ListByEvent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	fixtures := []*Binding{
		{ID: "1", Event: EventLost, PluginName: "sound", ActionName: "play", Enabled: true},
		{ID: "2", Event: EventLost, PluginName: "keyboard", ActionName: "press", Enabled: false},
		{ID: "3", Event: EventRegained, PluginName: "sound", ActionName: "play", Enabled: true},
		{ID: "4", Event: EventLost, PluginName: "keyboard", ActionName: "press", Enabled: true},
	}
	for _, b := range fixtures {
		if err := repo.Create(b); err != nil {
			t.Fatalf("Create(%s) error = %v", b.ID, err)
		}
	}

	lost, err := repo.ListByEvent(EventLost)
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(lost) != 2 || lost[0].ID != "1" || lost[1].ID != "4" {
		t.Errorf("ListByEvent(lost) = %v, want [1 4]", bindingIDs(lost))
	}

	started, err := repo.ListByEvent(EventStarted)
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(started) != 0 {
		t.Errorf("ListByEvent(started) = %v, want none", bindingIDs(started))
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List() = %d bindings, want 4", len(all))
	}
}

func TestBindingRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	if err := repo.Update(&Binding{ID: "missing", Event: EventLost}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func bindingIDs(bs []*Binding) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}
