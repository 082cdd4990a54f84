package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository_GetSet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get(KeyRegainThreshold); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() unset error = %v, want ErrNotFound", err)
	}

	if err := repo.Set(KeyRegainThreshold, "90"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(KeyRegainThreshold, "120"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	v, err := repo.Get(KeyRegainThreshold)
	if err != nil || v != "120" {
		t.Errorf("Get() = %q, %v; want 120", v, err)
	}
}

func TestSettingsRepository_SetAllAndAll(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	in := map[string]string{
		KeyContinuityThreshold: "60",
		KeyBlinkFrequency:      "8",
		KeyNoiseThreshold:      "5",
	}
	if err := repo.SetAll(in); err != nil {
		t.Fatalf("SetAll() error = %v", err)
	}

	got, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("All() = %v, want %v", got, in)
	}
	for k, v := range in {
		if got[k] != v {
			t.Errorf("All()[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestSettingsRepository_Typed(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	f, err := repo.Float(KeyContinuityThreshold, 60)
	if err != nil || f != 60 {
		t.Errorf("Float() unset = %v, %v; want default 60", f, err)
	}

	repo.Set(KeyContinuityThreshold, "42.5")
	if f, _ := repo.Float(KeyContinuityThreshold, 60); f != 42.5 {
		t.Errorf("Float() = %v, want 42.5", f)
	}

	repo.Set(KeyNoiseThreshold, "7")
	if n, _ := repo.Int(KeyNoiseThreshold, 5); n != 7 {
		t.Errorf("Int() = %d, want 7", n)
	}

	repo.Set(KeyNoiseThreshold, "seven")
	n, err := repo.Int(KeyNoiseThreshold, 5)
	if err == nil {
		t.Error("Int() should fail on a non-numeric value")
	}
	if n != 5 {
		t.Errorf("Int() on error = %d, want default 5", n)
	}
}
