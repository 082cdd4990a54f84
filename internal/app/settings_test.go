package app

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/session"
	"github.com/ayusman/courtside/internal/store"
)

func TestSettings_RoundTripDefaults(t *testing.T) {
	s, d := session.DefaultConfig(), detector.DefaultConfig()

	gotS, gotD, err := ApplySettings(Settings(s, d), session.DefaultConfig(), detector.DefaultConfig())
	require.NoError(t, err)

	if diff := cmp.Diff(s, gotS); diff != "" {
		t.Errorf("session config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(d, gotD); diff != "" {
		t.Errorf("detector config mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySettings(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr error
		check   func(t *testing.T, s session.Config, d detector.Config)
	}{
		{
			name:   "empty keeps defaults",
			values: map[string]string{},
			check: func(t *testing.T, s session.Config, d detector.Config) {
				assert.Equal(t, session.DefaultConfig(), s)
			},
		},
		{
			name: "overrides",
			values: map[string]string{
				store.KeyContinuityThreshold: "45.5",
				store.KeyNoiseThreshold:      "3",
				store.KeyDetectorMaxRadius:   "60",
			},
			check: func(t *testing.T, s session.Config, d detector.Config) {
				assert.Equal(t, 45.5, s.Tracker.ContinuityThreshold)
				assert.Equal(t, 3, s.NoiseThreshold)
				assert.Equal(t, 60, d.MaxRadius)
			},
		},
		{
			name:   "unknown key",
			values: map[string]string{"tracker.speed": "1"},
		},
		{
			name:   "malformed number",
			values: map[string]string{store.KeyBlinkFrequency: "fast"},
		},
		{
			name:    "invalid session value",
			values:  map[string]string{store.KeyRegainThreshold: "-1"},
			wantErr: session.ErrInvalidConfig,
		},
		{
			name:    "invalid detector value",
			values:  map[string]string{store.KeyDetectorMinRadius: "99"},
			wantErr: detector.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d, err := ApplySettings(tt.values, session.DefaultConfig(), detector.DefaultConfig())
			if tt.check == nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			tt.check(t, s, d)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Settings().Set(store.KeyRegainThreshold, "120"))

	cfg, err := LoadSettings(s, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Session.Tracker.RegainThreshold)
	assert.Equal(t, session.DefaultConfig().Tracker.ContinuityThreshold, cfg.Session.Tracker.ContinuityThreshold)

	require.NoError(t, s.Settings().Set(store.KeyNoiseThreshold, "0"))
	_, err = LoadSettings(s, DefaultConfig())
	assert.ErrorIs(t, err, session.ErrInvalidConfig)
}

func TestUpdateSettings(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, func(c *Config) { c.Store = s })

	current, err := a.UpdateSettings(map[string]string{
		store.KeyContinuityThreshold: "30",
		store.KeyDetectorMaxRadius:   "50",
	})
	require.NoError(t, err)
	assert.Equal(t, "30", current[store.KeyContinuityThreshold])
	assert.Equal(t, 30.0, a.SessionConfig().Tracker.ContinuityThreshold)
	assert.Equal(t, 50, a.DetectionConfig().MaxRadius)
	assert.Equal(t, current, a.CurrentSettings())

	persisted, err := s.Settings().Get(store.KeyContinuityThreshold)
	require.NoError(t, err)
	assert.Equal(t, "30", persisted)

	_, err = a.UpdateSettings(map[string]string{store.KeyNoiseThreshold: "-2"})
	assert.ErrorIs(t, err, session.ErrInvalidConfig)
	assert.Equal(t, session.DefaultNoiseThreshold, a.SessionConfig().NoiseThreshold)
}

func TestUpdateSettings_KeepsTrackerState(t *testing.T) {
	a := newTestApp(t, nil)
	a.SetEnabled(true)
	a.HandleCandidates(ball(100, 100), vga, 0)

	_, err := a.UpdateSettings(map[string]string{store.KeyContinuityThreshold: "5"})
	require.NoError(t, err)
	require.NotNil(t, a.Status().LastKnown)

	r := a.HandleCandidates(ball(120, 100), vga, 0)
	assert.Equal(t, "awaiting_regain", r.Mode.String(), "tighter continuity applies to the next frame")
}
