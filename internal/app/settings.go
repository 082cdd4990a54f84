package app

import (
	"fmt"
	"strconv"

	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/session"
	"github.com/ayusman/courtside/internal/store"
)

// Settings renders the tunables as store settings.
func Settings(s session.Config, d detector.Config) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		store.KeyContinuityThreshold: f(s.Tracker.ContinuityThreshold),
		store.KeyRegainThreshold:     f(s.Tracker.RegainThreshold),
		store.KeyBlinkFrequency:      f(s.BlinkFrequency),
		store.KeyNoiseThreshold:      strconv.Itoa(s.NoiseThreshold),
		store.KeyDetectorDP:          f(d.DP),
		store.KeyDetectorMinDistance: f(d.MinDistance),
		store.KeyDetectorEdge:        f(d.EdgeThreshold),
		store.KeyDetectorCenter:      f(d.CenterThreshold),
		store.KeyDetectorMinRadius:   strconv.Itoa(d.MinRadius),
		store.KeyDetectorMaxRadius:   strconv.Itoa(d.MaxRadius),
	}
}

// ApplySettings overlays values onto the given tunables. Unknown keys are
// rejected so a typo does not silently keep a default. The results are
// validated.
func ApplySettings(values map[string]string, s session.Config, d detector.Config) (session.Config, detector.Config, error) {
	for key, raw := range values {
		var err error
		switch key {
		case store.KeyContinuityThreshold:
			s.Tracker.ContinuityThreshold, err = strconv.ParseFloat(raw, 64)
		case store.KeyRegainThreshold:
			s.Tracker.RegainThreshold, err = strconv.ParseFloat(raw, 64)
		case store.KeyBlinkFrequency:
			s.BlinkFrequency, err = strconv.ParseFloat(raw, 64)
		case store.KeyNoiseThreshold:
			s.NoiseThreshold, err = strconv.Atoi(raw)
		case store.KeyDetectorDP:
			d.DP, err = strconv.ParseFloat(raw, 64)
		case store.KeyDetectorMinDistance:
			d.MinDistance, err = strconv.ParseFloat(raw, 64)
		case store.KeyDetectorEdge:
			d.EdgeThreshold, err = strconv.ParseFloat(raw, 64)
		case store.KeyDetectorCenter:
			d.CenterThreshold, err = strconv.ParseFloat(raw, 64)
		case store.KeyDetectorMinRadius:
			d.MinRadius, err = strconv.Atoi(raw)
		case store.KeyDetectorMaxRadius:
			d.MaxRadius, err = strconv.Atoi(raw)
		default:
			return s, d, fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return s, d, fmt.Errorf("setting %s: %w", key, err)
		}
	}

	if err := s.Validate(); err != nil {
		return s, d, err
	}
	if err := d.Validate(); err != nil {
		return s, d, err
	}
	return s, d, nil
}

// LoadSettings overlays the settings persisted in st onto config.
func LoadSettings(st *store.Store, config Config) (Config, error) {
	values, err := st.Settings().All()
	if err != nil {
		return config, fmt.Errorf("load settings: %w", err)
	}

	config.Session, config.Detection, err = ApplySettings(values, config.Session, config.Detection)
	return config, err
}

// UpdateSettings validates values against the running tunables, applies them
// live and persists them.
func (a *App) UpdateSettings(values map[string]string) (map[string]string, error) {
	sc, dc, err := ApplySettings(values, a.SessionConfig(), a.DetectionConfig())
	if err != nil {
		return nil, err
	}

	if err := a.SetSessionConfig(sc); err != nil {
		return nil, err
	}
	if dc != a.DetectionConfig() {
		if err := a.SetDetectionConfig(dc); err != nil {
			return nil, err
		}
	}

	current := Settings(sc, dc)
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetAll(values); err != nil {
			return current, fmt.Errorf("persist settings: %w", err)
		}
	}
	return current, nil
}

// CurrentSettings returns the running tunables as settings.
func (a *App) CurrentSettings() map[string]string {
	return Settings(a.SessionConfig(), a.DetectionConfig())
}
