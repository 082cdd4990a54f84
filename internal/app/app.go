// Package app wires capture, detection, the tracking session, persistence and
// plugins into the running tracker.
package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/courtside/internal/capture"
	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/log"
	"github.com/ayusman/courtside/internal/mapper"
	"github.com/ayusman/courtside/internal/plugin"
	"github.com/ayusman/courtside/internal/render"
	"github.com/ayusman/courtside/internal/session"
	"github.com/ayusman/courtside/internal/store"
	"github.com/ayusman/courtside/internal/tracker"
)

// Pipeline timing constants.
const (
	// IdleFPS is the read rate while the court is still.
	IdleFPS = 10
	// ActiveFPS is the read rate while something moves.
	ActiveFPS = 30
	// IdleTimeout is how long without motion before dropping to IdleFPS.
	IdleTimeout = 2 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	PluginDir string
	Capture   capture.Config
	// Display is the resolution of the surface directives are drawn for.
	// Zero uses the capture resolution.
	Display   mapper.Resolution
	Detection detector.Config
	Session   session.Config
	Style     render.Style
	// AwaitStart holds the tracker in AwaitingStart until a start position is set.
	AwaitStart bool
	// StartPosition, if set, is assigned as the start anchor on creation.
	StartPosition *r2.Vec
	Motion        capture.MotionConfig
}

// DefaultConfig returns a config using every package default and no store.
func DefaultConfig() Config {
	return Config{
		Capture:   capture.DefaultConfig(),
		Detection: detector.DefaultConfig(),
		Session:   session.DefaultConfig(),
		Style:     render.DefaultStyle(),
		Motion:    capture.DefaultMotionConfig(),
	}
}

// Report summarizes one processed frame. Noise is set only when the session
// took the frame as noise; dropped and disabled frames report false.
type Report struct {
	Candidates int                 `json:"candidates"`
	Noise      bool                `json:"noise"`
	Mode       tracker.Mode        `json:"mode"`
	Directives []session.Directive `json:"directives"`
}

// Status is a snapshot of the tracker for the API and tray.
type Status struct {
	Enabled    bool              `json:"enabled"`
	Running    bool              `json:"running"`
	SessionID  string            `json:"session_id,omitempty"`
	Mode       tracker.Mode      `json:"mode"`
	LastKnown  *r2.Vec           `json:"last_known,omitempty"`
	Checkpoint *r2.Vec           `json:"checkpoint,omitempty"`
	Capture    mapper.Resolution `json:"capture"`
	Display    mapper.Resolution `json:"display"`
	Frames     uint64            `json:"frames"`
}

// App is the running tracker.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	session    *session.Session
	pluginMgr  *plugin.Manager
	dispatcher *plugin.Dispatcher
	events     *broker

	mu        sync.RWMutex
	enabled   bool
	sessionID string
	epoch     time.Time
	frames    uint64
	latest    []byte
	stopCh    chan struct{}
	done      chan struct{}
}

// New validates config and builds an App. Nothing touches the camera until Start.
func New(config Config) (*App, error) {
	if err := config.Detection.Validate(); err != nil {
		return nil, err
	}
	if err := config.Session.Validate(); err != nil {
		return nil, err
	}
	if err := config.Capture.Validate(); err != nil {
		return nil, err
	}
	res := config.Capture.Resolution()
	config.Capture.Width, config.Capture.Height = res.Width, res.Height
	if config.Display == (mapper.Resolution{}) {
		config.Display = mapper.Resolution{Width: config.Capture.Width, Height: config.Capture.Height}
	}
	if config.Style == (render.Style{}) {
		config.Style = render.DefaultStyle()
	}

	m, err := newMapper(mapper.Resolution{Width: config.Capture.Width, Height: config.Capture.Height}, config.Display)
	if err != nil {
		return nil, err
	}

	hough, err := detector.NewHoughDetector(config.Detection)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:    config,
		camera:    capture.NewCamera(config.Capture),
		detector:  hough,
		pluginMgr: plugin.NewManager(config.PluginDir),
		events:    newBroker(),
		epoch:     time.Now(),
	}
	a.dispatcher = plugin.NewDispatcher(a.pluginMgr, plugin.NewExecutor(plugin.DefaultTimeout), 32, nil)

	a.session, err = session.New(config.Session, m, session.Options{
		AwaitStart:   config.AwaitStart || config.StartPosition != nil,
		OnTransition: a.onTransition,
	})
	if err != nil {
		hough.Close()
		return nil, err
	}
	if config.StartPosition != nil {
		// A fresh session accepts exactly one start position.
		if err := a.session.SetStartPosition(*config.StartPosition); err != nil {
			hough.Close()
			return nil, err
		}
	}

	a.motion = capture.NewMotionDetector(config.Motion)
	a.dispatcher.Start(2)

	return a, nil
}

func newMapper(capture, display mapper.Resolution) (*mapper.Mapper, error) {
	return mapper.New(capture, display, mapper.NewOrthographic(display))
}

// SetEnabled begins or stops tracking. Beginning opens a session row in the
// store; stopping ends it.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if enabled == a.enabled {
		return
	}
	a.enabled = enabled

	if enabled {
		a.session.Enable()
		a.beginSession()
	} else {
		a.session.Disable()
		a.endSession()
	}

	a.events.publish(Event{
		Type:      eventType(enabled),
		SessionID: a.sessionID,
		Mode:      a.session.State().Mode,
		Time:      time.Now(),
	})
	log.Info("tracking toggled", "enabled", enabled, "session", a.sessionID)
}

func eventType(enabled bool) string {
	if enabled {
		return EventEnabled
	}
	return EventDisabled
}

// beginSession opens a store row for a new enable cycle. Callers hold a.mu.
func (a *App) beginSession() {
	a.sessionID = ""
	if a.config.Store == nil {
		return
	}

	state := a.session.State()
	row := &store.Session{}
	if state.HasStart {
		row.StartX, row.StartY, row.HasStart = state.Start.X, state.Start.Y, true
	}
	if err := a.config.Store.Sessions().Create(row); err != nil {
		log.Error("failed to open session", "error", err)
		return
	}
	a.sessionID = row.ID
	a.dispatch(store.EventStarted, session.Transition{To: state.Mode, Position: state.LastKnown, At: time.Since(a.epoch)})
}

// endSession closes the current store row. Callers hold a.mu.
func (a *App) endSession() {
	if a.config.Store == nil || a.sessionID == "" {
		return
	}
	if err := a.config.Store.Sessions().End(a.sessionID, time.Now()); err != nil {
		log.Error("failed to end session", "session", a.sessionID, "error", err)
	}
}

// IsEnabled returns whether tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetStartPosition assigns the world-space start anchor.
func (a *App) SetStartPosition(world r2.Vec) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.SetStartPosition(world); err != nil {
		return err
	}

	if a.config.Store != nil && a.sessionID != "" {
		if err := a.config.Store.Sessions().SetStart(a.sessionID, world.X, world.Y); err != nil {
			log.Error("failed to record start position", "session", a.sessionID, "error", err)
		}
	}
	return nil
}

// SetStartPixel assigns the start anchor from a capture-frame pixel.
func (a *App) SetStartPixel(pixel r2.Vec) error {
	a.mu.RLock()
	world := a.session.Mapper().ToWorld(pixel)
	a.mu.RUnlock()
	return a.SetStartPosition(world)
}

// onTransition persists a mode change and fires its bindings. It runs inside
// session calls, so a.mu is already held.
func (a *App) onTransition(t session.Transition) {
	log.Info("tracking transition", "from", t.From, "to", t.To, "x", t.Position.X, "y", t.Position.Y, "at", t.At)

	if a.config.Store != nil && a.sessionID != "" {
		err := a.config.Store.Transitions().Record(&store.Transition{
			SessionID: a.sessionID,
			From:      t.From.String(),
			To:        t.To.String(),
			X:         t.Position.X,
			Y:         t.Position.Y,
			At:        t.At,
		})
		if err != nil {
			log.Error("failed to record transition", "session", a.sessionID, "error", err)
		}
	}

	switch {
	case t.From == tracker.Tracking && t.To == tracker.AwaitingRegain:
		a.dispatch(store.EventLost, t)
	case t.From == tracker.AwaitingRegain && t.To == tracker.Tracking:
		a.dispatch(store.EventRegained, t)
	}

	tc := t
	a.events.publish(Event{
		Type:       EventTransition,
		SessionID:  a.sessionID,
		Mode:       t.To,
		Transition: &tc,
		Time:       time.Now(),
	})
}

// transitionParams is sent to plugins as Request.Params.
type transitionParams struct {
	From string  `json:"from,omitempty"`
	To   string  `json:"to"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	AtMS int64   `json:"at_ms"`
}

// dispatch queues every enabled binding for event. Callers hold a.mu.
func (a *App) dispatch(event store.Event, t session.Transition) {
	if a.config.Store == nil {
		return
	}

	bindings, err := a.config.Store.Bindings().ListByEvent(event)
	if err != nil {
		log.Error("failed to load bindings", "event", event, "error", err)
		return
	}
	if len(bindings) == 0 {
		return
	}

	p := transitionParams{To: t.To.String(), X: t.Position.X, Y: t.Position.Y, AtMS: t.At.Milliseconds()}
	if event != store.EventStarted {
		p.From = t.From.String()
	}
	params, err := json.Marshal(p)
	if err != nil {
		log.Error("failed to encode plugin params", "error", err)
		return
	}

	for _, b := range bindings {
		job := plugin.Job{
			Plugin: b.PluginName,
			Request: plugin.Request{
				Action:  b.ActionName,
				Event:   string(event),
				Session: a.sessionID,
				Config:  b.Config,
				Params:  params,
			},
		}
		if err := a.dispatcher.Submit(job); err != nil {
			log.Warn("dropped plugin action", "plugin", b.PluginName, "action", b.ActionName, "error", err)
		}
	}
}

// HandleCandidates runs one frame of detected circles, measured against a
// capture of the given resolution, through the tracking session. at is the
// frame time on the app clock.
func (a *App) HandleCandidates(circles []detector.Circle, capture mapper.Resolution, at time.Duration) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.resize(capture); err != nil {
		log.Warn("ignoring frame with bad resolution", "capture", capture, "error", err)
		return Report{Mode: a.session.State().Mode}
	}

	directives := a.session.ProcessFrame(circles, at)
	a.frames++

	return Report{
		Candidates: len(circles),
		Noise:      isNoise(directives),
		Mode:       a.session.State().Mode,
		Directives: directives,
	}
}

// isNoise reports whether directives came from a noise frame, which is the
// only case that yields raw detections.
func isNoise(directives []session.Directive) bool {
	return len(directives) > 0 && directives[0].Kind == session.Detection
}

// resize swaps the mapper when the capture resolution changes. Callers hold a.mu.
func (a *App) resize(capture mapper.Resolution) error {
	current := a.session.Mapper()
	if current.Capture() == capture {
		return nil
	}

	m, err := newMapper(capture, a.config.Display)
	if err != nil {
		return err
	}
	log.Info("capture resolution changed", "from", current.Capture(), "to", capture)
	return a.session.SetMapper(m)
}

// SetDisplay changes the display resolution the mapper targets.
func (a *App) SetDisplay(display mapper.Resolution) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, err := newMapper(a.session.Mapper().Capture(), display)
	if err != nil {
		return err
	}
	a.config.Display = display
	return a.session.SetMapper(m)
}

// Elapsed returns the time on the app clock.
func (a *App) Elapsed() time.Duration {
	return time.Since(a.epoch)
}

// Status returns a snapshot of the tracker.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	state := a.session.State()
	m := a.session.Mapper()
	st := Status{
		Enabled:   a.enabled,
		Running:   a.stopCh != nil,
		SessionID: a.sessionID,
		Mode:      state.Mode,
		Capture:   m.Capture(),
		Display:   m.Display(),
		Frames:    a.frames,
	}
	if state.HasLastKnown {
		p := state.LastKnown
		st.LastKnown = &p
	}
	if p, ok := state.Checkpoint(); ok && state.Mode == tracker.AwaitingRegain {
		st.Checkpoint = &p
	}
	return st
}

// SessionConfig returns the active session tunables.
func (a *App) SessionConfig() session.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Config()
}

// DetectionConfig returns the active detector tunables.
func (a *App) DetectionConfig() detector.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Detection
}

// SetSessionConfig replaces the session tunables without resetting the tracker.
func (a *App) SetSessionConfig(config session.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.session.SetConfig(config); err != nil {
		return err
	}
	a.config.Session = config
	return nil
}

// SetDetectionConfig swaps in a Hough detector built from config.
func (a *App) SetDetectionConfig(config detector.Config) error {
	hough, err := detector.NewHoughDetector(config)
	if err != nil {
		return err
	}

	a.mu.Lock()
	old := a.detector
	a.detector = hough
	a.config.Detection = config
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// SetDetector replaces the candidate source and closes the previous one.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	old := a.detector
	a.detector = d
	a.mu.Unlock()

	if old != nil && old != d {
		old.Close()
	}
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	return nil
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Store returns the backing store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// LatestJPEG returns the most recent annotated frame, or nil before the first.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// Subscribe returns a channel of app events and a function that cancels the
// subscription. Slow subscribers miss events rather than stall the frame loop.
func (a *App) Subscribe() (<-chan Event, func()) {
	return a.events.subscribe()
}
