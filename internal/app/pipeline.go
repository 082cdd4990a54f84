package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/courtside/internal/detector"
	"github.com/ayusman/courtside/internal/log"
	"github.com/ayusman/courtside/internal/mapper"
	"github.com/ayusman/courtside/internal/render"
)

// Start opens the camera and launches the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.Info("frame loop started", "capture", a.camera.Resolution())
	return nil
}

// Stop halts the frame loop, ends any open session and releases the camera,
// detector and plugin workers. The App cannot be restarted afterwards.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.SetEnabled(false)

	// Release the camera, motion gate and detector
	a.mu.Lock()
	if err := a.camera.Close(); err != nil {
		log.Warn("error closing camera", "error", err)
	}
	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Warn("error closing detector", "error", err)
		}
	}
	a.mu.Unlock()

	a.dispatcher.Stop()
	a.events.closeAll()

	log.Info("frame loop stopped")
}

// runPipeline reads frames on a ticker and feeds them to ProcessFrame.
//
// The loop starts at IdleFPS. Motion between consecutive frames switches it
// to ActiveFPS, and IdleTimeout without motion switches it back. Every frame
// read is processed; only the cadence changes.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	a.mu.RLock()
	camera := a.camera
	a.mu.RUnlock()

	active := false
	lastMotion := time.Now()

	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		// Step 1: Read frame from camera
		frame, err := camera.ReadFrame()
		if err != nil {
			log.Debug("frame read failed", "error", err)
			continue
		}

		// Step 2: Motion gate picks the frame rate
		if moved, _ := a.motion.Detect(frame); moved {
			lastMotion = time.Now()
			// Switch to active mode if not already
			if !active {
				active = true
				camera.SetFPS(ActiveFPS)
				ticker.Reset(time.Second / ActiveFPS)
				log.Debug("switched to active frame rate")
			}
		} else if active && time.Since(lastMotion) > IdleTimeout {
			active = false
			camera.SetFPS(IdleFPS)
			ticker.Reset(time.Second / IdleFPS)
			log.Debug("switched to idle frame rate")
		}

		// Step 3: Detect, track and publish the annotated frame
		if _, err := a.ProcessFrame(frame, a.Elapsed()); err != nil {
			log.Debug("frame skipped", "error", err)
		}
		frame.Close()
	}
}

// ProcessFrame detects candidates in frame, runs them through the tracking
// session and renders the resulting directives onto a copy that becomes the
// latest stream frame. Detector failures count as a frame without
// candidates. While tracking is disabled the frame is only republished.
func (a *App) ProcessFrame(frame *gocv.Mat, at time.Duration) (Report, error) {
	if frame == nil || frame.Empty() {
		return Report{}, detector.ErrEmptyFrame
	}

	a.mu.RLock()
	d, style, enabled := a.detector, a.config.Style, a.enabled
	a.mu.RUnlock()

	// A detector swapped out meanwhile returns ErrClosed, which counts as
	// a frame without candidates.
	var circles []detector.Circle
	if enabled && d != nil {
		var err error
		circles, err = d.Detect(frame)
		if err != nil {
			log.Warn("detection failed", "error", err)
			circles = nil
		}
	}

	report := a.HandleCandidates(circles, mapper.Resolution{Width: frame.Cols(), Height: frame.Rows()}, at)

	// Draw directives on a copy so the caller keeps the raw frame
	annotated := frame.Clone()
	defer annotated.Close()
	render.Draw(&annotated, report.Directives, style)

	jpeg, err := render.Encode(annotated)
	if err != nil {
		log.Warn("failed to encode frame", "error", err)
		return report, nil
	}

	a.mu.Lock()
	a.latest = jpeg
	a.mu.Unlock()

	return report, nil
}
