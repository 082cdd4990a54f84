// Package main provides a sound plugin for macOS.
// It plays a system sound or speaks a phrase when a tracking event fires.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Event   string          `json:"event"`
	Session string          `json:"session"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SoundConfig is read from the binding config, then from params.
type SoundConfig struct {
	// Cue names the sound to play. Empty uses the cue of the event.
	Cue string `json:"cue"`
	// Text is spoken by the announce action. Empty uses a phrase for the event.
	Text string `json:"text"`
}

const soundDir = "/System/Library/Sounds"

// cues maps cue names to system sounds.
var cues = map[string]string{
	"whistle": "Ping",
	"alert":   "Basso",
	"chime":   "Glass",
	"start":   "Hero",
	"pop":     "Pop",
}

// eventCues is the cue played for an event when none is configured.
var eventCues = map[string]string{
	"started":  "start",
	"lost":     "alert",
	"regained": "chime",
}

var eventPhrases = map[string]string{
	"started":  "Tracking started",
	"lost":     "Ball lost",
	"regained": "Ball found",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cfg, err := parseConfig(req.Config, req.Params)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	switch req.Action {
	case "play":
		err = play(cfg.Cue, req.Event)
	case "announce":
		err = announce(cfg.Text, req.Event)
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

// parseConfig overlays params onto the binding config.
func parseConfig(config, params json.RawMessage) (SoundConfig, error) {
	var cfg SoundConfig
	for _, raw := range []json.RawMessage{config, params} {
		if len(raw) == 0 {
			continue
		}
		var c SoundConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
		if c.Cue != "" {
			cfg.Cue = c.Cue
		}
		if c.Text != "" {
			cfg.Text = c.Text
		}
	}
	return cfg, nil
}

// resolveCue returns the sound file for cue, or for the event when cue is empty.
func resolveCue(cue, event string) (string, error) {
	if cue == "" {
		cue = eventCues[event]
	}
	name, ok := cues[strings.ToLower(cue)]
	if !ok {
		return "", fmt.Errorf("unknown cue %q", cue)
	}
	return filepath.Join(soundDir, name+".aiff"), nil
}

func play(cue, event string) error {
	file, err := resolveCue(cue, event)
	if err != nil {
		return err
	}
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("sound playback is not supported on %s", runtime.GOOS)
	}
	return run("afplay", file)
}

func announce(text, event string) error {
	if text == "" {
		text = eventPhrases[event]
	}
	if text == "" {
		return fmt.Errorf("text is required")
	}
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("speech is not supported on %s", runtime.GOOS)
	}
	return run("say", text)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
