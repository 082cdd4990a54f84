package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/courtside/internal/tracker"
)

// TrackingHandler reports and toggles tracking.
type TrackingHandler struct {
	tracker Tracker
}

// NewTrackingHandler creates a TrackingHandler for t.
func NewTrackingHandler(t Tracker) *TrackingHandler {
	return &TrackingHandler{tracker: t}
}

// ServeHTTP routes /api/tracking and /api/tracking/start.
func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch itemID(r.URL.Path, "/api/tracking") {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.tracker.Status())
		case http.MethodPost, http.MethodPut:
			h.toggle(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// toggle handles POST /api/tracking {"enabled": bool}.
func (h *TrackingHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.tracker.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, h.tracker.Status())
}

type startRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Pixel marks X and Y as capture-frame pixels rather than world units.
	Pixel bool `json:"pixel"`
}

// start handles POST /api/tracking/start. The start position may be set once.
func (h *TrackingHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p := r2.Vec{X: req.X, Y: req.Y}
	var err error
	if req.Pixel {
		err = h.tracker.SetStartPixel(p)
	} else {
		err = h.tracker.SetStartPosition(p)
	}
	if err != nil {
		if errors.Is(err, tracker.ErrStartAlreadySet) {
			writeError(w, http.StatusConflict, "Start position already set")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set start position")
		return
	}

	writeJSON(w, http.StatusOK, h.tracker.Status())
}
