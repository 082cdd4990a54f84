// Package api provides HTTP API handlers for the courtside ball tracker.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/courtside/internal/app"
)

// Tracker is the part of the running app the API controls.
type Tracker interface {
	Status() app.Status
	SetEnabled(enabled bool)
	SetStartPosition(world r2.Vec) error
	SetStartPixel(pixel r2.Vec) error
	CurrentSettings() map[string]string
	// UpdateSettings returns nil settings when values are rejected, and the
	// applied settings alongside any error persisting them.
	UpdateSettings(values map[string]string) (map[string]string, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// itemID returns the path segment after prefix, or "" for the collection.
func itemID(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
