package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/courtside/internal/log"
)

// SettingsHandler reads and updates the tracker tunables.
type SettingsHandler struct {
	tracker Tracker
}

// NewSettingsHandler creates a SettingsHandler for t.
func NewSettingsHandler(t Tracker) *SettingsHandler {
	return &SettingsHandler{tracker: t}
}

type settingsBody struct {
	Settings map[string]string `json:"settings"`
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, settingsBody{Settings: h.tracker.CurrentSettings()})
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req settingsBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Settings) == 0 {
		writeError(w, http.StatusBadRequest, "settings is required")
		return
	}

	current, err := h.tracker.UpdateSettings(req.Settings)
	if err != nil {
		if current == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("settings applied but not saved", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsBody{Settings: current})
}
