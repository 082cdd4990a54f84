// Package server provides the HTTP server for the courtside ball tracker.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/plugin"
	"github.com/ayusman/courtside/internal/server/api"
	"github.com/ayusman/courtside/internal/store"
)

// Tracker is the running app as seen by the server.
type Tracker interface {
	api.Tracker
	LatestJPEG() []byte
	Subscribe() (<-chan app.Event, func())
}

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Tracker   Tracker
	Plugins   *plugin.Manager
	// StreamInterval is the delay between MJPEG frames. Zero uses DefaultStreamInterval.
	StreamInterval time.Duration
}

// Server represents the HTTP server for the tracker.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.StreamInterval <= 0 {
		config.StreamInterval = DefaultStreamInterval
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register session and binding handlers if Store is configured
	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)

		bindings := api.NewBindingHandler(s.config.Store, s.config.Plugins)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
	}

	// Register plugin listing if plugins were discovered
	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	// Register tracking control, settings, stream and events if the app is configured
	if s.config.Tracker != nil {
		tracking := api.NewTrackingHandler(s.config.Tracker)
		s.mux.Handle("/api/tracking", tracking)
		s.mux.Handle("/api/tracking/", tracking)
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Tracker))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Tracker, s.config.StreamInterval))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.Tracker))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	// Report tracking state alongside liveness
	if s.config.Tracker != nil {
		st := s.config.Tracker.Status()
		response["tracking"] = st.Enabled
		response["mode"] = st.Mode
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
