package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/courtside/internal/app"
	"github.com/ayusman/courtside/internal/log"
	"github.com/ayusman/courtside/internal/server"
	"github.com/ayusman/courtside/internal/store"
	"github.com/ayusman/courtside/internal/tray"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		dataDir    = flag.String("data", defaultDataDir(), "directory holding the database and plugins")
		device     = flag.Int("camera", 0, "camera device ID")
		logLevel   = flag.String("log-level", "info", "log level: debug, info, warn, error")
		awaitStart = flag.Bool("await-start", false, "wait for a start position before tracking")
		enabled    = flag.Bool("enabled", true, "start with tracking enabled")
		withTray   = flag.Bool("tray", runtime.GOOS == "darwin", "show the system tray menu")
	)
	flag.Parse()

	log.Init(*logLevel)
	log.Info("courtside starting", "data", *dataDir, "addr", *addr)

	if err := run(*addr, *dataDir, *device, *awaitStart, *enabled, *withTray); err != nil {
		log.Error("courtside failed", "error", err)
		os.Exit(1)
	}
}

func run(addr, dataDir string, device int, awaitStart, enabled, withTray bool) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	st, err := store.New(filepath.Join(dataDir, "courtside.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	cfg := app.DefaultConfig()
	cfg.Store = st
	cfg.PluginDir = filepath.Join(dataDir, "plugins")
	cfg.Capture.DeviceID = device
	cfg.AwaitStart = awaitStart

	cfg, err = app.LoadSettings(st, cfg)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Stop()

	if err := a.DiscoverPlugins(); err != nil {
		log.Warn("plugin discovery failed", "error", err)
	}
	for _, p := range a.PluginManager().List() {
		log.Info("plugin loaded", "name", p.Manifest.Name, "actions", p.Manifest.Actions)
	}

	if err := a.Start(); err != nil {
		log.Error("camera unavailable, serving API only", "error", err)
	}
	a.SetEnabled(enabled)

	webDir := findWebDir(dataDir)
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := &http.Server{
		Addr: addr,
		Handler: server.New(server.Config{
			StaticDir: webDir,
			Store:     st,
			Tracker:   a,
			Plugins:   a.PluginManager(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if withTray {
		go waitAndQuit(ctx, serveErr)
		runTray(a, addr, enabled, stop)
	} else {
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				return err
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runTray blocks on the tray menu until it quits or quit is called.
func runTray(a *app.App, addr string, enabled bool, quit func()) {
	t := tray.New(enabled)
	t.OnToggle(a.SetEnabled)
	t.OnSettings(func() { openBrowser("http://localhost" + addr) })
	t.OnQuit(quit)

	events, cancel := a.Subscribe()
	defer cancel()
	go func() {
		for e := range events {
			switch e.Type {
			case app.EventEnabled:
				t.SetEnabled(true)
			case app.EventDisabled:
				t.SetEnabled(false)
			}
			t.SetMode(e.Mode)
		}
	}()

	t.Run()
}

// waitAndQuit ends the tray loop on a signal or a server failure.
func waitAndQuit(ctx context.Context, serveErr <-chan error) {
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}
	tray.Quit()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".courtside"
	}
	return filepath.Join(home, ".courtside")
}

// findWebDir searches for the web directory in common locations.
// It checks "web", "../web", "../../web" and the data directory.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
