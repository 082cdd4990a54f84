package capture

import (
	"errors"
	"testing"

	"github.com/ayusman/courtside/internal/mapper"
)

func TestNewCamera(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantFPS int
		wantRes mapper.Resolution
	}{
		{
			name:    "defaults",
			config:  DefaultConfig(),
			wantFPS: DefaultFPS,
			wantRes: mapper.Resolution{Width: 640, Height: 480},
		},
		{
			name:    "custom mode",
			config:  Config{DeviceID: 1, Width: 1280, Height: 720, FPS: 60},
			wantFPS: 60,
			wantRes: mapper.Resolution{Width: 1280, Height: 720},
		},
		{
			name:    "zero fields fall back",
			config:  Config{DeviceID: 2},
			wantFPS: DefaultFPS,
			wantRes: mapper.Resolution{Width: DefaultWidth, Height: DefaultHeight},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := NewCamera(tt.config)

			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
			if got := cam.Resolution(); got != tt.wantRes {
				t.Errorf("Resolution() = %v, want %v", got, tt.wantRes)
			}
			if cam.IsOpen() {
				t.Error("camera should not be running initially")
			}
		})
	}
}

func TestCamera_SetFPS(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	tests := []struct {
		name    string
		fps     int
		wantFPS int
	}{
		{"set to 10", 10, 10},
		{"set to 60", 60, 60},
		{"set to 0 keeps previous", 0, 60},
		{"negative keeps previous", -5, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam.SetFPS(tt.fps)
			if got := cam.FPS(); got != tt.wantFPS {
				t.Errorf("FPS() = %d, want %d", got, tt.wantFPS)
			}
		})
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(DefaultConfig())

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}
	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		res := cam.Resolution()
		if res.Width != mat.Cols() || res.Height != mat.Rows() {
			t.Errorf("Resolution() = %v, frame is %dx%d", res, mat.Cols(), mat.Rows())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}

func TestCamera_ReadFrame_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	if _, err := cam.ReadFrame(); err != ErrCameraNotOpen {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestCamera_Close_NotOpened(t *testing.T) {
	cam := NewCamera(DefaultConfig())

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on not opened camera should return nil, got: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: DefaultConfig()},
		{name: "zero size selects default", config: Config{DeviceID: 1}},
		{name: "negative width", config: Config{Width: -640, Height: 480}, wantErr: true},
		{name: "negative height", config: Config{Width: 640, Height: -480}, wantErr: true},
		{name: "half set", config: Config{Width: 640}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if !errors.Is(err, mapper.ErrInvalidResolution) {
					t.Errorf("Validate() error = %v, want ErrInvalidResolution", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestConfig_Resolution(t *testing.T) {
	if got := (Config{}).Resolution(); got != (mapper.Resolution{Width: DefaultWidth, Height: DefaultHeight}) {
		t.Errorf("zero Resolution() = %v, want default", got)
	}
	if got := (Config{Width: 320, Height: 240}).Resolution(); got != (mapper.Resolution{Width: 320, Height: 240}) {
		t.Errorf("Resolution() = %v, want 320x240", got)
	}
}
