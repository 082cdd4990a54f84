package capture

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector_Defaults(t *testing.T) {
	tests := []struct {
		name string
		in   MotionConfig
		want MotionConfig
	}{
		{"zero falls back", MotionConfig{}, DefaultMotionConfig()},
		{"even blur falls back", MotionConfig{Threshold: 1, BlurSize: 4, PixelDelta: 10}, MotionConfig{Threshold: 1, BlurSize: 11, PixelDelta: 10}},
		{"custom kept", MotionConfig{Threshold: 3, BlurSize: 21, PixelDelta: 40}, MotionConfig{Threshold: 3, BlurSize: 21, PixelDelta: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMotionDetector(tt.in)
			defer md.Close()

			if got := md.Config(); got != tt.want {
				t.Errorf("Config() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(MotionConfig{Threshold: 1})
	defer md.Close()

	md.SetThreshold(5)
	if got := md.Config().Threshold; got != 5 {
		t.Errorf("threshold = %f, want 5", got)
	}

	md.SetThreshold(-1)
	if got := md.Config().Threshold; got != 5 {
		t.Errorf("negative threshold should be ignored, got %f", got)
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(DefaultMotionConfig())
	md.Close()
	md.Close()
}

func TestMotionDetector_DetectAfterClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionConfig())

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	md.Detect(&black)

	md.Close()
	md.Reset()

	if moved, share := md.Detect(&black); moved || share != 0 {
		t.Errorf("Detect() after Close = %v, %f, want false, 0", moved, share)
	}
	if got := md.Last(); got != 0 {
		t.Errorf("Last() after Close = %f, want 0", got)
	}
}

func TestMotionDetector_StillFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	moved, pct := md.Detect(&frame)
	if moved || pct != 0 {
		t.Errorf("first frame = (%v, %f), want priming only", moved, pct)
	}

	moved, pct = md.Detect(&frame)
	if moved {
		t.Errorf("identical frames should not move, changed = %f", pct)
	}
}

func TestMotionDetector_BallEntersFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	empty := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer empty.Close()
	ball := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer ball.Close()
	gocv.Circle(&ball, image.Pt(320, 240), 30, color.RGBA{255, 255, 255, 0}, -1)

	md.Detect(&empty)
	moved, pct := md.Detect(&ball)
	if !moved {
		t.Errorf("ball entering should register as motion, changed = %f", pct)
	}
	if md.Last() != pct {
		t.Errorf("Last() = %f, want %f", md.Last(), pct)
	}
}

func TestMotionDetector_ResizeReprimes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	small := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer small.Close()
	large := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer large.Close()
	large.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&small)
	if moved, _ := md.Detect(&large); moved {
		t.Error("a resized frame should prime a new baseline, not report motion")
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(DefaultMotionConfig())
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	md.Reset()

	if moved, _ := md.Detect(&white); moved {
		t.Error("first frame after Reset should only prime the baseline")
	}
}
