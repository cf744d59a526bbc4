//go:build !windows

package ffmpeg

import "fmt"

// buildInputArgs returns the x11grab input flags for the configured display.
func buildInputArgs(opts Options) ([]string, error) {
	display := opts.Display
	if display == "" {
		display = ":0.0"
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	w, h := opts.CaptureW, opts.CaptureH
	if w <= 0 || h <= 0 {
		w, h = 1920, 1080
	}
	return []string{
		"-f", "x11grab",
		"-framerate", fmt.Sprintf("%d", fps),
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-i", display,
	}, nil
}
