//go:build windows

package ffmpeg

import (
	"fmt"

	"github.com/frudas24/padrelay/internal/monitor"
)

// buildInputArgs returns the desktop grab input flags for the selected
// monitor. gdigrab is the default; d3d11grab can be opted into for lower
// capture overhead on recent Windows builds.
func buildInputArgs(opts Options) ([]string, error) {
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}

	if opts.CaptureDriver == "d3d11grab" {
		index := opts.MonitorIndex - 1
		if index < 0 {
			index = 0
		}
		return []string{
			"-f", "d3d11grab",
			"-framerate", fmt.Sprintf("%d", fps),
			"-output_idx", fmt.Sprintf("%d", index),
			"-i", "desktop",
		}, nil
	}

	mon, err := monitor.GetMonitorByIndex(opts.MonitorIndex)
	if err != nil {
		return nil, err
	}
	return []string{
		"-f", "gdigrab",
		"-framerate", fmt.Sprintf("%d", fps),
		"-offset_x", fmt.Sprintf("%d", mon.X),
		"-offset_y", fmt.Sprintf("%d", mon.Y),
		"-video_size", fmt.Sprintf("%dx%d", mon.Width, mon.Height),
		"-i", "desktop",
	}, nil
}
