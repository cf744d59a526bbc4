// Package ffmpeg builds and runs ffmpeg capture pipelines.
package ffmpeg

import "fmt"

// Options describes ffmpeg runtime parameters.
type Options struct {
	FFmpegPath string
	FPS        int
	// CaptureW/CaptureH describe the desktop region grabbed before
	// scaling. On Windows the monitor geometry overrides them.
	CaptureW int
	CaptureH int
	// Display is the X11 display grabbed on non-Windows systems.
	Display string
	// MonitorIndex selects the display on Windows (1-based).
	MonitorIndex int
	// CaptureDriver selects gdigrab or d3d11grab on Windows.
	CaptureDriver string
	BitrateKbps   int
}

// BuildRawArgs returns ffmpeg args that scale the capture to the requested
// size and write raw RGB24 frames to stdout. JPEG encoding happens Go-side
// so the stream quality knob maps directly onto the encoder.
func BuildRawArgs(opts Options, width, height int) ([]string, error) {
	input, err := buildInputArgs(opts)
	if err != nil {
		return nil, err
	}
	args := append(input,
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-an",
		"-pix_fmt", "rgb24",
		"-f", "rawvideo",
		"-",
	)
	return args, nil
}

// BuildRTPArgs returns ffmpeg args for the low-latency H264 RTP output
// consumed by the WebRTC publisher.
func BuildRTPArgs(opts Options, width, height, port int) ([]string, error) {
	input, err := buildInputArgs(opts)
	if err != nil {
		return nil, err
	}

	// Frequent keyframes help the viewer recover quickly after drops.
	keyint := opts.FPS
	if keyint <= 0 {
		keyint = 30
	}
	if keyint < 15 {
		keyint = 15
	}
	bitrate := opts.BitrateKbps
	if bitrate <= 0 {
		bitrate = 6000
	}

	args := append(input,
		"-an",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-vcodec", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-profile:v", "baseline",
		"-g", fmt.Sprintf("%d", keyint),
		"-keyint_min", fmt.Sprintf("%d", keyint),
		"-bf", "0",
		"-x264-params", "scenecut=0:repeat-headers=1",
		"-pix_fmt", "yuv420p",
		"-b:v", fmt.Sprintf("%dk", bitrate),
		"-payload_type", "96",
		"-f", "rtp",
		fmt.Sprintf("rtp://127.0.0.1:%d?pkt_size=1200", port),
	)
	return args, nil
}

// ClampStreamSize applies defaults and even alignment to a requested stream
// size. H264 and most JPEG decoders want even dimensions.
func ClampStreamSize(width, height int) (int, int) {
	if width <= 0 {
		width = 720
	}
	if height <= 0 {
		height = 1280
	}
	if width%2 != 0 {
		width--
	}
	if height%2 != 0 {
		height--
	}
	return width, height
}
