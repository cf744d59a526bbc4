package ffmpeg

import (
	"strings"
	"testing"
)

// TestClampStreamSize verifies defaults and even alignment.
func TestClampStreamSize(t *testing.T) {
	cases := []struct {
		inW, inH   int
		outW, outH int
	}{
		{0, 0, 720, 1280},
		{721, 481, 720, 480},
		{640, 360, 640, 360},
		{-1, 720, 720, 720},
	}
	for _, c := range cases {
		w, h := ClampStreamSize(c.inW, c.inH)
		if w != c.outW || h != c.outH {
			t.Fatalf("ClampStreamSize(%d,%d) = %dx%d, want %dx%d", c.inW, c.inH, w, h, c.outW, c.outH)
		}
	}
}

// TestBuildRawArgs verifies the raw pipeline scales and emits rawvideo.
func TestBuildRawArgs(t *testing.T) {
	args, err := BuildRawArgs(Options{FFmpegPath: "ffmpeg", FPS: 25}, 640, 360)
	if err != nil {
		t.Fatalf("BuildRawArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "scale=640:360") {
		t.Fatalf("missing scale filter: %s", joined)
	}
	if !strings.Contains(joined, "-f rawvideo") || !strings.Contains(joined, "rgb24") {
		t.Fatalf("missing rawvideo output: %s", joined)
	}
}

// TestBuildRTPArgs verifies the H264 RTP pipeline targets the given port.
func TestBuildRTPArgs(t *testing.T) {
	args, err := BuildRTPArgs(Options{FFmpegPath: "ffmpeg", FPS: 30, BitrateKbps: 4000}, 720, 1280, 5004)
	if err != nil {
		t.Fatalf("BuildRTPArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "rtp://127.0.0.1:5004") {
		t.Fatalf("missing rtp target: %s", joined)
	}
	if !strings.Contains(joined, "libx264") || !strings.Contains(joined, "zerolatency") {
		t.Fatalf("missing encoder flags: %s", joined)
	}
	if !strings.Contains(joined, "-b:v 4000k") {
		t.Fatalf("missing bitrate: %s", joined)
	}
}
