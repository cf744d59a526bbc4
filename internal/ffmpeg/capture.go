package ffmpeg

import (
	"errors"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/frudas24/padrelay/internal/mjpeg"
)

const captureRestartBackoff = 2 * time.Second

// Capture grabs raw desktop frames via ffmpeg and publishes them to an
// MJPEG stream.
type Capture struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stream  *mjpeg.Stream
	quality int
	w       int
	h       int
	closed  bool
	path    string
	args    []string
}

// NewCapture returns a capture pipeline bound to the given MJPEG stream.
func NewCapture(stream *mjpeg.Stream, quality int) *Capture {
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	return &Capture{
		stream:  stream,
		quality: quality,
	}
}

// Start launches the ffmpeg capture scaled to the requested size.
func (c *Capture) Start(opts Options, width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = false
	if err := c.stopLocked(); err != nil {
		return err
	}
	if opts.FFmpegPath == "" {
		return errors.New("FFmpegPath is required")
	}

	width, height = ClampStreamSize(width, height)
	args, err := BuildRawArgs(opts, width, height)
	if err != nil {
		return err
	}

	c.path = opts.FFmpegPath
	c.args = args
	c.w = width
	c.h = height

	log.Printf("ffmpeg: capture %s %s", c.path, strings.Join(args, " "))
	if err := c.startProcessLocked(); err != nil {
		return err
	}
	go c.loop()
	return nil
}

// Stop terminates the capture process.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.stopLocked()
}

// Running reports whether a capture process is active.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd != nil
}

// startProcessLocked launches ffmpeg while holding the capture lock.
func (c *Capture) startProcessLocked() error {
	cmd := exec.Command(c.path, append([]string{"-hide_banner", "-loglevel", "error"}, c.args...)...)
	configureCmd(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	c.cmd = cmd
	c.stdout = stdout
	return nil
}

// stopLocked stops any running ffmpeg process while holding the capture lock.
func (c *Capture) stopLocked() error {
	if c.stdout != nil {
		_ = c.stdout.Close()
		c.stdout = nil
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_, _ = c.cmd.Process.Wait()
	}
	c.cmd = nil
	return nil
}

// loop reads raw frames and publishes them to the MJPEG stream.
func (c *Capture) loop() {
	raw := make([]byte, c.w*c.h*3)
	for {
		c.mu.Lock()
		stdout := c.stdout
		closed := c.closed
		c.mu.Unlock()
		if closed || stdout == nil {
			return
		}
		if _, err := io.ReadFull(stdout, raw); err != nil {
			if !c.handleReadError(err) {
				return
			}
			continue
		}
		if c.stream != nil {
			jpg := mjpeg.EncodeRGBToJPEG(raw, c.w, c.h, c.quality)
			c.stream.Publish(jpg)
		}
	}
}

// handleReadError restarts ffmpeg after a read failure.
func (c *Capture) handleReadError(err error) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	log.Printf("ffmpeg: capture read error: %v (restart in %s)", err, captureRestartBackoff)
	time.Sleep(captureRestartBackoff)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	if err := c.stopLocked(); err != nil {
		log.Printf("ffmpeg: capture stop error: %v", err)
		return false
	}
	if err := c.startProcessLocked(); err != nil {
		log.Printf("ffmpeg: capture restart error: %v", err)
		return false
	}
	return true
}
