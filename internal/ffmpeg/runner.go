package ffmpeg

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Runner manages the lifecycle of the RTP encoder process feeding the
// WebRTC publisher.
type Runner struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	waitCh chan error
}

// NewRunner returns a new Runner instance.
func NewRunner() *Runner {
	return &Runner{}
}

// Start launches an H264 RTP encode of the desktop at the requested size
// and returns the local RTP port plus a stop function.
func (r *Runner) Start(opts Options, width, height int) (int, func() error, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(opts, width, height)
}

// Stop terminates any running ffmpeg process.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

// startLocked starts ffmpeg while holding the runner lock.
func (r *Runner) startLocked(opts Options, width, height int) (int, func() error, error) {
	if err := r.stopLocked(); err != nil {
		return 0, nil, err
	}
	if opts.FFmpegPath == "" {
		return 0, nil, errors.New("FFmpegPath is required")
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	width, height = ClampStreamSize(width, height)

	port, err := allocatePort()
	if err != nil {
		return 0, nil, err
	}

	args, err := BuildRTPArgs(opts, width, height, port)
	if err != nil {
		return 0, nil, err
	}

	cmd, waitCh, err := startWithFallback(opts.FFmpegPath, args, func() ([]string, error) {
		fallback := opts
		fallback.CaptureDriver = ""
		return BuildRTPArgs(fallback, width, height, port)
	})
	if err != nil {
		return 0, nil, err
	}

	r.cmd = cmd
	r.waitCh = waitCh
	stop := func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.stopLocked()
	}
	return port, stop, nil
}

// stopLocked stops the current ffmpeg process without acquiring the lock.
func (r *Runner) stopLocked() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	if err := r.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	if r.waitCh != nil {
		<-r.waitCh
	}
	r.cmd = nil
	r.waitCh = nil
	return nil
}

// startCmd launches ffmpeg with the provided args.
func startCmd(path string, args []string) (*exec.Cmd, error) {
	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	configureCmd(cmd)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// startWithFallback launches ffmpeg and retries with fallback args if the
// first attempt exits early. The d3d11grab driver is the usual culprit.
func startWithFallback(path string, args []string, fallback func() ([]string, error)) (*exec.Cmd, chan error, error) {
	cmd, err := startCmd(path, args)
	if err != nil {
		return nil, nil, err
	}
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	exited, exitErr := waitForExit(waitCh, 700*time.Millisecond)
	if exited {
		_ = cmd.Process.Kill()
		<-waitCh
		fallbackArgs, err := fallback()
		if err != nil {
			return nil, nil, err
		}
		cmd, err = startCmd(path, fallbackArgs)
		if err != nil {
			if exitErr != nil {
				return nil, nil, fmt.Errorf("ffmpeg exited early: %w", exitErr)
			}
			return nil, nil, err
		}
		waitCh = make(chan error, 1)
		go func() {
			waitCh <- cmd.Wait()
		}()
	}

	return cmd, waitCh, nil
}

// waitForExit waits for a process to exit or times out.
func waitForExit(waitCh <-chan error, timeout time.Duration) (bool, error) {
	select {
	case err := <-waitCh:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

// allocatePort reserves a local UDP port and returns it.
func allocatePort() (int, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return 0, err
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	if err := conn.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
