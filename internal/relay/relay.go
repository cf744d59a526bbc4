// Package relay serves the desktop capture to the handheld as an MJPEG
// HTTP stream.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/frudas24/padrelay/internal/ffmpeg"
	"github.com/frudas24/padrelay/internal/mjpeg"
	"github.com/frudas24/padrelay/internal/server"
)

// Relay owns the MJPEG HTTP endpoint and the capture process feeding it.
// It implements the control server's stream relay hook.
type Relay struct {
	mu      sync.Mutex
	opts    ffmpeg.Options
	addr    string
	port    int
	quality int
	stream  *mjpeg.Stream
	capture *ffmpeg.Capture
	httpSrv *http.Server
	ln      net.Listener
}

// New returns a relay bound to the given listen address, e.g. ":5556".
// quality is the JPEG quality used when a stream request does not carry
// its own.
func New(opts ffmpeg.Options, addr string, quality int) (*Relay, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid stream address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid stream port %q: %w", portStr, err)
	}

	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	return &Relay{
		opts:    opts,
		addr:    addr,
		port:    port,
		quality: quality,
		stream:  mjpeg.NewStream(time.Second / time.Duration(fps)),
	}, nil
}

// Run starts the HTTP listener serving the MJPEG endpoint.
func (r *Relay) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", r.stream.Handler)

	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("stream listen %s: %w", r.addr, err)
	}

	r.mu.Lock()
	r.ln = ln
	r.httpSrv = &http.Server{Handler: mux}
	srv := r.httpSrv
	r.mu.Unlock()

	log.Printf("relay: mjpeg endpoint on %s", r.addr)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("relay: http serve: %v", err)
		}
	}()
	return nil
}

// Start launches a capture at the requested size and returns the stream
// handle the handheld should fetch.
func (r *Relay) Start(width, height, fps, quality int) (server.StreamHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capture != nil {
		if err := r.capture.Stop(); err != nil {
			return server.StreamHandle{}, err
		}
		r.capture = nil
	}

	opts := r.opts
	if fps > 0 {
		opts.FPS = fps
	}
	width, height = ffmpeg.ClampStreamSize(width, height)

	capture := ffmpeg.NewCapture(r.stream, r.effectiveQuality(quality))
	if err := capture.Start(opts, width, height); err != nil {
		return server.StreamHandle{}, err
	}
	r.capture = capture

	return server.StreamHandle{
		URL:    fmt.Sprintf("http://%s:%d/stream", localIP(), r.port),
		Port:   r.port,
		Width:  width,
		Height: height,
	}, nil
}

// Stop terminates the capture. The HTTP endpoint stays up so a later
// stream request reuses it.
func (r *Relay) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.capture == nil {
		return nil
	}
	err := r.capture.Stop()
	r.capture = nil
	return err
}

// Close stops the capture and shuts down the HTTP listener.
func (r *Relay) Close() error {
	if err := r.Stop(); err != nil {
		log.Printf("relay: capture stop: %v", err)
	}
	r.stream.Close()

	r.mu.Lock()
	srv := r.httpSrv
	r.httpSrv = nil
	r.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// effectiveQuality resolves the JPEG quality for one stream request: the
// handheld's value when it sent one, the configured default otherwise.
func (r *Relay) effectiveQuality(requested int) int {
	if requested > 0 && requested <= 100 {
		return requested
	}
	return r.quality
}

// Streaming reports whether a capture is currently running.
func (r *Relay) Streaming() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capture != nil
}

// localIP returns the LAN address the handheld can reach, falling back to
// loopback when no route is available.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
