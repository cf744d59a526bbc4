// Package server implements the desktop side of the control channel.
package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/frudas24/padrelay/internal/input"
	"github.com/frudas24/padrelay/internal/layout"
	"github.com/frudas24/padrelay/internal/protocol"
	"github.com/frudas24/padrelay/internal/session"
)

// DefaultListenAddr is the stock control channel bind address.
const DefaultListenAddr = "0.0.0.0:5555"

// ErrNoController is returned when no handheld connection is active.
var ErrNoController = errors.New("no controller connected")

// StreamHandle describes a ready gameplay stream.
type StreamHandle struct {
	URL    string
	Port   int
	Width  int
	Height int
}

// StreamRelay starts and stops the MJPEG gameplay stream.
type StreamRelay interface {
	Start(width, height, fps, quality int) (StreamHandle, error)
	Stop() error
}

// RTCStreamer drives the optional WebRTC gameplay stream. Signaling rides
// the control channel.
type RTCStreamer interface {
	Start(width, height, fps, quality int) (offerSDP string, err error)
	HandleAnswer(sdp string) error
	AddRemoteCandidate(candidate string) error
	Stop() error
}

// Options configures the control channel server.
type Options struct {
	ListenAddr      string
	AnalogThreshold float64
}

// Server accepts controller connections and dispatches control messages.
// One session is meaningful at a time (the injection target is a single
// focused window); a new connection replaces the active one.
type Server struct {
	mu         sync.Mutex
	opts       Options
	injector   input.Injector
	keymap     input.Keymap
	sess       *session.Session
	relay      StreamRelay
	rtc        RTCStreamer
	saveLayout func(layout.Layout) error
	onHandheld func(protocol.Message)

	ln      net.Listener
	active  *controllerConn
	quit    chan struct{}
	stopped bool
	wg      sync.WaitGroup
}

// New creates a control channel server. The relay, rtc streamer, layout
// saver, and handheld hook are optional.
func New(opts Options, injector input.Injector, keymap input.Keymap, sess *session.Session, relay StreamRelay, rtc RTCStreamer) (*Server, error) {
	if injector == nil {
		return nil, errors.New("injector is required")
	}
	if keymap == nil {
		return nil, errors.New("keymap is required")
	}
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = DefaultListenAddr
	}
	return &Server{
		opts:     opts,
		injector: injector,
		keymap:   keymap,
		sess:     sess,
		relay:    relay,
		rtc:      rtc,
	}, nil
}

// SetLayoutSaver installs the persistence hook for layouts reported by the
// handheld.
func (s *Server) SetLayoutSaver(fn func(layout.Layout) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLayout = fn
}

// SetHandheldHook installs the forwarder for device_info and current_layout
// messages, feeding the desktop layout editor.
func (s *Server) SetHandheldHook(fn func(protocol.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onHandheld = fn
}

// Start binds the listening socket and begins accepting controllers.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return errors.New("server already started")
	}
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.ListenAddr, err)
	}
	s.ln = ln
	s.quit = make(chan struct{})
	s.stopped = false
	s.wg.Add(1)
	go s.acceptLoop(ln)
	log.Printf("server: control channel on %s", ln.Addr())
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listener and the active session, releasing all held keys.
// It is idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped || s.ln == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	ln := s.ln
	quit := s.quit
	active := s.active
	s.mu.Unlock()

	close(quit)
	err := ln.Close()
	if active != nil {
		active.shutdown()
	}
	s.wg.Wait()

	s.mu.Lock()
	s.ln = nil
	s.mu.Unlock()
	return err
}

// SendToController queues a message for the connected handheld.
func (s *Server) SendToController(msg protocol.Message) error {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active == nil {
		return ErrNoController
	}
	return active.send(msg)
}

// ControllerConnected reports whether a handheld session is active.
func (s *Server) ControllerConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// acceptLoop accepts controller connections until the listener closes.
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			log.Printf("server: accept: %v", err)
			return
		}
		s.adopt(conn)
	}
}

// adopt installs a new controller connection, replacing any active one.
func (s *Server) adopt(conn net.Conn) {
	tcpConn, ok := conn.(*net.TCPConn)
	if ok {
		_ = tcpConn.SetNoDelay(true)
	}

	c := newControllerConn(s, conn)

	s.mu.Lock()
	prev := s.active
	s.active = c
	s.mu.Unlock()

	if prev != nil {
		log.Printf("server: replacing controller %s with %s", prev.remoteAddr(), c.remoteAddr())
		prev.shutdown()
		// The replaced connection no longer owns the active slot, so its
		// shutdown skips the stream teardown. The stream belonged to that
		// session; stop it here rather than hand it to the newcomer.
		s.stopStreams()
	}
	log.Printf("server: controller connected: %s", c.remoteAddr())
	s.sess.SetPeer(c.remoteAddr())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.readLoop()
	}()
	go func() {
		defer s.wg.Done()
		c.writeLoop()
	}()
}

// release clears the active slot when a connection ends.
func (s *Server) release(c *controllerConn) {
	s.mu.Lock()
	wasActive := s.active == c
	if wasActive {
		s.active = nil
	}
	s.mu.Unlock()

	if wasActive {
		s.sess.ClearPeer()
		s.stopStreams()
		log.Printf("server: controller disconnected: %s", c.remoteAddr())
	}
}

// stopStreams tears down any active gameplay stream.
func (s *Server) stopStreams() {
	if s.sess.Streaming() {
		s.sess.ClearStream()
	}
	if s.relay != nil {
		if err := s.relay.Stop(); err != nil {
			log.Printf("server: stream stop: %v", err)
		}
	}
	if s.rtc != nil {
		if err := s.rtc.Stop(); err != nil {
			log.Printf("server: rtc stop: %v", err)
		}
	}
}

// forwardHandheld hands a handheld-originated message to the editor bridge.
func (s *Server) forwardHandheld(msg protocol.Message) {
	s.mu.Lock()
	fn := s.onHandheld
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// persistLayout stores a layout reported by the handheld.
func (s *Server) persistLayout(l layout.Layout) {
	s.mu.Lock()
	fn := s.saveLayout
	s.mu.Unlock()
	if fn == nil {
		return
	}
	if err := fn(l); err != nil {
		log.Printf("server: layout save: %v", err)
	}
}
