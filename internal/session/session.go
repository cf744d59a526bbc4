// Package session holds runtime state for the connected handheld.
package session

import (
	"sync"

	"github.com/frudas24/padrelay/internal/layout"
)

// DeviceInfo describes the handheld screen as reported on connect.
type DeviceInfo struct {
	Width   int
	Height  int
	Density float64
}

// Snapshot represents a read-only view of the current session state.
type Snapshot struct {
	Connected  bool
	RemoteAddr string
	Device     DeviceInfo
	Layout     layout.Layout
	Streaming  bool
	StreamMode string
	StreamURL  string
}

// Session holds runtime state for the connected handheld.
type Session struct {
	mu         sync.RWMutex
	connected  bool
	remoteAddr string
	device     DeviceInfo
	layout     layout.Layout
	streaming  bool
	streamMode string
	streamURL  string
}

// New returns an initialized session seeded with the given layout.
func New(l layout.Layout) *Session {
	if l == nil {
		l = layout.Default()
	}
	return &Session{layout: l}
}

// SetPeer records the active controller connection.
func (s *Session) SetPeer(remoteAddr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.remoteAddr = remoteAddr
}

// ClearPeer marks the session disconnected and clears stream state.
func (s *Session) ClearPeer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.remoteAddr = ""
	s.streaming = false
	s.streamMode = ""
	s.streamURL = ""
}

// Connected reports whether a controller is attached.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// SetDevice stores the handheld screen geometry.
func (s *Session) SetDevice(d DeviceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = d
}

// Device returns the last reported handheld screen geometry.
func (s *Session) Device() DeviceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// SetLayout stores the current overlay layout.
func (s *Session) SetLayout(l layout.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = layout.Sanitize(l)
}

// Layout returns a copy of the current overlay layout.
func (s *Session) Layout() layout.Layout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(layout.Layout, len(s.layout))
	for id, p := range s.layout {
		out[id] = p
	}
	return out
}

// SetStream records an active gameplay stream.
func (s *Session) SetStream(mode, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = true
	s.streamMode = mode
	s.streamURL = url
}

// ClearStream marks the gameplay stream stopped.
func (s *Session) ClearStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	s.streamMode = ""
	s.streamURL = ""
}

// Streaming reports whether a gameplay stream is active.
func (s *Session) Streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := make(layout.Layout, len(s.layout))
	for id, p := range s.layout {
		l[id] = p
	}
	return Snapshot{
		Connected:  s.connected,
		RemoteAddr: s.remoteAddr,
		Device:     s.device,
		Layout:     l,
		Streaming:  s.streaming,
		StreamMode: s.streamMode,
		StreamURL:  s.streamURL,
	}
}
