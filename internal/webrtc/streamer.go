package webrtc

import (
	"fmt"
	"log"
	"sync"

	"github.com/pion/webrtc/v3"

	"github.com/frudas24/padrelay/internal/ffmpeg"
)

// Streamer drives the full WebRTC gameplay pipeline: the ffmpeg RTP
// encoder, the local ingest socket, and the peer connection. Signaling
// messages are exchanged over the control channel by the caller.
type Streamer struct {
	mu      sync.Mutex
	pub     *Publisher
	runner  *ffmpeg.Runner
	opts    ffmpeg.Options
	onICE   func(candidate string)
	peer    *webrtc.PeerConnection
	pending []string
	haveRem bool
}

// NewStreamer returns a streamer using the given capture options.
func NewStreamer(opts ffmpeg.Options) (*Streamer, error) {
	pub, err := NewPublisher()
	if err != nil {
		return nil, err
	}
	return &Streamer{
		pub:    pub,
		runner: ffmpeg.NewRunner(),
		opts:   opts,
	}, nil
}

// SetICEHandler registers the callback invoked with each local ICE
// candidate so the caller can trickle them to the handheld.
func (s *Streamer) SetICEHandler(fn func(candidate string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onICE = fn
}

// Start launches the encoder and returns the SDP offer for the handheld.
func (s *Streamer) Start(width, height, fps, quality int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	opts := s.opts
	if fps > 0 {
		opts.FPS = fps
	}
	if quality > 0 {
		// The quality knob maps onto the encoder bitrate for this mode.
		opts.BitrateKbps = 1000 + quality*70
	}

	port, _, err := s.runner.Start(opts, width, height)
	if err != nil {
		return "", fmt.Errorf("encoder start: %w", err)
	}
	if err := s.pub.AttachRTP(port); err != nil {
		_ = s.runner.Stop()
		return "", fmt.Errorf("rtp attach: %w", err)
	}

	peer, err := s.pub.NewPeer()
	if err != nil {
		s.pub.DetachRTP()
		_ = s.runner.Stop()
		return "", err
	}
	s.peer = peer
	s.pending = nil
	s.haveRem = false

	peer.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		s.mu.Lock()
		fn := s.onICE
		s.mu.Unlock()
		if fn != nil {
			fn(c.ToJSON().Candidate)
		}
	})
	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("webrtc: peer state %s", state)
	})

	offer, err := peer.CreateOffer(nil)
	if err != nil {
		s.stopLocked()
		return "", fmt.Errorf("create offer: %w", err)
	}
	if err := peer.SetLocalDescription(offer); err != nil {
		s.stopLocked()
		return "", fmt.Errorf("set local description: %w", err)
	}
	if err := s.pub.StartForwarding(); err != nil {
		s.stopLocked()
		return "", err
	}
	return offer.SDP, nil
}

// HandleAnswer applies the handheld's SDP answer and flushes any ICE
// candidates that arrived before it.
func (s *Streamer) HandleAnswer(sdp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return fmt.Errorf("no active peer")
	}
	desc := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := s.peer.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	s.haveRem = true
	for _, cand := range s.pending {
		if err := s.peer.AddICECandidate(webrtc.ICECandidateInit{Candidate: cand}); err != nil {
			log.Printf("webrtc: queued candidate rejected: %v", err)
		}
	}
	s.pending = nil
	return nil
}

// AddRemoteCandidate applies a handheld ICE candidate, queueing it when
// the answer has not arrived yet.
func (s *Streamer) AddRemoteCandidate(candidate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return fmt.Errorf("no active peer")
	}
	if !s.haveRem {
		s.pending = append(s.pending, candidate)
		return nil
	}
	return s.peer.AddICECandidate(webrtc.ICECandidateInit{Candidate: candidate})
}

// Stop tears down the encoder, ingest, and peer connection.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

// stopLocked tears the pipeline down while holding the streamer lock.
func (s *Streamer) stopLocked() {
	s.pub.StopForwarding()
	s.pub.DetachRTP()
	s.pub.ClosePeer()
	if err := s.runner.Stop(); err != nil {
		log.Printf("webrtc: encoder stop: %v", err)
	}
	s.peer = nil
	s.pending = nil
	s.haveRem = false
}
