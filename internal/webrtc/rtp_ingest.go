package webrtc

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// maxTSDelta caps the forwarded timestamp delta at one second of 90kHz
// clock. Larger jumps mean the encoder restarted.
const maxTSDelta = 90000

// restartTSStep is the timestamp step substituted after a discontinuity,
// one frame at 30fps.
const restartTSStep = 3000

type rtpListener struct {
	mu      sync.Mutex
	conn    *net.UDPConn
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// newRTPListener binds a UDP port for RTP ingestion.
func newRTPListener(port int) (*rtpListener, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &rtpListener{conn: conn}, nil
}

// start begins forwarding RTP packets into the provided track.
func (l *rtpListener) start(track *webrtc.TrackLocalStaticRTP) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return fmt.Errorf("rtp listener not initialized")
	}
	if l.running {
		return nil
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.running = true
	go l.loop(track)
	return nil
}

// stop cancels the forward loop.
func (l *rtpListener) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.running = false
}

// close stops forwarding and closes the UDP socket.
func (l *rtpListener) close() {
	l.stop()
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
}

// loop reads RTP packets, rewrites their headers onto a continuous
// timeline, and forwards them to the track.
func (l *rtpListener) loop(track *webrtc.TrackLocalStaticRTP) {
	var rw rtpRewriter
	var count uint64
	buf := make([]byte, 1600)
	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			continue
		}
		rw.Apply(&pkt, rtpWriteParams{})
		count++
		if debugRTPEnabled() && count%300 == 1 {
			log.Printf("webrtc: rtp seq=%d ts=%d marker=%v packets=%d",
				pkt.SequenceNumber, pkt.Timestamp, pkt.Marker, count)
		}
		_ = track.WriteRTP(&pkt)
	}
}

// rtpWriteParams optionally overrides header fields on forwarded packets.
type rtpWriteParams struct {
	payloadType uint8
	ssrc        uint32
}

// rtpRewriter maps incoming RTP headers onto a single continuous sequence
// and timestamp timeline. ffmpeg restarts reset both, and forwarding the
// raw values makes decoders stall.
type rtpRewriter struct {
	init     bool
	lastInTS uint32
	outTS    uint32
	outSeq   uint16
}

// Apply rewrites the packet header in place.
func (rw *rtpRewriter) Apply(p *rtp.Packet, params rtpWriteParams) {
	if params.payloadType != 0 {
		p.PayloadType = params.payloadType
	}
	if params.ssrc != 0 {
		p.SSRC = params.ssrc
	}

	if !rw.init {
		rw.init = true
		rw.lastInTS = p.Timestamp
		rw.outTS = p.Timestamp
		rw.outSeq = p.SequenceNumber
		return
	}

	rw.outSeq++
	if p.Timestamp != rw.lastInTS {
		delta := p.Timestamp - rw.lastInTS
		if delta > maxTSDelta {
			delta = restartTSStep
		}
		rw.outTS += delta
		rw.lastInTS = p.Timestamp
	}
	p.SequenceNumber = rw.outSeq
	p.Timestamp = rw.outTS
}
