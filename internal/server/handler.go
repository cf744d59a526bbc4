// Package server implements the desktop side of the control channel.
package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/frudas24/padrelay/internal/input"
	"github.com/frudas24/padrelay/internal/protocol"
)

const (
	// readTimeout bounds one blocking read; expiry is a liveness check,
	// not a failure.
	readTimeout = 3 * time.Second
	// sendQueueSize bounds the per-session outbound queue.
	sendQueueSize = 64
)

// controllerConn owns one handheld session: its socket, writer queue, held
// keys, and analog state. Everything it holds down is released on teardown
// so no stuck key survives a disconnect.
type controllerConn struct {
	srv    *Server
	conn   net.Conn
	sendCh chan protocol.Message
	done   chan struct{}
	once   sync.Once

	keysMu sync.Mutex
	held   map[string]struct{}
	analog *input.AnalogState
}

// newControllerConn wraps an accepted socket into a session handler.
func newControllerConn(srv *Server, conn net.Conn) *controllerConn {
	return &controllerConn{
		srv:    srv,
		conn:   conn,
		sendCh: make(chan protocol.Message, sendQueueSize),
		done:   make(chan struct{}),
		held:   make(map[string]struct{}),
		analog: input.NewAnalogState(srv.opts.AnalogThreshold),
	}
}

// remoteAddr formats the peer address.
func (c *controllerConn) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// send queues one outbound message. A saturated queue fails the send but
// leaves the session up.
func (c *controllerConn) send(msg protocol.Message) error {
	select {
	case c.sendCh <- msg:
		return nil
	case <-c.done:
		return ErrNoController
	default:
		return errors.New("controller send queue full")
	}
}

// shutdown tears the session down exactly once: socket closed, held keys
// released, analog reset, streams stopped.
func (c *controllerConn) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		c.releaseAll()
		c.srv.release(c)
	})
}

// readLoop decodes newline-delimited messages until the session ends.
func (c *controllerConn) readLoop() {
	defer c.shutdown()
	var lines protocol.LineBuffer
	buf := make([]byte, 4096)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := c.conn.Read(buf)
		if n > 0 {
			if appendErr := lines.Append(buf[:n]); appendErr != nil {
				log.Printf("server: %s: %v", c.remoteAddr(), appendErr)
			}
			c.dispatchLines(&lines)
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("server: %s: read: %v", c.remoteAddr(), err)
			}
			return
		}
	}
}

// writeLoop serializes outbound messages onto the socket.
func (c *controllerConn) writeLoop() {
	w := protocol.NewWriter(c.conn)
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.sendCh:
			if err := w.Write(msg); err != nil {
				log.Printf("server: %s: write: %v", c.remoteAddr(), err)
			}
		}
	}
}

// dispatchLines decodes and handles buffered lines. A corrupt line is
// dropped; it must not poison the stream.
func (c *controllerConn) dispatchLines(lines *protocol.LineBuffer) {
	for {
		line, ok := lines.Next()
		if !ok {
			return
		}
		msg, err := protocol.Decode(line)
		if err != nil {
			log.Printf("server: %s: dropping line: %v", c.remoteAddr(), err)
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage dispatches a single control message. Unknown types are
// ignored for forward compatibility.
func (c *controllerConn) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeButton:
		c.handleButton(msg)
	case protocol.TypeAnalog:
		c.handleAnalog(msg)
	case protocol.TypePing:
		if err := c.send(protocol.NewPong(msg)); err != nil {
			log.Printf("server: %s: pong: %v", c.remoteAddr(), err)
		}
	case protocol.TypeDeviceInfo:
		c.handleDeviceInfo(msg)
	case protocol.TypeCurrentLayout:
		c.handleCurrentLayout(msg)
	case protocol.TypeRequestStream:
		c.handleRequestStream(msg)
	case protocol.TypeStopStream:
		c.handleStopStream()
	case protocol.TypeWebRTCAnswer:
		c.handleRTCAnswer(msg)
	case protocol.TypeWebRTCICE:
		c.handleRTCCandidate(msg)
	default:
	}
}

// handleButton maps a logical button to its key and presses or releases it.
func (c *controllerConn) handleButton(msg protocol.Message) {
	key, ok := c.srv.keymap.Resolve(msg.Button)
	if !ok {
		log.Printf("server: %s: unknown button %q", c.remoteAddr(), msg.Button)
		return
	}
	switch msg.Action {
	case protocol.ActionPress:
		c.pressKey(key)
	case protocol.ActionRelease:
		c.releaseKey(key)
	default:
		log.Printf("server: %s: unknown action %q for %q", c.remoteAddr(), msg.Action, msg.Button)
	}
}

// handleAnalog clamps the stick vector and applies derived transitions.
func (c *controllerConn) handleAnalog(msg protocol.Message) {
	c.keysMu.Lock()
	transitions := c.analog.Update(msg.AnalogX(), msg.AnalogY())
	c.keysMu.Unlock()
	for _, tr := range transitions {
		key, ok := c.srv.keymap.Resolve(tr.Button)
		if !ok {
			continue
		}
		if tr.Press {
			c.pressKey(key)
		} else {
			c.releaseKey(key)
		}
	}
}

// handleDeviceInfo stores and forwards the handheld screen geometry.
func (c *controllerConn) handleDeviceInfo(msg protocol.Message) {
	c.srv.sess.SetDevice(sessionDevice(msg))
	c.srv.forwardHandheld(msg)
}

// handleCurrentLayout stores, persists, and forwards the handheld layout.
func (c *controllerConn) handleCurrentLayout(msg protocol.Message) {
	l := layoutFromMessage(msg.Controls)
	c.srv.sess.SetLayout(l)
	c.srv.persistLayout(c.srv.sess.Layout())
	c.srv.forwardHandheld(msg)
}

// handleRequestStream starts the gameplay stream and reports the result.
func (c *controllerConn) handleRequestStream(msg protocol.Message) {
	if msg.Mode == protocol.StreamModeWebRTC {
		c.startRTCStream(msg)
		return
	}
	if c.srv.relay == nil {
		c.sendStreamError("streaming is not available")
		return
	}
	handle, err := c.srv.relay.Start(msg.Width, msg.Height, msg.FPS, msg.Quality)
	if err != nil {
		log.Printf("server: %s: stream start: %v", c.remoteAddr(), err)
		c.sendStreamError(err.Error())
		return
	}
	c.srv.sess.SetStream(protocol.StreamModeMJPEG, handle.URL)
	if err := c.send(protocol.Message{
		Type:   protocol.TypeStreamStart,
		URL:    handle.URL,
		Port:   handle.Port,
		Width:  handle.Width,
		Height: handle.Height,
	}); err != nil {
		log.Printf("server: %s: stream_start: %v", c.remoteAddr(), err)
	}
}

// startRTCStream starts the WebRTC pipeline and sends the SDP offer.
func (c *controllerConn) startRTCStream(msg protocol.Message) {
	if c.srv.rtc == nil {
		c.sendStreamError("webrtc streaming is not available")
		return
	}
	offer, err := c.srv.rtc.Start(msg.Width, msg.Height, msg.FPS, msg.Quality)
	if err != nil {
		log.Printf("server: %s: rtc start: %v", c.remoteAddr(), err)
		c.sendStreamError(err.Error())
		return
	}
	c.srv.sess.SetStream(protocol.StreamModeWebRTC, "")
	if err := c.send(protocol.Message{Type: protocol.TypeWebRTCOffer, SDP: offer}); err != nil {
		log.Printf("server: %s: webrtc_offer: %v", c.remoteAddr(), err)
	}
}

// handleStopStream tears down the active stream and confirms.
func (c *controllerConn) handleStopStream() {
	c.srv.stopStreams()
	if err := c.send(protocol.Message{Type: protocol.TypeStreamStop}); err != nil {
		log.Printf("server: %s: stream_stop: %v", c.remoteAddr(), err)
	}
}

// handleRTCAnswer applies the handheld's SDP answer.
func (c *controllerConn) handleRTCAnswer(msg protocol.Message) {
	if c.srv.rtc == nil {
		return
	}
	if err := c.srv.rtc.HandleAnswer(msg.SDP); err != nil {
		log.Printf("server: %s: rtc answer: %v", c.remoteAddr(), err)
		c.sendStreamError(err.Error())
	}
}

// handleRTCCandidate applies a remote ICE candidate.
func (c *controllerConn) handleRTCCandidate(msg protocol.Message) {
	if c.srv.rtc == nil {
		return
	}
	if err := c.srv.rtc.AddRemoteCandidate(msg.Candidate); err != nil {
		log.Printf("server: %s: rtc candidate: %v", c.remoteAddr(), err)
	}
}

// sendStreamError reports a stream failure to the handheld.
func (c *controllerConn) sendStreamError(reason string) {
	if err := c.send(protocol.NewStreamError(reason)); err != nil {
		log.Printf("server: %s: stream_error: %v", c.remoteAddr(), err)
	}
}

// pressKey holds a key down and records it. An already-held key is not
// pressed again, so each hold pairs with exactly one release.
func (c *controllerConn) pressKey(key string) {
	c.keysMu.Lock()
	_, already := c.held[key]
	if !already {
		c.held[key] = struct{}{}
	}
	c.keysMu.Unlock()
	if already {
		return
	}
	if err := c.srv.injector.KeyDown(key); err != nil {
		log.Printf("server: %s: key down %q: %v", c.remoteAddr(), key, err)
	}
}

// releaseKey lets a key go and forgets it.
func (c *controllerConn) releaseKey(key string) {
	c.keysMu.Lock()
	_, held := c.held[key]
	delete(c.held, key)
	c.keysMu.Unlock()
	if !held {
		return
	}
	if err := c.srv.injector.KeyUp(key); err != nil {
		log.Printf("server: %s: key up %q: %v", c.remoteAddr(), key, err)
	}
}

// releaseAll synthesizes a release for every held key.
func (c *controllerConn) releaseAll() {
	c.keysMu.Lock()
	c.analog.Reset()
	keys := make([]string, 0, len(c.held))
	for key := range c.held {
		keys = append(keys, key)
	}
	c.held = make(map[string]struct{})
	c.keysMu.Unlock()

	for _, key := range keys {
		if err := c.srv.injector.KeyUp(key); err != nil {
			log.Printf("server: %s: key up %q: %v", c.remoteAddr(), key, err)
		}
	}
}
