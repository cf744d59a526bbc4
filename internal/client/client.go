// Package client implements the controller side of the control channel.
package client

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/frudas24/padrelay/internal/protocol"
)

const (
	// ConnectTimeout bounds a connection attempt.
	ConnectTimeout = 5 * time.Second
	// ReadTimeout bounds a single blocking read. Expiry means "no data
	// yet", not a failure.
	ReadTimeout = 3 * time.Second
	// SendQueueSize bounds the outbound write queue.
	SendQueueSize = 256
)

// ErrNotConnected is returned by Send when no connection is active.
var ErrNotConnected = errors.New("not connected")

// ErrQueueFull is returned by Send when the outbound queue is saturated.
// The connection itself stays up.
var ErrQueueFull = errors.New("send queue full")

// Listener receives connection lifecycle and message events. Callbacks run
// on the client's internal goroutines and must not call back into Connect
// or Close synchronously.
type Listener interface {
	OnConnected()
	OnDisconnected()
	OnError(err error)
	OnMessage(msg protocol.Message)
	OnLatency(rtt time.Duration)
}

// Client maintains at most one live control channel socket. Reconnection is
// the caller's responsibility: a failed or dropped connection is reported
// once and the client goes idle until the next Connect.
type Client struct {
	mu       sync.Mutex
	listener Listener
	active   *link

	pingMu     sync.Mutex
	pings      map[int64]time.Time
	lastPingTS int64
}

// link owns one socket generation with its queue and teardown guard.
type link struct {
	conn     *net.TCPConn
	sendCh   chan protocol.Message
	done     chan struct{}
	downOnce sync.Once
}

// New returns a client reporting events to the given listener.
func New(listener Listener) *Client {
	return &Client{
		listener: listener,
		pings:    make(map[int64]time.Time),
	}
}

// Connect establishes a new control channel socket, tearing down any
// previous one first. It blocks until the socket is up or the attempt fails;
// no retry is performed.
func (c *Client) Connect(host string, port int) error {
	c.Close()

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, ConnectTimeout)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return fmt.Errorf("connect %s: unexpected connection type", addr)
	}
	// Button events must not sit in Nagle's buffer.
	if err := tcpConn.SetNoDelay(true); err != nil {
		_ = tcpConn.Close()
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	l := &link{
		conn:   tcpConn,
		sendCh: make(chan protocol.Message, SendQueueSize),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	prev := c.active
	c.active = l
	c.mu.Unlock()
	if prev != nil {
		// A racing Connect slipped in between Close and install.
		c.teardown(prev, nil)
	}

	go c.readLoop(l)
	go c.writeLoop(l)

	if c.listener != nil {
		c.listener.OnConnected()
	}
	return nil
}

// Connected reports whether a socket is currently live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Send enqueues one message for the writer goroutine. It never blocks: a
// saturated queue fails the send with ErrQueueFull.
func (c *Client) Send(msg protocol.Message) error {
	c.mu.Lock()
	l := c.active
	c.mu.Unlock()
	if l == nil {
		return ErrNotConnected
	}
	select {
	case l.sendCh <- msg:
		return nil
	case <-l.done:
		return ErrNotConnected
	default:
		return ErrQueueFull
	}
}

// SendButton sends a button press or release.
func (c *Client) SendButton(button, action string) error {
	return c.Send(protocol.NewButton(button, action))
}

// SendAnalog sends a clamped analog stick vector.
func (c *Client) SendAnalog(x, y float64) error {
	return c.Send(protocol.NewAnalog(x, y))
}

// SendDeviceInfo reports the handheld screen geometry.
func (c *Client) SendDeviceInfo(width, height int, density float64) error {
	return c.Send(protocol.NewDeviceInfo(width, height, density))
}

// SendCurrentLayout reports the overlay layout active on the handheld.
func (c *Client) SendCurrentLayout(controls map[string]protocol.Placement) error {
	return c.Send(protocol.Message{Type: protocol.TypeCurrentLayout, Controls: controls})
}

// Ping sends a timestamped ping; the matching pong produces an OnLatency
// callback. The timestamp keys the pending-pong map, so two pings issued in
// the same millisecond get distinct, strictly increasing timestamps.
func (c *Client) Ping() error {
	now := time.Now()
	c.pingMu.Lock()
	ts := now.UnixMilli()
	if ts <= c.lastPingTS {
		ts = c.lastPingTS + 1
	}
	c.lastPingTS = ts
	c.pings[ts] = now
	c.pingMu.Unlock()
	if err := c.Send(protocol.NewPing(ts)); err != nil {
		c.pingMu.Lock()
		delete(c.pings, ts)
		c.pingMu.Unlock()
		return err
	}
	return nil
}

// Close tears down the active socket. It is idempotent: closing an idle
// client is a no-op and never emits a second disconnect notification.
func (c *Client) Close() {
	c.mu.Lock()
	l := c.active
	c.mu.Unlock()
	if l != nil {
		c.teardown(l, nil)
	}
}

// readLoop consumes wire lines until the socket dies. A read deadline expiry
// keeps the loop alive; EOF and real errors end the connection once.
func (c *Client) readLoop(l *link) {
	var lines protocol.LineBuffer
	buf := make([]byte, 4096)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		_ = l.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
		n, err := l.conn.Read(buf)
		if n > 0 {
			if appendErr := lines.Append(buf[:n]); appendErr != nil {
				log.Printf("client: %v", appendErr)
			}
			c.dispatchLines(&lines)
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				c.teardown(l, nil)
			} else {
				c.teardown(l, err)
			}
			return
		}
	}
}

// dispatchLines decodes buffered lines and notifies the listener. Malformed
// lines are dropped; a single corrupt line must not poison the stream.
func (c *Client) dispatchLines(lines *protocol.LineBuffer) {
	for {
		line, ok := lines.Next()
		if !ok {
			return
		}
		msg, err := protocol.Decode(line)
		if err != nil {
			log.Printf("client: dropping line: %v", err)
			continue
		}
		if msg.Type == protocol.TypePong {
			c.resolvePing(msg.Timestamp)
		}
		if c.listener != nil {
			c.listener.OnMessage(msg)
		}
	}
}

// resolvePing matches a pong to its recorded send time.
func (c *Client) resolvePing(timestamp int64) {
	c.pingMu.Lock()
	sent, ok := c.pings[timestamp]
	if ok {
		delete(c.pings, timestamp)
	}
	c.pingMu.Unlock()
	if ok && c.listener != nil {
		c.listener.OnLatency(time.Since(sent))
	}
}

// writeLoop drains the send queue onto the socket. Write failures are
// surfaced as errors but do not tear down the connection by themselves.
func (c *Client) writeLoop(l *link) {
	w := protocol.NewWriter(l.conn)
	for {
		select {
		case <-l.done:
			return
		case msg := <-l.sendCh:
			if err := w.Write(msg); err != nil {
				if c.listener != nil {
					c.listener.OnError(fmt.Errorf("send failed: %w", err))
				}
			}
		}
	}
}

// teardown closes one socket generation exactly once and notifies the
// listener. Listener calls happen outside the client lock.
func (c *Client) teardown(l *link, cause error) {
	l.downOnce.Do(func() {
		close(l.done)
		_ = l.conn.Close()

		c.mu.Lock()
		if c.active == l {
			c.active = nil
		}
		c.mu.Unlock()

		c.pingMu.Lock()
		c.pings = make(map[int64]time.Time)
		c.pingMu.Unlock()

		if c.listener != nil {
			if cause != nil {
				c.listener.OnError(cause)
			}
			c.listener.OnDisconnected()
		}
	})
}
