package client

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/frudas24/padrelay/internal/protocol"
)

// recordingListener collects client events for assertions.
type recordingListener struct {
	mu            sync.Mutex
	connected     int
	disconnected  int
	errs          []error
	messages      []protocol.Message
	latencies     []time.Duration
	disconnectCh  chan struct{}
	messageCh     chan protocol.Message
	latencyCh     chan time.Duration
	connectNotify chan struct{}
}

// newRecordingListener returns a listener with buffered notification channels.
func newRecordingListener() *recordingListener {
	return &recordingListener{
		disconnectCh:  make(chan struct{}, 4),
		messageCh:     make(chan protocol.Message, 64),
		latencyCh:     make(chan time.Duration, 4),
		connectNotify: make(chan struct{}, 4),
	}
}

// OnConnected records a connect event.
func (r *recordingListener) OnConnected() {
	r.mu.Lock()
	r.connected++
	r.mu.Unlock()
	r.connectNotify <- struct{}{}
}

// OnDisconnected records a disconnect event.
func (r *recordingListener) OnDisconnected() {
	r.mu.Lock()
	r.disconnected++
	r.mu.Unlock()
	r.disconnectCh <- struct{}{}
}

// OnError records an error event.
func (r *recordingListener) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

// OnMessage records an incoming message.
func (r *recordingListener) OnMessage(msg protocol.Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.messageCh <- msg
}

// OnLatency records a latency sample.
func (r *recordingListener) OnLatency(rtt time.Duration) {
	r.mu.Lock()
	r.latencies = append(r.latencies, rtt)
	r.mu.Unlock()
	r.latencyCh <- rtt
}

// disconnects returns the disconnect notification count.
func (r *recordingListener) disconnects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disconnected
}

// startServer runs a single-accept loopback server handing the connection to fn.
func startServer(t *testing.T, fn func(conn net.Conn)) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		fn(conn)
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// waitSignal waits for a channel signal or fails the test.
func waitSignal[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

// TestConnect_NotifiesAndDelivers verifies connect, send, and server receipt.
func TestConnect_NotifiesAndDelivers(t *testing.T) {
	received := make(chan protocol.Message, 8)
	host, port := startServer(t, func(conn net.Conn) {
		defer conn.Close()
		var lines protocol.LineBuffer
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				_ = lines.Append(buf[:n])
				for {
					line, ok := lines.Next()
					if !ok {
						break
					}
					if msg, err := protocol.Decode(line); err == nil {
						received <- msg
					}
				}
			}
			if err != nil {
				return
			}
		}
	})

	l := newRecordingListener()
	c := New(l)
	defer c.Close()
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitSignal(t, l.connectNotify, "OnConnected")

	if err := c.SendDeviceInfo(1080, 2400, 2.75); err != nil {
		t.Fatalf("send device info: %v", err)
	}
	if err := c.SendButton("x", protocol.ActionPress); err != nil {
		t.Fatalf("send button: %v", err)
	}

	first := waitSignal(t, received, "device_info on server")
	if first.Type != protocol.TypeDeviceInfo || first.Width != 1080 {
		t.Fatalf("unexpected first message: %+v", first)
	}
	second := waitSignal(t, received, "button on server")
	if second.Type != protocol.TypeButton || second.Button != "x" {
		t.Fatalf("unexpected second message: %+v", second)
	}
}

// TestPing_LatencyFromEchoedPong verifies the pong echo produces a latency sample.
func TestPing_LatencyFromEchoedPong(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		defer conn.Close()
		var lines protocol.LineBuffer
		w := protocol.NewWriter(conn)
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				_ = lines.Append(buf[:n])
				for {
					line, ok := lines.Next()
					if !ok {
						break
					}
					msg, err := protocol.Decode(line)
					if err == nil && msg.Type == protocol.TypePing {
						_ = w.Write(protocol.NewPong(msg))
					}
				}
			}
			if err != nil {
				return
			}
		}
	})

	l := newRecordingListener()
	c := New(l)
	defer c.Close()
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	rtt := waitSignal(t, l.latencyCh, "latency sample")
	if rtt < 0 {
		t.Fatalf("expected non-negative latency, got %v", rtt)
	}
	msg := waitSignal(t, l.messageCh, "pong message")
	if msg.Type != protocol.TypePong {
		t.Fatalf("expected pong, got %+v", msg)
	}
}

// TestPing_RapidPingsEachResolve gives same-millisecond pings distinct
// timestamps so every pong yields its own latency sample.
func TestPing_RapidPingsEachResolve(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		defer conn.Close()
		var lines protocol.LineBuffer
		w := protocol.NewWriter(conn)
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				_ = lines.Append(buf[:n])
				for {
					line, ok := lines.Next()
					if !ok {
						break
					}
					msg, err := protocol.Decode(line)
					if err == nil && msg.Type == protocol.TypePing {
						_ = w.Write(protocol.NewPong(msg))
					}
				}
			}
			if err != nil {
				return
			}
		}
	})

	l := newRecordingListener()
	c := New(l)
	defer c.Close()
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("connect: %v", err)
	}

	const pings = 10
	for i := 0; i < pings; i++ {
		if err := c.Ping(); err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
	}
	seen := map[int64]bool{}
	for i := 0; i < pings; i++ {
		waitSignal(t, l.latencyCh, "latency sample")
		msg := waitSignal(t, l.messageCh, "pong message")
		if msg.Type != protocol.TypePong {
			t.Fatalf("expected pong, got %+v", msg)
		}
		if seen[msg.Timestamp] {
			t.Fatalf("duplicate ping timestamp %d on the wire", msg.Timestamp)
		}
		seen[msg.Timestamp] = true
	}
}

// TestReceive_SurvivesMalformedLine drops a corrupt line and keeps reading.
func TestReceive_SurvivesMalformedLine(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		_, _ = conn.Write([]byte("this is not json\n"))
		w := protocol.NewWriter(conn)
		for i := 0; i < 10; i++ {
			_ = w.Write(protocol.Message{Type: protocol.TypeStreamStop})
		}
		// Hold the socket open so the client does not race teardown.
		time.Sleep(2 * time.Second)
		_ = conn.Close()
	})

	l := newRecordingListener()
	c := New(l)
	defer c.Close()
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("connect: %v", err)
	}
	for i := 0; i < 10; i++ {
		msg := waitSignal(t, l.messageCh, "valid message after malformed line")
		if msg.Type != protocol.TypeStreamStop {
			t.Fatalf("message %d: expected stream_stop, got %+v", i, msg)
		}
	}
}

// TestClose_Idempotent verifies double-close emits one disconnect.
func TestClose_Idempotent(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	})

	l := newRecordingListener()
	c := New(l)
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.Close()
	waitSignal(t, l.disconnectCh, "OnDisconnected")
	c.Close()

	time.Sleep(100 * time.Millisecond)
	if got := l.disconnects(); got != 1 {
		t.Fatalf("expected 1 disconnect notification, got %d", got)
	}
	if c.Connected() {
		t.Fatalf("expected disconnected client")
	}
}

// TestPeerClose_NotifiesOnce verifies a server-side close is reported once.
func TestPeerClose_NotifiesOnce(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		_ = conn.Close()
	})

	l := newRecordingListener()
	c := New(l)
	defer c.Close()
	if err := c.Connect(host, port); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitSignal(t, l.disconnectCh, "OnDisconnected")

	time.Sleep(100 * time.Millisecond)
	if got := l.disconnects(); got != 1 {
		t.Fatalf("expected 1 disconnect notification, got %d", got)
	}
}

// TestSend_WhenDisconnected fails fast without a connection.
func TestSend_WhenDisconnected(t *testing.T) {
	c := New(newRecordingListener())
	if err := c.SendButton("x", protocol.ActionPress); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

// TestConnect_ReplacesPriorSocket verifies at most one live socket per client.
func TestConnect_ReplacesPriorSocket(t *testing.T) {
	hold := make(chan struct{})
	firstClosed := make(chan struct{})
	host1, port1 := startServer(t, func(conn net.Conn) {
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				close(firstClosed)
				<-hold
				return
			}
		}
	})
	host2, port2 := startServer(t, func(conn net.Conn) {
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	})

	l := newRecordingListener()
	c := New(l)
	defer c.Close()
	defer close(hold)

	if err := c.Connect(host1, port1); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := c.Connect(host2, port2); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	waitSignal(t, firstClosed, "first socket closed")
	if !c.Connected() {
		t.Fatalf("expected client connected to second server")
	}
}
