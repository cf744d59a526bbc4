package relay

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/frudas24/padrelay/internal/ffmpeg"
)

// TestNew_RejectsBadAddr verifies malformed listen addresses are refused.
func TestNew_RejectsBadAddr(t *testing.T) {
	if _, err := New(ffmpeg.Options{}, "not-an-addr", 0); err == nil {
		t.Fatalf("expected error for malformed address")
	}
	if _, err := New(ffmpeg.Options{}, ":nan", 0); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

// TestEffectiveQuality_ConfiguredDefault falls back to the configured JPEG
// quality when the stream request carries none.
func TestEffectiveQuality_ConfiguredDefault(t *testing.T) {
	r, err := New(ffmpeg.Options{}, "127.0.0.1:0", 85)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := []struct{ requested, want int }{
		{0, 85},
		{-1, 85},
		{150, 85},
		{40, 40},
		{100, 100},
	}
	for _, c := range cases {
		if got := r.effectiveQuality(c.requested); got != c.want {
			t.Fatalf("effectiveQuality(%d): expected %d, got %d", c.requested, c.want, got)
		}
	}

	// An out-of-range configured value falls back to the stock quality.
	r, err = New(ffmpeg.Options{}, "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := r.effectiveQuality(0); got != 60 {
		t.Fatalf("expected stock quality 60, got %d", got)
	}
}

// TestRun_ServesMJPEG verifies the HTTP endpoint delivers published frames.
func TestRun_ServesMJPEG(t *testing.T) {
	r, err := New(ffmpeg.Options{FPS: 30}, "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer r.Close()

	go func() {
		for i := 0; i < 20; i++ {
			r.stream.Publish([]byte{0xff, 0xd8, 0xff, 0xd9})
			time.Sleep(50 * time.Millisecond)
		}
	}()

	addr := r.ln.Addr().(*net.TCPAddr)
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	fmt.Fprintf(conn, "GET /stream HTTP/1.1\r\nHost: %s\r\n\r\n", addr)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.Contains(status, "200") {
		t.Fatalf("unexpected status: %q", status)
	}
	var sawBoundary bool
	for i := 0; i < 40; i++ {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read headers: %v", err)
		}
		if strings.Contains(line, "--frame") {
			sawBoundary = true
			break
		}
	}
	if !sawBoundary {
		t.Fatalf("never saw multipart boundary")
	}
}

// TestClose_ShutsDownEndpoint verifies Close refuses new viewers.
func TestClose_ShutsDownEndpoint(t *testing.T) {
	r, err := New(ffmpeg.Options{}, "127.0.0.1:0", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	addr := r.ln.Addr().String()
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	client := &http.Client{Timeout: time.Second}
	if _, err := client.Get("http://" + addr + "/stream"); err == nil {
		t.Fatalf("expected connection failure after close")
	}
}

// TestLocalIP_IsParseable verifies the LAN address helper returns an IP.
func TestLocalIP_IsParseable(t *testing.T) {
	if ip := net.ParseIP(localIP()); ip == nil {
		t.Fatalf("localIP returned a non-IP value")
	}
}
