// Package main is a diagnostic client for exercising a PadRelay server
// from the command line.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/frudas24/padrelay/internal/client"
	"github.com/frudas24/padrelay/internal/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5555", "control server address")
	pings := flag.Int("pings", 5, "number of latency pings to send")
	button := flag.String("button", "", "button to tap (e.g. x, dpad_up)")
	hold := flag.Duration("hold", 200*time.Millisecond, "how long to hold the tapped button")
	analog := flag.String("analog", "", "analog vector to send, as x,y in [-1,1]")
	device := flag.String("device", "1280x720", "device geometry to report, as WxH")
	flag.Parse()

	if err := probe(*addr, *pings, *button, *hold, *analog, *device); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

// probe runs the requested diagnostics against the server.
func probe(addr string, pings int, button string, hold time.Duration, analog, device string) error {
	events := &probeListener{
		latency: make(chan time.Duration, pings+1),
		down:    make(chan error, 1),
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port in %q", addr)
	}

	c := client.New(events)
	if err := c.Connect(host, port); err != nil {
		return err
	}
	defer c.Close()
	log.Printf("connected to %s", addr)

	width, height, err := parseGeometry(device)
	if err != nil {
		return err
	}
	if err := c.SendDeviceInfo(width, height, 1.0); err != nil {
		return err
	}

	for i := 0; i < pings; i++ {
		if err := c.Ping(); err != nil {
			return err
		}
		select {
		case rtt := <-events.latency:
			log.Printf("ping %d: rtt=%s", i+1, rtt)
		case err := <-events.down:
			return fmt.Errorf("connection lost: %v", err)
		case <-time.After(2 * time.Second):
			log.Printf("ping %d: timed out", i+1)
		}
		time.Sleep(100 * time.Millisecond)
	}

	if button != "" {
		log.Printf("tapping %q for %s", button, hold)
		if err := c.SendButton(button, protocol.ActionPress); err != nil {
			return err
		}
		time.Sleep(hold)
		if err := c.SendButton(button, protocol.ActionRelease); err != nil {
			return err
		}
	}

	if analog != "" {
		x, y, err := parseVector(analog)
		if err != nil {
			return err
		}
		log.Printf("sending analog %.2f,%.2f then recenter", x, y)
		if err := c.SendAnalog(x, y); err != nil {
			return err
		}
		time.Sleep(hold)
		if err := c.SendAnalog(0, 0); err != nil {
			return err
		}
	}

	// Let queued writes drain before closing.
	time.Sleep(100 * time.Millisecond)
	return nil
}

// parseGeometry parses a WxH string.
func parseGeometry(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid geometry %q, want WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return w, h, nil
}

// parseVector parses an "x,y" float pair.
func parseVector(s string) (float64, float64, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid vector %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x in %q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y in %q", s)
	}
	return x, y, nil
}

// probeListener surfaces client events to the probe loop.
type probeListener struct {
	latency chan time.Duration
	down    chan error
}

// OnConnected is a no-op; probe logs the connect itself.
func (p *probeListener) OnConnected() {}

// OnDisconnected reports the lost connection.
func (p *probeListener) OnDisconnected() {
	select {
	case p.down <- fmt.Errorf("disconnected"):
	default:
	}
}

// OnError logs transport errors.
func (p *probeListener) OnError(err error) {
	log.Printf("transport: %v", err)
}

// OnMessage logs non-pong traffic from the server.
func (p *probeListener) OnMessage(msg protocol.Message) {
	if msg.Type == protocol.TypePong {
		return
	}
	log.Printf("server: %s %+v", msg.Type, msg)
}

// OnLatency delivers a measured round trip.
func (p *probeListener) OnLatency(rtt time.Duration) {
	select {
	case p.latency <- rtt:
	default:
	}
}
