// Package editor bridges the layout editor UI to the handheld over a
// local WebSocket.
package editor

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/frudas24/padrelay/internal/layout"
	"github.com/frudas24/padrelay/internal/protocol"
	"github.com/frudas24/padrelay/internal/session"
)

// ControllerLink is the subset of the control server the editor needs to
// push layout updates to the handheld.
type ControllerLink interface {
	SendToController(msg protocol.Message) error
	ControllerConnected() bool
}

// Message is the editor websocket envelope.
type Message struct {
	T         string                          `json:"t"`
	Control   string                          `json:"control,omitempty"`
	Placement *protocol.Placement             `json:"placement,omitempty"`
	Controls  map[string]protocol.Placement   `json:"controls,omitempty"`
	Preset    string                          `json:"preset,omitempty"`
	Presets   []string                        `json:"presets,omitempty"`
	Width     int                             `json:"width,omitempty"`
	Height    int                             `json:"height,omitempty"`
	Density   float64                         `json:"density,omitempty"`
	Connected bool                            `json:"connected,omitempty"`
	Error     string                          `json:"error,omitempty"`
}

// Bridge handles editor websocket connections. One editor is meaningful
// at a time; a new connection replaces the active one.
type Bridge struct {
	mu      sync.Mutex
	writeMu sync.Mutex

	upgrader websocket.Upgrader
	link     ControllerLink
	sess     *session.Session
	save     func(layout.Layout) error

	conn *websocket.Conn
}

// NewBridge creates an editor bridge. The save callback persists applied
// layouts and may be nil.
func NewBridge(link ControllerLink, sess *session.Session, save func(layout.Layout) error) *Bridge {
	return &Bridge{
		link: link,
		sess: sess,
		save: save,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the editor message loop.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	b.acceptConn(conn)
	defer b.cleanupConn(conn)

	if err := b.sendTo(conn, b.stateMessage()); err != nil {
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := b.handleMessage(conn, msg); err != nil {
			log.Printf("editor: %v", err)
			return
		}
	}
}

// NotifyHandheld pushes fresh session state to the editor after the
// handheld reported device info or a layout change.
func (b *Bridge) NotifyHandheld(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeDeviceInfo, protocol.TypeCurrentLayout:
	default:
		return
	}
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}
	_ = b.sendTo(conn, b.stateMessage())
}

// handleMessage dispatches one editor request.
func (b *Bridge) handleMessage(conn *websocket.Conn, msg Message) error {
	switch msg.T {
	case "get_state":
		return b.sendTo(conn, b.stateMessage())
	case "preview":
		return b.handlePreview(conn, msg)
	case "apply":
		return b.handleApply(conn, msg.Controls)
	case "preset":
		return b.handlePreset(conn, msg.Preset)
	default:
		return b.sendTo(conn, Message{T: "error", Error: fmt.Sprintf("unknown message %q", msg.T)})
	}
}

// handlePreview relays a single-control edit to the handheld without
// persisting it.
func (b *Bridge) handlePreview(conn *websocket.Conn, msg Message) error {
	if msg.Placement == nil || !layout.IsControlID(msg.Control) {
		return b.sendTo(conn, Message{T: "error", Error: "invalid preview"})
	}
	p := layout.Clamp(*msg.Placement)
	if err := b.link.SendToController(protocol.NewLayoutPreview(msg.Control, p)); err != nil {
		// No handheld connected is fine; the editor previews locally too.
		log.Printf("editor: preview not delivered: %v", err)
	}
	return nil
}

// handleApply sanitizes, persists, and pushes a full layout.
func (b *Bridge) handleApply(conn *websocket.Conn, controls map[string]protocol.Placement) error {
	if len(controls) == 0 {
		return b.sendTo(conn, Message{T: "error", Error: "empty layout"})
	}
	l := layout.Sanitize(layout.Layout(controls))
	b.sess.SetLayout(l)
	if b.save != nil {
		if err := b.save(l); err != nil {
			log.Printf("editor: layout save: %v", err)
		}
	}
	if err := b.link.SendToController(protocol.NewSetLayout(map[string]protocol.Placement(l))); err != nil {
		log.Printf("editor: layout not delivered: %v", err)
	}
	return b.sendTo(conn, b.stateMessage())
}

// handlePreset applies a named preset as the full layout.
func (b *Bridge) handlePreset(conn *websocket.Conn, name string) error {
	l, ok := layout.Preset(name)
	if !ok {
		return b.sendTo(conn, Message{T: "error", Error: fmt.Sprintf("unknown preset %q", name)})
	}
	return b.handleApply(conn, map[string]protocol.Placement(l))
}

// stateMessage snapshots the session for the editor.
func (b *Bridge) stateMessage() Message {
	dev := b.sess.Device()
	return Message{
		T:         "state",
		Controls:  map[string]protocol.Placement(b.sess.Layout()),
		Presets:   layout.PresetNames(),
		Width:     dev.Width,
		Height:    dev.Height,
		Density:   dev.Density,
		Connected: b.link.ControllerConnected(),
	}
}

// acceptConn registers a new editor connection, replacing any active one.
func (b *Bridge) acceptConn(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "replaced")
		_ = b.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
		_ = b.conn.Close()
	}
	b.conn = conn
}

// cleanupConn forgets the connection when it is still the active one.
func (b *Bridge) cleanupConn(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == conn {
		b.conn = nil
	}
	_ = conn.Close()
}

// sendTo writes a JSON message while serializing concurrent writers.
func (b *Bridge) sendTo(conn *websocket.Conn, msg Message) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(msg)
}
