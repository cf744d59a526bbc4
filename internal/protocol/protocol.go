// Package protocol defines the control channel message contract.
package protocol

// Message types sent by the handheld controller.
const (
	// TypeButton carries a button press or release.
	TypeButton = "button"
	// TypeAnalog carries a normalized analog stick vector.
	TypeAnalog = "analog"
	// TypePing requests a latency echo.
	TypePing = "ping"
	// TypeDeviceInfo reports the handheld screen geometry.
	TypeDeviceInfo = "device_info"
	// TypeCurrentLayout reports the overlay layout active on the handheld.
	TypeCurrentLayout = "current_layout"
	// TypeRequestStream asks the desktop to start a gameplay stream.
	TypeRequestStream = "request_stream"
	// TypeStopStream asks the desktop to stop the gameplay stream.
	TypeStopStream = "stop_stream"
)

// Message types sent by the desktop.
const (
	// TypePong echoes a ping timestamp verbatim.
	TypePong = "pong"
	// TypeLayoutPreview pushes a single-control live edit to the handheld.
	TypeLayoutPreview = "layout_preview"
	// TypeSetLayout pushes a complete layout to the handheld.
	TypeSetLayout = "set_layout"
	// TypeStreamStart reports a ready gameplay stream URL.
	TypeStreamStart = "stream_start"
	// TypeStreamStop confirms the gameplay stream stopped.
	TypeStreamStop = "stream_stop"
	// TypeStreamError reports a stream start failure.
	TypeStreamError = "stream_error"
)

// Message types for WebRTC signaling over the control channel.
const (
	// TypeWebRTCOffer carries the desktop's SDP offer.
	TypeWebRTCOffer = "webrtc_offer"
	// TypeWebRTCAnswer carries the handheld's SDP answer.
	TypeWebRTCAnswer = "webrtc_answer"
	// TypeWebRTCICE carries an ICE candidate in either direction.
	TypeWebRTCICE = "webrtc_ice"
)

// Button actions.
const (
	// ActionPress holds a button down.
	ActionPress = "press"
	// ActionRelease lets a button go.
	ActionRelease = "release"
)

// Stream transport modes accepted in request_stream.
const (
	// StreamModeMJPEG streams multipart JPEG over HTTP.
	StreamModeMJPEG = "mjpeg"
	// StreamModeWebRTC streams H264 over a WebRTC peer connection.
	StreamModeWebRTC = "webrtc"
)

// Placement describes one overlay control's position and appearance.
type Placement struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Scale   float64 `json:"scale"`
	Opacity float64 `json:"opacity"`
	Visible bool    `json:"visible"`
	Locked  bool    `json:"locked,omitempty"`
}

// Message is a single control channel payload. Exactly one JSON object per
// line; the Type discriminator selects which fields are meaningful.
type Message struct {
	Type string `json:"type"`

	// button
	Button string `json:"button,omitempty"`
	Action string `json:"action,omitempty"`

	// analog
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// ping / pong
	Timestamp int64 `json:"timestamp,omitempty"`

	// device_info
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	Density float64 `json:"density,omitempty"`

	// current_layout / set_layout
	Controls map[string]Placement `json:"controls,omitempty"`
	Layout   map[string]Placement `json:"layout,omitempty"`

	// layout_preview carries the placement fields flat; x/y are shared
	// with analog.
	Control string   `json:"control,omitempty"`
	Scale   *float64 `json:"scale,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Visible *bool    `json:"visible,omitempty"`

	// request_stream / stream_start
	FPS     int    `json:"fps,omitempty"`
	Quality int    `json:"quality,omitempty"`
	Mode    string `json:"mode,omitempty"`
	URL     string `json:"url,omitempty"`
	Port    int    `json:"port,omitempty"`

	// stream_error
	Message string `json:"message,omitempty"`

	// webrtc signaling
	SDP       string `json:"sdp,omitempty"`
	Candidate string `json:"candidate,omitempty"`
}

// AnalogX returns the clamped analog X component.
func (m Message) AnalogX() float64 {
	if m.X == nil {
		return 0
	}
	return ClampAxis(*m.X)
}

// AnalogY returns the clamped analog Y component.
func (m Message) AnalogY() float64 {
	if m.Y == nil {
		return 0
	}
	return ClampAxis(*m.Y)
}

// ClampAxis constrains an analog axis value to [-1, 1].
func ClampAxis(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// NewButton builds a button message.
func NewButton(button, action string) Message {
	return Message{Type: TypeButton, Button: button, Action: action}
}

// NewAnalog builds an analog message with clamped components.
func NewAnalog(x, y float64) Message {
	cx := ClampAxis(x)
	cy := ClampAxis(y)
	return Message{Type: TypeAnalog, X: &cx, Y: &cy}
}

// NewPing builds a ping message carrying the given timestamp.
func NewPing(timestamp int64) Message {
	return Message{Type: TypePing, Timestamp: timestamp}
}

// NewPong builds the pong reply for a ping, echoing its timestamp verbatim.
func NewPong(ping Message) Message {
	return Message{Type: TypePong, Timestamp: ping.Timestamp}
}

// NewDeviceInfo builds a device_info message.
func NewDeviceInfo(width, height int, density float64) Message {
	return Message{Type: TypeDeviceInfo, Width: width, Height: height, Density: density}
}

// NewLayoutPreview builds a layout_preview message. The placement travels
// as top-level x/y/scale/opacity/visible fields.
func NewLayoutPreview(control string, p Placement) Message {
	x, y, scale, opacity, visible := p.X, p.Y, p.Scale, p.Opacity, p.Visible
	return Message{
		Type:    TypeLayoutPreview,
		Control: control,
		X:       &x,
		Y:       &y,
		Scale:   &scale,
		Opacity: &opacity,
		Visible: &visible,
	}
}

// NewSetLayout builds a set_layout message carrying the full layout under
// the "layout" key.
func NewSetLayout(l map[string]Placement) Message {
	return Message{Type: TypeSetLayout, Layout: l}
}

// PreviewPlacement reassembles the flat layout_preview fields into a
// Placement. Absent fields read as zero values.
func (m Message) PreviewPlacement() Placement {
	var p Placement
	if m.X != nil {
		p.X = *m.X
	}
	if m.Y != nil {
		p.Y = *m.Y
	}
	if m.Scale != nil {
		p.Scale = *m.Scale
	}
	if m.Opacity != nil {
		p.Opacity = *m.Opacity
	}
	if m.Visible != nil {
		p.Visible = *m.Visible
	}
	return p
}

// NewStreamError builds a stream_error message.
func NewStreamError(msg string) Message {
	return Message{Type: TypeStreamError, Message: msg}
}
