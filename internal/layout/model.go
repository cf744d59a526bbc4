// Package layout models the on-screen controller overlay layout.
package layout

import "github.com/frudas24/padrelay/internal/protocol"

// Overlay control identifiers.
const (
	ControlDPad          = "dpad"
	ControlAnalog        = "analog"
	ControlActionButtons = "action_buttons"
	ControlLButton       = "l_button"
	ControlRButton       = "r_button"
	ControlStart         = "start"
	ControlSelect        = "select"
)

// Placement bounds.
const (
	MinScale = 0.5
	MaxScale = 2.0
)

// ControlIDs lists every overlay control in display order.
func ControlIDs() []string {
	return []string{
		ControlDPad,
		ControlAnalog,
		ControlActionButtons,
		ControlLButton,
		ControlRButton,
		ControlStart,
		ControlSelect,
	}
}

// IsControlID reports whether id names a known overlay control.
func IsControlID(id string) bool {
	for _, known := range ControlIDs() {
		if id == known {
			return true
		}
	}
	return false
}

// Layout maps control ids to their placements.
type Layout map[string]protocol.Placement

// Clamp constrains a placement to the documented ranges.
func Clamp(p protocol.Placement) protocol.Placement {
	p.X = clampUnit(p.X)
	p.Y = clampUnit(p.Y)
	if p.Scale < MinScale {
		p.Scale = MinScale
	}
	if p.Scale > MaxScale {
		p.Scale = MaxScale
	}
	p.Opacity = clampUnit(p.Opacity)
	return p
}

// Sanitize drops unknown controls and clamps every placement.
func Sanitize(l Layout) Layout {
	out := make(Layout, len(l))
	for id, p := range l {
		if !IsControlID(id) {
			continue
		}
		out[id] = Clamp(p)
	}
	return out
}

// Merge applies a single-control preview onto a copy of the layout.
func Merge(l Layout, control string, p protocol.Placement) Layout {
	out := make(Layout, len(l)+1)
	for id, existing := range l {
		out[id] = existing
	}
	if IsControlID(control) {
		out[control] = Clamp(p)
	}
	return out
}

// clampUnit constrains a value to [0, 1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
