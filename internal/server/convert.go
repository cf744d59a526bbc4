// Package server implements the desktop side of the control channel.
package server

import (
	"github.com/frudas24/padrelay/internal/layout"
	"github.com/frudas24/padrelay/internal/protocol"
	"github.com/frudas24/padrelay/internal/session"
)

// sessionDevice extracts the device geometry from a device_info message.
func sessionDevice(msg protocol.Message) session.DeviceInfo {
	return session.DeviceInfo{
		Width:   msg.Width,
		Height:  msg.Height,
		Density: msg.Density,
	}
}

// layoutFromMessage converts wire placements into a layout.
func layoutFromMessage(controls map[string]protocol.Placement) layout.Layout {
	l := make(layout.Layout, len(controls))
	for id, p := range controls {
		l[id] = p
	}
	return l
}
