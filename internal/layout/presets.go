// Package layout models the on-screen controller overlay layout.
package layout

import "github.com/frudas24/padrelay/internal/protocol"

// Preset names.
const (
	PresetDefault = "default"
	PresetCompact = "compact"
	PresetWide    = "wide"
)

// PresetNames lists the built-in presets.
func PresetNames() []string {
	return []string{PresetDefault, PresetCompact, PresetWide}
}

// Preset returns a copy of the named built-in layout; ok is false for
// unknown names.
func Preset(name string) (Layout, bool) {
	switch name {
	case PresetDefault:
		return buildPreset([7][2]float64{
			{0.05, 0.35}, {0.18, 0.70}, {0.75, 0.35}, {0.05, 0.08}, {0.75, 0.08}, {0.60, 0.85}, {0.30, 0.85},
		}, 1.0), true
	case PresetCompact:
		return buildPreset([7][2]float64{
			{0.02, 0.40}, {0.12, 0.75}, {0.80, 0.40}, {0.02, 0.05}, {0.80, 0.05}, {0.65, 0.90}, {0.25, 0.90},
		}, 0.8), true
	case PresetWide:
		return buildPreset([7][2]float64{
			{0.08, 0.30}, {0.20, 0.65}, {0.70, 0.30}, {0.08, 0.05}, {0.70, 0.05}, {0.58, 0.85}, {0.32, 0.85},
		}, 1.2), true
	default:
		return nil, false
	}
}

// Default returns the stock overlay layout.
func Default() Layout {
	l, _ := Preset(PresetDefault)
	return l
}

// buildPreset assembles a layout from per-control positions and a shared scale.
func buildPreset(positions [7][2]float64, scale float64) Layout {
	ids := ControlIDs()
	l := make(Layout, len(ids))
	for i, id := range ids {
		l[id] = protocol.Placement{
			X:       positions[i][0],
			Y:       positions[i][1],
			Scale:   scale,
			Opacity: 1.0,
			Visible: true,
		}
	}
	return l
}
