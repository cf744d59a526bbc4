package layout

import (
	"testing"

	"github.com/frudas24/padrelay/internal/protocol"
)

// TestClamp_Ranges verifies placements clamp to the documented ranges.
func TestClamp_Ranges(t *testing.T) {
	p := Clamp(protocol.Placement{X: -0.5, Y: 1.5, Scale: 3.0, Opacity: -1.0, Visible: true})
	if p.X != 0 || p.Y != 1 {
		t.Fatalf("expected position clamped to [0,1], got %+v", p)
	}
	if p.Scale != MaxScale {
		t.Fatalf("expected scale clamped to %v, got %v", MaxScale, p.Scale)
	}
	if p.Opacity != 0 {
		t.Fatalf("expected opacity clamped to 0, got %v", p.Opacity)
	}
}

// TestClamp_MinScale verifies the lower scale bound.
func TestClamp_MinScale(t *testing.T) {
	p := Clamp(protocol.Placement{Scale: 0.1, Opacity: 1})
	if p.Scale != MinScale {
		t.Fatalf("expected scale %v, got %v", MinScale, p.Scale)
	}
}

// TestSanitize_DropsUnknownControls removes ids outside the fixed set.
func TestSanitize_DropsUnknownControls(t *testing.T) {
	l := Sanitize(Layout{
		ControlDPad: {X: 0.1, Y: 0.2, Scale: 1, Opacity: 1, Visible: true},
		"bogus":     {X: 0.5, Y: 0.5, Scale: 1, Opacity: 1, Visible: true},
	})
	if len(l) != 1 {
		t.Fatalf("expected 1 control, got %d", len(l))
	}
	if _, ok := l[ControlDPad]; !ok {
		t.Fatalf("expected dpad retained: %+v", l)
	}
}

// TestMerge_PreviewDoesNotMutate verifies Merge copies before applying.
func TestMerge_PreviewDoesNotMutate(t *testing.T) {
	base := Default()
	orig := base[ControlStart]
	merged := Merge(base, ControlStart, protocol.Placement{X: 0.9, Y: 0.9, Scale: 1, Opacity: 1, Visible: false})
	if base[ControlStart] != orig {
		t.Fatalf("expected base layout untouched")
	}
	if merged[ControlStart].X != 0.9 || merged[ControlStart].Visible {
		t.Fatalf("expected preview applied, got %+v", merged[ControlStart])
	}
}

// TestPreset_Known returns every documented preset with all controls placed.
func TestPreset_Known(t *testing.T) {
	for _, name := range PresetNames() {
		l, ok := Preset(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if len(l) != len(ControlIDs()) {
			t.Fatalf("preset %q: expected %d controls, got %d", name, len(ControlIDs()), len(l))
		}
		for id, p := range l {
			if Clamp(p) != p {
				t.Fatalf("preset %q control %q out of range: %+v", name, id, p)
			}
		}
	}
}

// TestPreset_Unknown rejects unknown preset names.
func TestPreset_Unknown(t *testing.T) {
	if _, ok := Preset("huge"); ok {
		t.Fatalf("expected unknown preset to be rejected")
	}
}
