package layout

import (
	"path/filepath"
	"testing"

	"github.com/frudas24/padrelay/internal/protocol"
)

// TestSaveLoad_RoundTrip verifies saving and loading preserves the layout.
func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	in := Layout{
		ControlDPad:   {X: 0.1, Y: 0.2, Scale: 1.5, Opacity: 0.8, Visible: true, Locked: true},
		ControlSelect: {X: 0.3, Y: 0.9, Scale: 0.5, Opacity: 1.0, Visible: false},
	}

	if err := Save(path, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d controls, got %d", len(in), len(out))
	}
	for id, p := range in {
		if out[id] != p {
			t.Fatalf("control %q: expected %+v, got %+v", id, p, out[id])
		}
	}
}

// TestLoad_MissingFile_ReturnsDefault verifies a first run starts from the default preset.
func TestLoad_MissingFile_ReturnsDefault(t *testing.T) {
	out, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if len(out) != len(def) {
		t.Fatalf("expected default layout, got %+v", out)
	}
}

// TestSave_ClampsOutOfRange verifies persisted layouts are sanitized.
func TestSave_ClampsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	in := Layout{
		ControlAnalog: protocol.Placement{X: 2.0, Y: -1.0, Scale: 9.0, Opacity: 2.0, Visible: true},
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := out[ControlAnalog]
	if got.X != 1 || got.Y != 0 || got.Scale != MaxScale || got.Opacity != 1 {
		t.Fatalf("expected clamped placement, got %+v", got)
	}
}
