package input

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultKeymap_CoversAllButtons checks the stock bindings are complete.
func TestDefaultKeymap_CoversAllButtons(t *testing.T) {
	km := DefaultKeymap()
	buttons := []string{
		"dpad_up", "dpad_down", "dpad_left", "dpad_right",
		"x", "circle", "square", "triangle",
		"start", "select", "l", "r",
		AnalogUp, AnalogDown, AnalogLeft, AnalogRight,
	}
	for _, b := range buttons {
		if _, ok := km.Resolve(b); !ok {
			t.Fatalf("missing binding for %q", b)
		}
	}
}

// TestResolve_UnknownButton reports unknown ids.
func TestResolve_UnknownButton(t *testing.T) {
	if _, ok := DefaultKeymap().Resolve("turbo"); ok {
		t.Fatalf("expected unknown button to be unresolved")
	}
}

// TestLoadKeymap_MissingFile returns the defaults untouched.
func TestLoadKeymap_MissingFile(t *testing.T) {
	km, err := LoadKeymap(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("LoadKeymap: %v", err)
	}
	if key, _ := km.Resolve("x"); key != "z" {
		t.Fatalf("expected default binding z for x, got %q", key)
	}
}

// TestLoadKeymap_Overrides overlays file values onto the defaults.
func TestLoadKeymap_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.yml")
	if err := os.WriteFile(path, []byte("x: Return\nl: e\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	km, err := LoadKeymap(path)
	if err != nil {
		t.Fatalf("LoadKeymap: %v", err)
	}
	if key, _ := km.Resolve("x"); key != "Return" {
		t.Fatalf("expected override Return for x, got %q", key)
	}
	if key, _ := km.Resolve("l"); key != "e" {
		t.Fatalf("expected override e for l, got %q", key)
	}
	if key, _ := km.Resolve("circle"); key != "x" {
		t.Fatalf("expected untouched default for circle, got %q", key)
	}
}

// TestLoadKeymap_RejectsEmptyKey refuses blank bindings.
func TestLoadKeymap_RejectsEmptyKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.yml")
	if err := os.WriteFile(path, []byte(`x: ""`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadKeymap(path); err == nil {
		t.Fatalf("expected error for empty key binding")
	}
}

// TestKeys_Deduplicates returns each desktop key once.
func TestKeys_Deduplicates(t *testing.T) {
	km := Keymap{"a": "z", "b": "z", "c": "q"}
	keys := km.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 unique keys, got %v", keys)
	}
}
