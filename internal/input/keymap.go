// Package input maps logical controller buttons onto desktop key injection.
package input

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Logical analog direction ids derived from the stick position.
const (
	AnalogUp    = "analog_up"
	AnalogDown  = "analog_down"
	AnalogLeft  = "analog_left"
	AnalogRight = "analog_right"
)

// Keymap maps logical button ids to desktop key names.
type Keymap map[string]string

// DefaultKeymap returns the emulator's stock keyboard bindings.
func DefaultKeymap() Keymap {
	return Keymap{
		"dpad_up":    "Up",
		"dpad_down":  "Down",
		"dpad_left":  "Left",
		"dpad_right": "Right",

		"x":        "z",
		"circle":   "x",
		"square":   "a",
		"triangle": "s",

		"start":  "space",
		"select": "v",

		"l": "q",
		"r": "w",

		AnalogUp:    "i",
		AnalogDown:  "k",
		AnalogLeft:  "j",
		AnalogRight: "l",
	}
}

// LoadKeymap reads keymap overrides from a YAML file and overlays them onto
// the defaults. A missing file returns the defaults unchanged.
func LoadKeymap(path string) (Keymap, error) {
	km := DefaultKeymap()
	if path == "" {
		return km, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return km, nil
		}
		return nil, err
	}
	overrides := Keymap{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("keymap %s: %w", path, err)
	}
	for button, key := range overrides {
		if key == "" {
			return nil, fmt.Errorf("keymap %s: empty key for button %q", path, button)
		}
		km[button] = key
	}
	return km, nil
}

// Resolve maps a logical button id to its desktop key name.
func (k Keymap) Resolve(button string) (string, bool) {
	key, ok := k[button]
	return key, ok
}

// Keys returns every mapped desktop key name, deduplicated.
func (k Keymap) Keys() []string {
	seen := make(map[string]struct{}, len(k))
	keys := make([]string, 0, len(k))
	for _, key := range k {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
