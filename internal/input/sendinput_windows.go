//go:build windows

// Package input maps logical controller buttons onto desktop key injection.
package input

import (
	"fmt"
	"strings"

	"github.com/lxn/win"
)

// WinInjector injects keys through SendInput.
type WinInjector struct{}

// NewInjector returns the platform injector. The xdoPath argument is ignored
// on Windows.
func NewInjector(xdoPath string) (Injector, error) {
	_ = xdoPath
	return &WinInjector{}, nil
}

// KeyDown holds a key down.
func (w *WinInjector) KeyDown(key string) error {
	vk, err := virtualKey(key)
	if err != nil {
		return err
	}
	return sendKeyboardInput(win.KEYBDINPUT{WVk: vk})
}

// KeyUp releases a key.
func (w *WinInjector) KeyUp(key string) error {
	vk, err := virtualKey(key)
	if err != nil {
		return err
	}
	return sendKeyboardInput(win.KEYBDINPUT{WVk: vk, DwFlags: win.KEYEVENTF_KEYUP})
}

// virtualKey maps an X11-style key name to a Windows virtual key code.
func virtualKey(key string) (uint16, error) {
	switch strings.ToLower(key) {
	case "up":
		return win.VK_UP, nil
	case "down":
		return win.VK_DOWN, nil
	case "left":
		return win.VK_LEFT, nil
	case "right":
		return win.VK_RIGHT, nil
	case "space":
		return win.VK_SPACE, nil
	case "return", "enter":
		return win.VK_RETURN, nil
	case "shift":
		return win.VK_SHIFT, nil
	case "ctrl", "control":
		return win.VK_CONTROL, nil
	case "tab":
		return win.VK_TAB, nil
	case "escape", "esc":
		return win.VK_ESCAPE, nil
	}
	if len(key) == 1 {
		c := key[0]
		if c >= 'a' && c <= 'z' {
			return uint16(c - 'a' + 'A'), nil
		}
		if c >= 'A' && c <= 'Z' {
			return uint16(c), nil
		}
		if c >= '0' && c <= '9' {
			return uint16(c), nil
		}
	}
	return 0, fmt.Errorf("no virtual key for %q", key)
}

// sendKeyboardInput dispatches a single keyboard input event.
func sendKeyboardInput(key win.KEYBDINPUT) error {
	input := win.INPUT{
		Type: win.INPUT_KEYBOARD,
		Ki:   key,
	}
	if win.SendInput(1, &input, int32(win.SizeofINPUT)) != 1 {
		return fmt.Errorf("SendInput failed: error %d", win.GetLastError())
	}
	return nil
}
