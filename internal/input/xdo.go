// Package input maps logical controller buttons onto desktop key injection.
package input

import (
	"fmt"
	"log"
	"os/exec"
)

// XdoInjector injects keys globally through the xdotool binary, so they reach
// the emulator while it is focused, including its own mapping dialogs.
type XdoInjector struct {
	path string
}

// NewXdoInjector resolves the xdotool binary and returns an injector.
func NewXdoInjector(path string) (*XdoInjector, error) {
	if path == "" {
		path = "xdotool"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("xdotool not found: %w", err)
	}
	return &XdoInjector{path: resolved}, nil
}

// KeyDown holds a key down.
func (x *XdoInjector) KeyDown(key string) error {
	return x.run("keydown", key)
}

// KeyUp releases a key.
func (x *XdoInjector) KeyUp(key string) error {
	return x.run("keyup", key)
}

// run launches xdotool without waiting, so injection never adds process
// startup latency to the input path. Exit status is reaped in the background.
func (x *XdoInjector) run(subcommand, key string) error {
	cmd := exec.Command(x.path, subcommand, key)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("xdotool %s %s: %w", subcommand, key, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("input: xdotool %s %s: %v", subcommand, key, err)
		}
	}()
	return nil
}
