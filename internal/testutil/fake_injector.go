// Package testutil provides shared fakes for tests.
package testutil

import (
	"sync"

	"github.com/frudas24/padrelay/internal/input"
)

// KeyEvent records a single injected key transition.
type KeyEvent struct {
	Key  string
	Down bool
}

// FakeInjector implements input.Injector and records calls for tests.
type FakeInjector struct {
	mu     sync.Mutex
	events []KeyEvent
}

// Ensure FakeInjector implements the interface.
var _ input.Injector = (*FakeInjector)(nil)

// KeyDown records a key press.
func (f *FakeInjector) KeyDown(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, KeyEvent{Key: key, Down: true})
	return nil
}

// KeyUp records a key release.
func (f *FakeInjector) KeyUp(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, KeyEvent{Key: key, Down: false})
	return nil
}

// Events returns a copy of all recorded transitions.
func (f *FakeInjector) Events() []KeyEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]KeyEvent(nil), f.events...)
}

// HeldKeys returns the keys currently held down, derived from the event log.
func (f *FakeInjector) HeldKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := map[string]bool{}
	for _, ev := range f.events {
		held[ev.Key] = ev.Down
	}
	var keys []string
	for key, down := range held {
		if down {
			keys = append(keys, key)
		}
	}
	return keys
}

// CountFor returns the press and release counts for one key.
func (f *FakeInjector) CountFor(key string) (downs, ups int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.events {
		if ev.Key != key {
			continue
		}
		if ev.Down {
			downs++
		} else {
			ups++
		}
	}
	return downs, ups
}
