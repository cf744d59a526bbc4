//go:build !windows

// Package input maps logical controller buttons onto desktop key injection.
package input

// NewInjector returns the platform injector. Non-Windows systems shell out to
// xdotool; xdoPath overrides the binary location.
func NewInjector(xdoPath string) (Injector, error) {
	return NewXdoInjector(xdoPath)
}
