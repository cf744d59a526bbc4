//go:build !windows

package monitor

import "fmt"

// ListMonitors returns an error on non-Windows platforms; the x11grab
// capture path does not need monitor enumeration.
func ListMonitors() ([]Monitor, error) {
	return nil, fmt.Errorf("ListMonitors is only supported on Windows")
}
