// Package monitor describes display geometry and enumeration.
package monitor

import "fmt"

// Monitor describes a display and its bounds in virtual-desktop
// coordinates.
type Monitor struct {
	Index   int
	X       int
	Y       int
	Width   int
	Height  int
	Primary bool
}

// GetMonitorByIndex resolves the 1-based monitor index against the
// enumerated displays. Index 0 selects the primary monitor.
func GetMonitorByIndex(idx int) (Monitor, error) {
	list, err := ListMonitors()
	if err != nil {
		return Monitor{}, err
	}
	return pickMonitor(list, idx)
}

// pickMonitor selects a monitor from the list by 1-based index, falling
// back to the primary display for index 0.
func pickMonitor(list []Monitor, idx int) (Monitor, error) {
	if len(list) == 0 {
		return Monitor{}, fmt.Errorf("no monitors detected")
	}
	if idx <= 0 {
		for _, m := range list {
			if m.Primary {
				return m, nil
			}
		}
		return list[0], nil
	}
	for _, m := range list {
		if m.Index == idx {
			return m, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %d not found (%d available)", idx, len(list))
}
