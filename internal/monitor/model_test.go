package monitor

import "testing"

// TestPickMonitor_Found verifies a monitor is found by index.
func TestPickMonitor_Found(t *testing.T) {
	list := []Monitor{
		{Index: 1, Width: 1920, Height: 1080, Primary: true},
		{Index: 2, Width: 2560, Height: 1440},
	}
	m, err := pickMonitor(list, 2)
	if err != nil || m.Index != 2 {
		t.Fatalf("expected index 2, got err=%v monitor=%+v", err, m)
	}
}

// TestPickMonitor_NotFound verifies missing indexes return an error.
func TestPickMonitor_NotFound(t *testing.T) {
	list := []Monitor{{Index: 1, Width: 1920, Height: 1080}}
	if _, err := pickMonitor(list, 3); err == nil {
		t.Fatalf("expected error for missing index")
	}
}

// TestPickMonitor_ZeroSelectsPrimary verifies index 0 falls back to the
// primary display.
func TestPickMonitor_ZeroSelectsPrimary(t *testing.T) {
	list := []Monitor{
		{Index: 1, Width: 1920, Height: 1080},
		{Index: 2, Width: 2560, Height: 1440, Primary: true},
	}
	m, err := pickMonitor(list, 0)
	if err != nil || m.Index != 2 {
		t.Fatalf("expected primary monitor 2, got err=%v monitor=%+v", err, m)
	}
}

// TestPickMonitor_Empty verifies an empty list is rejected.
func TestPickMonitor_Empty(t *testing.T) {
	if _, err := pickMonitor(nil, 1); err == nil {
		t.Fatalf("expected error for empty list")
	}
}
