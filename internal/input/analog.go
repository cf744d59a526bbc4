// Package input maps logical controller buttons onto desktop key injection.
package input

import "github.com/frudas24/padrelay/internal/protocol"

// DefaultAnalogThreshold is the stick deflection that counts as a direction.
const DefaultAnalogThreshold = 0.3

// Transition is one derived directional button change.
type Transition struct {
	Button string
	Press  bool
}

// AnalogState derives directional press/release transitions from the stick
// position. It remembers which directions are currently held so each update
// emits only the changes, never a redundant press or release.
type AnalogState struct {
	threshold float64
	held      map[string]bool
}

// NewAnalogState returns an analog tracker with the given threshold.
// Non-positive thresholds fall back to the default.
func NewAnalogState(threshold float64) *AnalogState {
	if threshold <= 0 {
		threshold = DefaultAnalogThreshold
	}
	return &AnalogState{
		threshold: threshold,
		held:      make(map[string]bool),
	}
}

// Update clamps the vector and returns the directional transitions it causes.
// Releases are emitted before presses so opposing directions never overlap.
func (a *AnalogState) Update(x, y float64) []Transition {
	x = protocol.ClampAxis(x)
	y = protocol.ClampAxis(y)

	want := map[string]bool{}
	if y < -a.threshold {
		want[AnalogUp] = true
	} else if y > a.threshold {
		want[AnalogDown] = true
	}
	if x < -a.threshold {
		want[AnalogLeft] = true
	} else if x > a.threshold {
		want[AnalogRight] = true
	}

	var transitions []Transition
	for _, dir := range analogDirections() {
		if a.held[dir] && !want[dir] {
			delete(a.held, dir)
			transitions = append(transitions, Transition{Button: dir, Press: false})
		}
	}
	for _, dir := range analogDirections() {
		if want[dir] && !a.held[dir] {
			a.held[dir] = true
			transitions = append(transitions, Transition{Button: dir, Press: true})
		}
	}
	return transitions
}

// Reset releases every held direction and returns the release transitions.
func (a *AnalogState) Reset() []Transition {
	var transitions []Transition
	for _, dir := range analogDirections() {
		if a.held[dir] {
			delete(a.held, dir)
			transitions = append(transitions, Transition{Button: dir, Press: false})
		}
	}
	return transitions
}

// Held reports whether a direction is currently held.
func (a *AnalogState) Held(dir string) bool {
	return a.held[dir]
}

// analogDirections returns the four direction ids in a stable order.
func analogDirections() []string {
	return []string{AnalogUp, AnalogDown, AnalogLeft, AnalogRight}
}
