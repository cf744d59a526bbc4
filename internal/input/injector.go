// Package input maps logical controller buttons onto desktop key injection.
package input

// Injector performs key press and release against the focused window. Both
// operations are idempotent: pressing a held key or releasing an idle key is
// harmless.
type Injector interface {
	KeyDown(key string) error
	KeyUp(key string) error
}
