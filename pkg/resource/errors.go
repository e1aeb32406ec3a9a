package resource

import (
	"errors"
	"fmt"
)

// Standard loading errors. Providers catch backend and converter failures at
// the runner boundary and turn them into invalid Resources; these sentinels
// classify what went wrong for logging and metrics. Only ErrNoConverter and
// ErrTypeMismatch surface to callers as hard failures - they indicate
// misconfiguration, not a missing object.
var (
	// ErrResolution indicates the path did not resolve to any object in the
	// backend after probing every registered representation.
	ErrResolution = errors.New("resource not found in backend")

	// ErrTransport indicates a download, export, or disk read failed after
	// the path had resolved.
	ErrTransport = errors.New("transport failure")

	// ErrNoConverter indicates no converter is registered for the requested
	// type. This is a configuration error and is reported loudly at the call
	// site rather than being degraded to an invalid resource.
	ErrNoConverter = errors.New("no converter registered")

	// ErrTypeMismatch indicates a path is already loaded under a different
	// type than the one requested.
	ErrTypeMismatch = errors.New("resource type mismatch")

	// ErrCacheWrite indicates the local disk cache could not be written.
	// Non-fatal: loss of caching is acceptable, loss of the loaded object
	// is not.
	ErrCacheWrite = errors.New("cache write failure")

	// ErrNotLoaded indicates the path is neither loaded nor loading.
	ErrNotLoaded = errors.New("resource not loaded")
)

// LoadError wraps sentinel loading errors with structured context.
//
// It preserves errors.Is matching on the underlying sentinel:
//
//	err := NewLoadError("probe", "Sprites/Image01", TypeSprite, "remote", ErrResolution)
//	errors.Is(err, ErrResolution) // true
type LoadError struct {
	// Op describes the operation that failed: "load", "probe", "fetch",
	// "convert", or "unload".
	Op string

	// Path is the logical path of the affected resource.
	Path string

	// Type is the requested resource type.
	Type Type

	// Backend identifies the backend involved: "local", "remote".
	Backend string

	// Err is the wrapped error, carrying one of the sentinel errors.
	Err error
}

// Error returns a human-readable description including the operation and
// key context fields.
func (e *LoadError) Error() string {
	return fmt.Sprintf("resource %s: %s (path=%s, type=%s, backend=%s)",
		e.Op, e.Err, e.Path, e.Type, e.Backend)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As to
// match through LoadError wrapping.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError creates a LoadError wrapping err with operational context.
func NewLoadError(op, path string, typ Type, backend string, err error) *LoadError {
	return &LoadError{
		Op:      op,
		Path:    path,
		Type:    typ,
		Backend: backend,
		Err:     err,
	}
}
