// Package resource defines the core value types of the loading framework:
// typed resource handles, type descriptors, and the error taxonomy shared by
// providers, backends, and converters.
package resource

// Type is a descriptor for the in-memory representation a caller requests.
//
// Types are plain string tags declared by converter packages and passed
// explicitly by callers. There is no runtime type discovery: a Type is valid
// exactly when a converter for it has been registered.
type Type string

func (t Type) String() string {
	return string(t)
}

// Resource is a handle to a logical path and its typed payload.
//
// A Resource is registered under exactly one path. It is immutable after
// construction: loads that complete successfully produce a valid Resource
// via Completed, failed loads produce an invalid one via Invalid. Callers
// must check Valid before using the payload - a missing or failed resource
// degrades to an invalid handle, never to a panic or an error return from
// the provider.
type Resource struct {
	path       string
	typ        Type
	payload    any
	valid      bool
	unloadable bool
}

// Completed returns a valid Resource carrying the given payload.
func Completed(path string, typ Type, payload any) *Resource {
	return &Resource{
		path:       path,
		typ:        typ,
		payload:    payload,
		valid:      payload != nil,
		unloadable: true,
	}
}

// Synthesized returns a valid Resource for a pseudo-resource that required
// no bytes to produce (for example a directory handle). Synthesized
// resources are deregistered on unload but skip the backend release hook.
func Synthesized(path string, typ Type, payload any) *Resource {
	return &Resource{
		path:       path,
		typ:        typ,
		payload:    payload,
		valid:      payload != nil,
		unloadable: false,
	}
}

// Invalid returns an invalid Resource for a load that could not produce a
// payload. The handle still records the path and requested type so callers
// can report what was asked for.
func Invalid(path string, typ Type) *Resource {
	return &Resource{path: path, typ: typ}
}

// Path returns the logical path the resource is registered under.
func (r *Resource) Path() string {
	return r.path
}

// Type returns the type descriptor the resource was loaded as.
func (r *Resource) Type() Type {
	return r.typ
}

// Payload returns the typed payload, or nil for an invalid resource.
func (r *Resource) Payload() any {
	return r.payload
}

// Valid reports whether the payload is present and well-formed.
func (r *Resource) Valid() bool {
	return r.valid
}

// Unloadable reports whether unloading should run the backend release hook.
func (r *Resource) Unloadable() bool {
	return r.unloadable
}

// As extracts the payload as T. It returns the zero value and false when the
// resource is invalid or the payload is not a T.
func As[T any](r *Resource) (T, bool) {
	var zero T
	if r == nil || !r.valid {
		return zero, false
	}
	v, ok := r.payload.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Releaser is implemented by payloads that hold backend-native handles and
// need explicit release on unload. Plain data payloads are reclaimed by the
// garbage collector and do not implement it.
type Releaser interface {
	Release() error
}
