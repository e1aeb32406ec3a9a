// Package convert defines the converter contract and the type-keyed registry
// that turns raw backend bytes into typed payloads.
package convert

import (
	"fmt"
	"sort"
	"sync"

	"github.com/assetflow/assetflow/pkg/resource"
)

// Representation is a storage-level hint for locating an object behind a
// logical path. Backends probe representations in declared order and stop at
// the first match.
type Representation struct {
	// Ext is the filename extension appended to the logical path when
	// probing storage. An empty Ext probes the path as-is.
	Ext string

	// ExportFormat names a store-side export conversion for stores that can
	// render native objects into bytes. Empty means plain download.
	ExportFormat string
}

// Converter produces a typed payload from raw bytes for one target type.
//
// Implementations must be safe for concurrent use: a single converter
// instance serves every load of its type.
type Converter interface {
	// Type returns the type descriptor this converter produces.
	Type() resource.Type

	// Representations returns the ordered storage hints probed by backends.
	Representations() []Representation

	// Convert builds the typed payload from raw bytes. The path is provided
	// for diagnostics only.
	Convert(path string, data []byte) (any, error)
}

// NativeConverter is an optional capability for converters that can accept a
// backend-native object directly, skipping the raw-byte path. Backends check
// for it with a type assertion; it is a capability, not a hierarchy.
type NativeConverter interface {
	Converter

	// ConvertNative builds the typed payload from a backend-native object.
	ConvertNative(path string, native any) (any, error)
}

// Synthesizer is an optional capability for pseudo-resource converters whose
// payload requires no bytes at all (for example directory handles). The load
// runner calls Synthesize directly and never touches the backend.
type Synthesizer interface {
	Converter

	// Synthesize produces the payload from the logical path alone.
	Synthesize(path string) (any, error)
}

// Registry maps target types to converters.
//
// At most one converter may be registered per type. Lookup of an
// unregistered type is a configuration error surfaced as ErrNoConverter at
// the call site, never swallowed.
type Registry struct {
	mu     sync.RWMutex
	byType map[resource.Type]Converter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[resource.Type]Converter)}
}

// NewDefaultRegistry returns a registry populated with the builtin
// converters: bytes, text, json, yaml, sprite, and directory.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Converter{
		&BytesConverter{},
		&TextConverter{},
		&JSONConverter{},
		&YAMLConverter{},
		&SpriteConverter{},
		&DirectoryConverter{},
	} {
		// Builtin types are distinct; Register cannot fail here.
		_ = r.Register(c)
	}
	return r
}

// Register adds a converter. Registering a second converter for the same
// type is an error.
func (r *Registry) Register(c Converter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ := c.Type()
	if _, exists := r.byType[typ]; exists {
		return fmt.Errorf("converter for type %q already registered", typ)
	}
	r.byType[typ] = c
	return nil
}

// Resolve returns the converter for the given type.
// Returns an error wrapping resource.ErrNoConverter when none is registered.
func (r *Registry) Resolve(typ resource.Type) (Converter, error) {
	r.mu.RLock()
	c, ok := r.byType[typ]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", resource.ErrNoConverter, typ)
	}
	return c, nil
}

// Types returns the registered type descriptors in sorted order.
func (r *Registry) Types() []resource.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]resource.Type, 0, len(r.byType))
	for typ := range r.byType {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
