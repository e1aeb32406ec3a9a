// Package backend defines the contract between the resource provider and
// interchangeable storage backends.
package backend

import (
	"context"

	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

// Result is the outcome of a backend fetch: either raw bytes for the
// converter, or a typed object produced by a type-specialized transport.
// Exactly one of Data and Native is set.
type Result struct {
	// Data holds the raw bytes to hand to the converter.
	Data []byte

	// Native holds a typed object produced directly by the backend,
	// skipping the generic byte path. Converters with the NativeConverter
	// capability may refine it further.
	Native any

	// FromCache reports whether the bytes were served from a local cache
	// without contacting the underlying store.
	FromCache bool
}

// Backend locates and fetches objects behind logical paths.
//
// Backends never touch the provider's registries; they produce bytes or
// native objects and release payloads when asked. All operations respect
// context cancellation - a cancelled fetch must release any in-flight
// transport resources before returning.
type Backend interface {
	// Name identifies the backend in logs and errors: "local", "remote".
	Name() string

	// Exists checks whether the path resolves to an object, probing the
	// converter's representations in declared order. It never populates
	// any registry or cache.
	Exists(ctx context.Context, path string, conv convert.Converter) (bool, error)

	// List enumerates the logical paths under a folder that match the
	// converter's representations. Order is backend-defined but stable
	// within one call.
	List(ctx context.Context, folder string, conv convert.Converter) ([]string, error)

	// Fetch produces the raw bytes or native object for a path. A path
	// that resolves to nothing returns an error wrapping
	// resource.ErrResolution; transport problems wrap
	// resource.ErrTransport.
	Fetch(ctx context.Context, path string, conv convert.Converter) (*Result, error)

	// Release frees a loaded payload. Payloads implementing
	// resource.Releaser get their hook invoked; plain data payloads are a
	// no-op.
	Release(ctx context.Context, path string, payload any) error
}

// ReleasePayload runs the resource.Releaser hook when the payload carries
// one. Shared by backend implementations.
func ReleasePayload(payload any) error {
	if rel, ok := payload.(resource.Releaser); ok {
		return rel.Release()
	}
	return nil
}
