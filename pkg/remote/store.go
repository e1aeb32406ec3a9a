// Package remote defines the object-store contract consumed by the remote
// backend. Implementations expose remote object identity, bytes, and
// enumeration; optional capabilities add export conversion and
// type-specialized native transport.
package remote

import (
	"context"
	"errors"

	"github.com/assetflow/assetflow/pkg/resource"
)

// Standard store errors.
var (
	// ErrObjectNotFound indicates no object exists under the probed name.
	ErrObjectNotFound = errors.New("remote object not found")

	// ErrNotSupported indicates the store does not implement the requested
	// capability (for example export conversion).
	ErrNotSupported = errors.New("operation not supported")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store is closed")
)

// ObjectInfo describes a remote object.
type ObjectInfo struct {
	// Name is the full remote object name, including any extension.
	Name string

	// ID is the content identity issued by the store for this object
	// version. Identities are stable per version and survive path reuse,
	// which is why the local cache is keyed by them.
	ID string

	// Size is the object size in bytes, when the store reports it.
	Size int64
}

// Store is the minimal remote object-store contract.
//
// Implementations must be safe for concurrent use and must respect context
// cancellation on every call.
type Store interface {
	// Stat returns metadata for the named object.
	// Returns ErrObjectNotFound if the object does not exist.
	Stat(ctx context.Context, name string) (ObjectInfo, error)

	// Get downloads the object's bytes.
	// Returns ErrObjectNotFound if the object does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns the object names under the given prefix, in a stable
	// store-defined order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases transport resources. The connection pool is owned by
	// the store and never shared across instances.
	Close() error
}

// Exporter is an optional capability for stores that can render an object
// into a requested format server-side instead of serving stored bytes.
type Exporter interface {
	Export(ctx context.Context, name, format string) ([]byte, error)
}

// NativeFetcher is an optional capability for stores with a
// type-specialized transport that yields a typed object directly, skipping
// the generic byte path. The boolean result reports whether the store could
// serve the (name, type) pair natively; false falls back to bytes.
type NativeFetcher interface {
	FetchNative(ctx context.Context, name string, typ resource.Type) (any, bool, error)
}
