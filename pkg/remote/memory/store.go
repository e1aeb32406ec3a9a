// Package memory provides an in-memory remote store used by tests and local
// development. It counts store traffic so tests can assert fetch behavior.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/assetflow/assetflow/pkg/remote"
	"github.com/assetflow/assetflow/pkg/resource"
)

type object struct {
	data []byte
	id   string
}

type nativeKey struct {
	name string
	typ  resource.Type
}

// Store is an in-memory implementation of remote.Store, remote.Exporter,
// and remote.NativeFetcher.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	natives map[nativeKey]any
	closed  bool

	// Traffic counters, readable while the store is in use.
	statCalls   map[string]int
	getCalls    map[string]int
	exportCalls map[string]int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objects:     make(map[string]object),
		natives:     make(map[nativeKey]any),
		statCalls:   make(map[string]int),
		getCalls:    make(map[string]int),
		exportCalls: make(map[string]int),
	}
}

// Put stores an object and issues it a fresh content identity. Re-putting a
// name models a new object version: the identity changes.
func (s *Store) Put(name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[name] = object{data: buf, id: id}
	return id
}

// Delete removes an object.
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, name)
}

// PutNative registers a typed object served by the native transport for the
// given (name, type) pair.
func (s *Store) PutNative(name string, typ resource.Type, obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.natives[nativeKey{name: name, typ: typ}] = obj
}

// Stat implements remote.Store.
func (s *Store) Stat(ctx context.Context, name string) (remote.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return remote.ObjectInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return remote.ObjectInfo{}, remote.ErrStoreClosed
	}
	s.statCalls[name]++

	obj, ok := s.objects[name]
	if !ok {
		return remote.ObjectInfo{}, remote.ErrObjectNotFound
	}
	return remote.ObjectInfo{Name: name, ID: obj.id, Size: int64(len(obj.data))}, nil
}

// Get implements remote.Store.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, remote.ErrStoreClosed
	}
	s.getCalls[name]++

	obj, ok := s.objects[name]
	if !ok {
		return nil, remote.ErrObjectNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

// List implements remote.Store. Names are returned sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, remote.ErrStoreClosed
	}

	var names []string
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Export implements remote.Exporter. The in-memory store has no real export
// pipeline; it serves the stored bytes and records that the export path was
// taken.
func (s *Store) Export(ctx context.Context, name, format string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, remote.ErrStoreClosed
	}
	s.exportCalls[name]++

	obj, ok := s.objects[name]
	if !ok {
		return nil, remote.ErrObjectNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

// FetchNative implements remote.NativeFetcher.
func (s *Store) FetchNative(ctx context.Context, name string, typ resource.Type) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, remote.ErrStoreClosed
	}

	obj, ok := s.natives[nativeKey{name: name, typ: typ}]
	return obj, ok, nil
}

// Close implements remote.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// StatCount returns how many Stat calls the named object received.
func (s *Store) StatCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statCalls[name]
}

// GetCount returns how many Get calls the named object received.
func (s *Store) GetCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCalls[name]
}

// ExportCount returns how many Export calls the named object received.
func (s *Store) ExportCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportCalls[name]
}

// TotalFetches returns the total number of Get and Export calls.
func (s *Store) TotalFetches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, n := range s.getCalls {
		total += n
	}
	for _, n := range s.exportCalls {
		total += n
	}
	return total
}

// Capability assertions.
var (
	_ remote.Store         = (*Store)(nil)
	_ remote.Exporter      = (*Store)(nil)
	_ remote.NativeFetcher = (*Store)(nil)
)
