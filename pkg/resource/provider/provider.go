// Package provider implements the backend-agnostic resource provider: the
// public load/unload API, the per-path registry with in-flight deduplication,
// and aggregate progress reporting.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/assetflow/assetflow/internal/logger"
	"github.com/assetflow/assetflow/pkg/metrics"
	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/backend"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

// loadAllConcurrency bounds parallel loads issued by LoadAll.
const loadAllConcurrency = 8

// pathEntry is the tagged per-path registry value: a path is either Loading
// (runner set) or Loaded (res set), never both. The single table makes the
// at-most-one invariant structural.
type pathEntry struct {
	runner *loadRunner
	res    *resource.Resource
}

// Provider is the public resource-loading API.
//
// It owns the per-path registry and is its only writer: backends and
// converters never mutate it. All registry changes happen either under the
// provider mutex in a request path or in the runner completion handler,
// which runs before the runner's waiters are released.
type Provider struct {
	backend  backend.Backend
	registry *convert.Registry
	metrics  *metrics.Metrics
	progress *progressNotifier

	mu      sync.Mutex
	entries map[string]*pathEntry
	loading int // entries currently in the Loading state
}

// New creates a Provider over the given backend and converter registry.
// Metrics may be nil to disable instrumentation.
func New(b backend.Backend, reg *convert.Registry, m *metrics.Metrics) (*Provider, error) {
	if b == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("converter registry is required")
	}

	return &Provider{
		backend:  b,
		registry: reg,
		metrics:  m,
		progress: newProgressNotifier(),
		entries:  make(map[string]*pathEntry),
	}, nil
}

// Load returns the resource registered under path, loading it if necessary.
//
// An already-loaded path returns synchronously. A path with an outstanding
// runner attaches to it and waits - at most one concurrent fetch per path.
// Otherwise a new runner is registered and started.
//
// Backend and converter failures produce an invalid resource, not an error;
// callers check Valid. Only configuration problems (no converter registered,
// a type mismatch with an already-loaded path) and caller-context
// cancellation return errors.
func (p *Provider) Load(ctx context.Context, path string, typ resource.Type) (*resource.Resource, error) {
	conv, err := p.registry.Resolve(typ)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	p.mu.Lock()
	if e, ok := p.entries[path]; ok {
		if e.res != nil {
			res := e.res
			p.mu.Unlock()
			if res.Type() != typ {
				return nil, resource.NewLoadError("load", path, typ, p.backend.Name(), resource.ErrTypeMismatch)
			}
			return res, nil
		}

		r := e.runner
		p.mu.Unlock()
		if r.typ != typ {
			return nil, resource.NewLoadError("load", path, typ, p.backend.Name(), resource.ErrTypeMismatch)
		}
		return r.wait(ctx)
	}

	r := newLoadRunner(path, typ, conv)
	p.entries[path] = &pathEntry{runner: r}
	p.loading++
	p.metrics.SetOutstanding(p.loading)
	p.progress.recompute(p.loading)
	p.mu.Unlock()

	r.start(p.backend, p.finishRunner)

	res, err := r.wait(ctx)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveLoad(typ.String(), time.Since(start), validityErr(res))
	return res, nil
}

// validityErr maps an invalid resource to a non-nil error for metrics only.
func validityErr(res *resource.Resource) error {
	if res.Valid() {
		return nil
	}
	return resource.ErrResolution
}

// finishRunner moves a finished runner's result into the registry and
// recomputes progress. It runs on the runner goroutine before waiters are
// released, preserving the ordering guarantee that registry updates precede
// the path becoming observable in its next state.
func (p *Provider) finishRunner(r *loadRunner) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[r.path]; ok && e.runner == r {
		p.loading--
		switch r.State() {
		case stateCancelled:
			// Cancellation returns the path to Unloaded directly.
			delete(p.entries, r.path)
		default:
			// Completed and failed loads both register the resource; a
			// failed load leaves an invalid handle that callers detect via
			// Valid, cleared by Unload.
			e.runner = nil
			e.res = r.result
		}
		p.metrics.SetOutstanding(p.loading)
		p.progress.recompute(p.loading)
	}
}

// LoadAll loads every resource under folder that matches the type's
// representations. Individual loads follow the same deduplication rules as
// Load. The returned slice preserves the backend's enumeration order.
func (p *Provider) LoadAll(ctx context.Context, folder string, typ resource.Type) ([]*resource.Resource, error) {
	conv, err := p.registry.Resolve(typ)
	if err != nil {
		return nil, err
	}

	paths, err := p.backend.List(ctx, folder, conv)
	if err != nil {
		return nil, resource.NewLoadError("list", folder, typ, p.backend.Name(), err)
	}

	results := make([]*resource.Resource, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadAllConcurrency)

	for i, path := range paths {
		g.Go(func() error {
			res, err := p.Load(gctx, path, typ)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Exists checks whether path resolves to an object in the backend without
// loading it. The registry is never consulted or populated: existence is
// backend-derived and independent of local load state.
func (p *Provider) Exists(ctx context.Context, path string, typ resource.Type) (bool, error) {
	conv, err := p.registry.Resolve(typ)
	if err != nil {
		return false, err
	}
	return p.backend.Exists(ctx, path, conv)
}

// Unload removes the resource registered under path.
//
// An outstanding runner is cancelled first and its completion awaited, so no
// half-applied state survives: a cancelled runner writes no cache entry and
// removes itself from the registry. A loaded resource is deregistered and
// its payload handed to the backend release hook. Unloading a path that is
// neither loaded nor loading logs a warning and is not an error.
func (p *Provider) Unload(ctx context.Context, path string) error {
	p.mu.Lock()
	e, ok := p.entries[path]
	if !ok {
		p.mu.Unlock()
		logger.Warn("unload requested for unknown resource", logger.KeyPath, path)
		return nil
	}

	if r := e.runner; r != nil {
		p.mu.Unlock()

		r.cancel()
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		// The runner may have completed before cancellation took effect, in
		// which case the path is now Loaded and still needs removal.
		p.mu.Lock()
		e, ok = p.entries[path]
		if !ok || e.res == nil {
			p.mu.Unlock()
			return nil
		}
	}

	res := e.res
	delete(p.entries, path)
	p.mu.Unlock()

	if !res.Unloadable() {
		return nil
	}
	if err := p.backend.Release(ctx, path, res.Payload()); err != nil {
		return resource.NewLoadError("unload", path, res.Type(), p.backend.Name(), err)
	}
	return nil
}

// Progress returns the aggregate load progress in [0, 1]. It is exactly 1.0
// when no runner is outstanding and strictly less than 1.0 otherwise.
func (p *Provider) Progress() float64 {
	return p.progress.Value()
}

// SubscribeProgress registers a callback invoked once per distinct progress
// value, in recomputation order. The returned function unsubscribes.
// Callbacks run synchronously and must not call back into the Provider.
func (p *Provider) SubscribeProgress(fn func(float64)) func() {
	return p.progress.Subscribe(fn)
}

// Loaded returns the sorted logical paths currently in the Loaded state.
func (p *Provider) Loaded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	paths := make([]string, 0, len(p.entries))
	for path, e := range p.entries {
		if e.res != nil {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Outstanding returns the number of loads currently in flight.
func (p *Provider) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}
