// Package remote implements the backend that loads resources from a remote
// object store through a content-identity-keyed disk cache.
//
// Probing, identity, and bytes come from the store; the cache only ever
// grows until an explicit purge. A cached file is trusted at read time, so
// repeated loads of an unchanged object cost one Stat round-trip and no
// download.
package remote

import (
	"context"
	"errors"
	"strings"

	"github.com/assetflow/assetflow/internal/logger"
	"github.com/assetflow/assetflow/pkg/cachedb"
	"github.com/assetflow/assetflow/pkg/metrics"
	remotestore "github.com/assetflow/assetflow/pkg/remote"
	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/backend"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

// Config holds configuration for the remote backend.
type Config struct {
	// Store is the remote object store.
	Store remotestore.Store

	// CacheDir is the directory holding cached payload files.
	CacheDir string

	// DB is the identity record store for cache bookkeeping. Optional:
	// nil disables record keeping, the payload cache still works.
	DB *cachedb.DB

	// Metrics receives fetch and cache counters. Optional.
	Metrics *metrics.Metrics
}

// Backend is the remote-store implementation of backend.Backend.
type Backend struct {
	store   remotestore.Store
	cache   *diskCache
	db      *cachedb.DB
	metrics *metrics.Metrics
}

// New creates a remote backend with the given configuration.
func New(cfg Config) (*Backend, error) {
	if cfg.Store == nil {
		return nil, errors.New("remote store is required")
	}

	cache, err := newDiskCache(cfg.CacheDir, cfg.DB)
	if err != nil {
		return nil, err
	}

	return &Backend{
		store:   cfg.Store,
		cache:   cache,
		db:      cfg.DB,
		metrics: cfg.Metrics,
	}, nil
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "remote" }

// probe locates the remote object for a logical path by trying the
// converter's representations in declared order. The first existing object
// wins; its representation decides how the bytes are fetched later.
func (b *Backend) probe(ctx context.Context, path string, conv convert.Converter) (remotestore.ObjectInfo, convert.Representation, bool, error) {
	for _, rep := range conv.Representations() {
		if err := ctx.Err(); err != nil {
			return remotestore.ObjectInfo{}, convert.Representation{}, false, err
		}

		info, err := b.store.Stat(ctx, path+rep.Ext)
		if err != nil {
			if errors.Is(err, remotestore.ErrObjectNotFound) {
				continue
			}
			return remotestore.ObjectInfo{}, convert.Representation{}, false,
				resource.NewLoadError("probe", path, conv.Type(), b.Name(), errors.Join(resource.ErrTransport, err))
		}
		return info, rep, true, nil
	}
	return remotestore.ObjectInfo{}, convert.Representation{}, false, nil
}

// Exists implements backend.Backend by probing the store directly. The
// answer reflects the remote store, not the cache or any load state.
func (b *Backend) Exists(ctx context.Context, path string, conv convert.Converter) (bool, error) {
	_, _, found, err := b.probe(ctx, path, conv)
	return found, err
}

// Fetch implements backend.Backend.
//
// The sequence is: probe the store for the object and its content identity,
// serve from the disk cache on identity match, otherwise try the store's
// native transport, and finally download (or export) the bytes and cache
// them. A failed cache write degrades to a warning: the payload is already
// in hand and the next load simply fetches again.
func (b *Backend) Fetch(ctx context.Context, path string, conv convert.Converter) (*backend.Result, error) {
	info, rep, found, err := b.probe(ctx, path, conv)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, resource.NewLoadError("probe", path, conv.Type(), b.Name(), resource.ErrResolution)
	}

	if info.ID != "" {
		data, hit, err := b.cache.Read(info.ID, path)
		if err != nil {
			logger.Warn("cache read failed",
				logger.Path(path),
				logger.Identity(info.ID),
				logger.Err(err))
		}
		if hit {
			b.metrics.RecordCacheHit()
			logger.Debug("load served from cache",
				logger.Path(path),
				logger.Identity(info.ID),
				logger.Size(len(data)))
			return &backend.Result{Data: data, FromCache: true}, nil
		}
		b.metrics.RecordCacheMiss()
	}

	if nc, ok := conv.(convert.NativeConverter); ok {
		if fetcher, ok := b.store.(remotestore.NativeFetcher); ok {
			native, served, err := fetcher.FetchNative(ctx, info.Name, nc.Type())
			if err != nil {
				return nil, resource.NewLoadError("fetch", path, conv.Type(), b.Name(), errors.Join(resource.ErrTransport, err))
			}
			if served {
				b.metrics.RecordRemoteFetch()
				return &backend.Result{Native: native}, nil
			}
		}
	}

	data, err := b.download(ctx, info.Name, rep)
	if err != nil {
		return nil, resource.NewLoadError("fetch", path, conv.Type(), b.Name(), errors.Join(resource.ErrTransport, err))
	}
	b.metrics.RecordRemoteFetch()

	// A cancelled load must leave no trace, so the cache write is skipped
	// once the context is done.
	if info.ID != "" && ctx.Err() == nil {
		if err := b.cache.Write(ctx, info.ID, path, data); err != nil {
			logger.Warn("cache write failed",
				logger.Path(path),
				logger.Identity(info.ID),
				logger.Err(errors.Join(resource.ErrCacheWrite, err)))
		}
	}

	return &backend.Result{Data: data}, nil
}

// download retrieves object bytes. When the representation asks for a format
// conversion, store-side export is used if available. Export is an
// alternative transport, not a requirement: a store without the capability,
// or one that declines the requested format, serves the stored bytes
// directly.
func (b *Backend) download(ctx context.Context, name string, rep convert.Representation) ([]byte, error) {
	if rep.ExportFormat != "" {
		if exporter, ok := b.store.(remotestore.Exporter); ok {
			data, err := exporter.Export(ctx, name, rep.ExportFormat)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, remotestore.ErrNotSupported) {
				return nil, err
			}
			logger.Debug("store declined export, downloading stored bytes",
				logger.KeyFormat, rep.ExportFormat)
		}
	}
	return b.store.Get(ctx, name)
}

// List implements backend.Backend. Store object names under the folder are
// filtered by the converter's representations and returned with extensions
// stripped, in store order.
func (b *Backend) List(ctx context.Context, folder string, conv convert.Converter) ([]string, error) {
	prefix := folder
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	names, err := b.store.List(ctx, prefix)
	if err != nil {
		return nil, resource.NewLoadError("list", folder, conv.Type(), b.Name(), errors.Join(resource.ErrTransport, err))
	}

	seen := make(map[string]bool)
	var paths []string
	for _, name := range names {
		for _, rep := range conv.Representations() {
			if rep.Ext == "" || !strings.HasSuffix(name, rep.Ext) {
				continue
			}
			trimmed := strings.TrimSuffix(name, rep.Ext)
			if !seen[trimmed] {
				seen[trimmed] = true
				paths = append(paths, trimmed)
			}
			break
		}
	}
	return paths, nil
}

// Release implements backend.Backend.
func (b *Backend) Release(ctx context.Context, path string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return backend.ReleasePayload(payload)
}

// Purge empties the disk cache and its identity records. This is the only
// cache invalidation mechanism.
func (b *Backend) Purge(ctx context.Context) error {
	if err := b.cache.Purge(ctx); err != nil {
		return err
	}
	b.metrics.RecordPurge()
	logger.Info("cache purged")
	return nil
}

// CacheStats reports the current disk cache state.
func (b *Backend) CacheStats(ctx context.Context) (CacheStats, error) {
	return b.cache.Stats(ctx)
}

// Close closes the remote store and the identity record store.
func (b *Backend) Close() error {
	storeErr := b.store.Close()
	if b.db != nil {
		return errors.Join(storeErr, b.db.Close())
	}
	return storeErr
}

var _ backend.Backend = (*Backend)(nil)
