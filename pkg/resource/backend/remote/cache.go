package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/assetflow/assetflow/internal/logger"
	"github.com/assetflow/assetflow/pkg/cachedb"
)

// pathToken replaces path separators in cache filenames so the cache stays a
// flat directory.
const pathToken = "__"

// CacheStats summarizes the state of the disk cache.
type CacheStats struct {
	// Files is the number of cached payload files on disk.
	Files int `json:"files"`

	// Bytes is the total size of the cached payload files.
	Bytes int64 `json:"bytes"`

	// Records is the number of identity records in the bookkeeping store.
	Records int `json:"records"`
}

// diskCache stores fetched payloads as flat files keyed by remote content
// identity, with identity records kept in badger for bookkeeping.
//
// Cached files are trusted at read time: a hit is served without contacting
// the remote store, and the only way to drop stale entries is Purge.
type diskCache struct {
	dir string
	db  *cachedb.DB
}

func newDiskCache(dir string, db *cachedb.DB) (*diskCache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &diskCache{dir: dir, db: db}, nil
}

// fileName derives the cache filename for a logical path. Path separators
// become a fixed token so nested logical paths flatten into one directory.
func (c *diskCache) fileName(identity, logicalPath string) string {
	flat := strings.ReplaceAll(logicalPath, "/", pathToken)
	return identity + "-" + flat
}

// Read returns the cached payload for the identity, or found=false on a miss.
func (c *diskCache) Read(identity, logicalPath string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, c.fileName(identity, logicalPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Write persists the payload under the identity and records the identity in
// the bookkeeping store. The file lands atomically via a temp file rename so
// a crashed write never leaves a partial entry behind.
func (c *diskCache) Write(ctx context.Context, identity, logicalPath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, ".write-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}

	final := filepath.Join(c.dir, c.fileName(identity, logicalPath))
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("finalize cache file: %w", err)
	}

	if c.db != nil {
		if err := c.db.Put(ctx, identity, logicalPath); err != nil {
			// The payload file is already in place and serves hits on its
			// own; a missing record only skews statistics.
			logger.Warn("cache record write failed",
				logger.Identity(identity),
				logger.Path(logicalPath),
				logger.Err(err))
		}
	}
	return nil
}

// Purge removes every cached file and drops all identity records.
// Idempotent.
func (c *diskCache) Purge(ctx context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return fmt.Errorf("remove cache file %q: %w", entry.Name(), err)
		}
	}

	if c.db != nil {
		if err := c.db.Purge(ctx); err != nil {
			return fmt.Errorf("purge cache records: %w", err)
		}
	}
	return nil
}

// Stats reports cached file count, total bytes, and record count.
func (c *diskCache) Stats(ctx context.Context) (CacheStats, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return CacheStats{}, fmt.Errorf("read cache directory: %w", err)
	}

	var stats CacheStats
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".write-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Files++
		stats.Bytes += info.Size()
	}

	if c.db != nil {
		records, err := c.db.Count(ctx)
		if err != nil {
			return CacheStats{}, err
		}
		stats.Records = records
	}
	return stats, nil
}
