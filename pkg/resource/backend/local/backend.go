// Package local provides a filesystem-backed resource backend.
// Logical paths resolve directly to files under a fixed root directory.
package local

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/backend"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

// Config holds configuration for the local backend.
type Config struct {
	// Root is the directory logical paths resolve under.
	Root string

	// CreateDir creates the root directory if it doesn't exist.
	// Default: false.
	CreateDir bool
}

// Backend is the filesystem implementation of backend.Backend.
type Backend struct {
	root string
}

// New creates a local backend rooted at cfg.Root.
func New(cfg Config) (*Backend, error) {
	if cfg.Root == "" {
		return nil, errors.New("root directory is required")
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.Root, 0755); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("root is not a directory")
	}

	return &Backend{root: cfg.Root}, nil
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "local" }

// resolve maps a logical path to a filesystem location under the root.
// Paths escaping the root are rejected.
func (b *Backend) resolve(path string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(path))
	if full != b.root && !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", errors.New("path escapes backend root")
	}
	return full, nil
}

// probe locates the file for a logical path by trying the converter's
// representations in declared order. Returns the resolved filesystem path.
func (b *Backend) probe(ctx context.Context, path string, conv convert.Converter) (string, bool, error) {
	for _, rep := range conv.Representations() {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}

		full, err := b.resolve(path + rep.Ext)
		if err != nil {
			return "", false, err
		}

		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", false, err
		}
		if info.IsDir() {
			continue
		}
		return full, true, nil
	}
	return "", false, nil
}

// Exists implements backend.Backend.
func (b *Backend) Exists(ctx context.Context, path string, conv convert.Converter) (bool, error) {
	_, found, err := b.probe(ctx, path, conv)
	return found, err
}

// Fetch implements backend.Backend by reading the first matching file.
func (b *Backend) Fetch(ctx context.Context, path string, conv convert.Converter) (*backend.Result, error) {
	full, found, err := b.probe(ctx, path, conv)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, resource.NewLoadError("probe", path, conv.Type(), b.Name(), resource.ErrResolution)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, resource.NewLoadError("fetch", path, conv.Type(), b.Name(), errors.Join(resource.ErrTransport, err))
	}
	return &backend.Result{Data: data}, nil
}

// List implements backend.Backend. It walks the folder under the root and
// returns extension-stripped logical paths for files matching the
// converter's representations, sorted by the walk order (lexicographic).
func (b *Backend) List(ctx context.Context, folder string, conv convert.Converter) ([]string, error) {
	base, err := b.resolve(folder)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(base); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string

	err = filepath.WalkDir(base, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(b.root, full)
		if err != nil {
			return err
		}
		logical := filepath.ToSlash(rel)

		for _, rep := range conv.Representations() {
			if rep.Ext == "" || !strings.HasSuffix(logical, rep.Ext) {
				continue
			}
			trimmed := strings.TrimSuffix(logical, rep.Ext)
			if !seen[trimmed] {
				seen[trimmed] = true
				paths = append(paths, trimmed)
			}
			break
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Release implements backend.Backend. Payloads holding native handles run
// their release hook; plain data payloads are reclaimed by normal memory
// management.
func (b *Backend) Release(ctx context.Context, path string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return backend.ReleasePayload(payload)
}

var _ backend.Backend = (*Backend)(nil)
