package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetflow/assetflow/pkg/cachedb"
	remotestore "github.com/assetflow/assetflow/pkg/remote"
	"github.com/assetflow/assetflow/pkg/remote/memory"
	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

// plainStore narrows a memory store to the base Store contract, modeling a
// store without the export or native-transport capabilities.
type plainStore struct {
	inner *memory.Store
}

func (s *plainStore) Stat(ctx context.Context, name string) (remotestore.ObjectInfo, error) {
	return s.inner.Stat(ctx, name)
}

func (s *plainStore) Get(ctx context.Context, name string) ([]byte, error) {
	return s.inner.Get(ctx, name)
}

func (s *plainStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *plainStore) Close() error { return s.inner.Close() }

var _ remotestore.Store = (*plainStore)(nil)

func newTestBackend(t *testing.T) (*Backend, *memory.Store, string) {
	t.Helper()

	store := memory.New()
	cacheDir := t.TempDir()

	db, err := cachedb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b, err := New(Config{Store: store, CacheDir: cacheDir, DB: db})
	require.NoError(t, err)
	return b, store, cacheDir
}

func cacheFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetchDownloadsAndCaches(t *testing.T) {
	b, store, cacheDir := newTestBackend(t)
	ctx := context.Background()
	conv := &convert.TextConverter{}

	store.Put("docs/readme.txt", []byte("hello"))

	res, err := b.Fetch(ctx, "docs/readme", conv)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), res.Data)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, store.TotalFetches())
	require.Len(t, cacheFiles(t, cacheDir), 1)

	// Second fetch is a cache hit: one Stat round-trip, no download.
	res, err = b.Fetch(ctx, "docs/readme", conv)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), res.Data)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, store.TotalFetches())
	assert.Equal(t, 2, store.StatCount("docs/readme.txt"))
}

func TestCacheFileNameFlattensPath(t *testing.T) {
	b, store, cacheDir := newTestBackend(t)

	id := store.Put("sprites/deep/hero.txt", []byte("x"))

	_, err := b.Fetch(context.Background(), "sprites/deep/hero", &convert.TextConverter{})
	require.NoError(t, err)

	files := cacheFiles(t, cacheDir)
	require.Len(t, files, 1)
	assert.Equal(t, id+"-sprites__deep__hero", files[0])
	assert.NotContains(t, files[0], "/")
}

func TestNewIdentityBypassesOldCacheEntry(t *testing.T) {
	b, store, cacheDir := newTestBackend(t)
	ctx := context.Background()
	conv := &convert.TextConverter{}

	store.Put("doc.txt", []byte("v1"))
	_, err := b.Fetch(ctx, "doc", conv)
	require.NoError(t, err)

	// A new object version has a new identity, so the stale entry is simply
	// never consulted again.
	store.Put("doc.txt", []byte("v2"))

	res, err := b.Fetch(ctx, "doc", conv)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), res.Data)
	assert.False(t, res.FromCache)
	assert.Equal(t, 2, store.TotalFetches())
	assert.Len(t, cacheFiles(t, cacheDir), 2)
}

func TestFetchMissingIsResolutionError(t *testing.T) {
	b, _, _ := newTestBackend(t)

	_, err := b.Fetch(context.Background(), "missing", &convert.TextConverter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, resource.ErrResolution))

	var loadErr *resource.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "remote", loadErr.Backend)
}

func TestExistsProbesStoreOnly(t *testing.T) {
	b, store, _ := newTestBackend(t)
	ctx := context.Background()
	conv := &convert.TextConverter{}

	store.Put("doc.txt", []byte("x"))

	ok, err := b.Exists(ctx, "doc", conv)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Exists(ctx, "absent", conv)
	require.NoError(t, err)
	assert.False(t, ok)

	// Existence never populates the cache.
	stats, err := b.CacheStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Files)
}

func TestExportPathForConvertedRepresentations(t *testing.T) {
	b, store, _ := newTestBackend(t)

	// Sprite representations declare an export format, so the fetch goes
	// through the store's export pipeline rather than a plain download.
	store.Put("hero.png", []byte("png-bytes"))

	res, err := b.Fetch(context.Background(), "hero", &convert.SpriteConverter{})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), res.Data)
	assert.Equal(t, 1, store.ExportCount("hero.png"))
	assert.Zero(t, store.GetCount("hero.png"))
}

func TestFetchWithoutExportCapabilityDownloads(t *testing.T) {
	inner := memory.New()
	cacheDir := t.TempDir()

	b, err := New(Config{Store: &plainStore{inner: inner}, CacheDir: cacheDir})
	require.NoError(t, err)

	// The sprite representations declare an export format, but a store
	// without the capability still serves the stored bytes.
	inner.Put("hero.png", []byte("png-bytes"))

	res, err := b.Fetch(context.Background(), "hero", &convert.SpriteConverter{})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), res.Data)
	assert.Equal(t, 1, inner.GetCount("hero.png"))
	assert.Zero(t, inner.ExportCount("hero.png"))
	require.Len(t, cacheFiles(t, cacheDir), 1)
}

// decliningExportStore implements the export capability but refuses every
// format, as a store might for a conversion it cannot render.
type decliningExportStore struct {
	*memory.Store
}

func (s *decliningExportStore) Export(ctx context.Context, name, format string) ([]byte, error) {
	return nil, remotestore.ErrNotSupported
}

func TestFetchFallsBackWhenExportDeclined(t *testing.T) {
	inner := memory.New()

	b, err := New(Config{Store: &decliningExportStore{Store: inner}, CacheDir: t.TempDir()})
	require.NoError(t, err)

	inner.Put("hero.png", []byte("png-bytes"))

	res, err := b.Fetch(context.Background(), "hero", &convert.SpriteConverter{})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), res.Data)
	assert.Equal(t, 1, inner.GetCount("hero.png"))
}

func TestNativeTransport(t *testing.T) {
	b, store, cacheDir := newTestBackend(t)

	sprite := &convert.Sprite{Format: "png"}
	store.Put("hero.png", []byte("png-bytes"))
	store.PutNative("hero.png", convert.TypeSprite, sprite)

	res, err := b.Fetch(context.Background(), "hero", &convert.SpriteConverter{})
	require.NoError(t, err)
	assert.Same(t, sprite, res.Native)
	assert.Nil(t, res.Data)

	// Native objects bypass the byte cache entirely.
	assert.Empty(t, cacheFiles(t, cacheDir))
}

func TestPurgeEmptiesCacheAndRefetches(t *testing.T) {
	b, store, cacheDir := newTestBackend(t)
	ctx := context.Background()
	conv := &convert.TextConverter{}

	store.Put("a.txt", []byte("a"))
	store.Put("b.txt", []byte("b"))

	_, err := b.Fetch(ctx, "a", conv)
	require.NoError(t, err)
	_, err = b.Fetch(ctx, "b", conv)
	require.NoError(t, err)
	require.Len(t, cacheFiles(t, cacheDir), 2)

	require.NoError(t, b.Purge(ctx))
	assert.Empty(t, cacheFiles(t, cacheDir))

	stats, err := b.CacheStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Files)
	assert.Zero(t, stats.Records)

	// The next load goes back to the store.
	res, err := b.Fetch(ctx, "a", conv)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 3, store.TotalFetches())

	// Purge is idempotent.
	require.NoError(t, b.Purge(ctx))
}

func TestCacheStats(t *testing.T) {
	b, store, _ := newTestBackend(t)
	ctx := context.Background()
	conv := &convert.TextConverter{}

	store.Put("a.txt", []byte("aaaa"))
	store.Put("b.txt", []byte("bb"))

	_, err := b.Fetch(ctx, "a", conv)
	require.NoError(t, err)
	_, err = b.Fetch(ctx, "b", conv)
	require.NoError(t, err)

	stats, err := b.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, int64(6), stats.Bytes)
	assert.Equal(t, 2, stats.Records)
}

func TestList(t *testing.T) {
	b, store, _ := newTestBackend(t)
	conv := &convert.SpriteConverter{}

	store.Put("sprites/a.png", []byte("a"))
	store.Put("sprites/b.jpg", []byte("b"))
	store.Put("sprites/c.txt", []byte("c"))
	store.Put("other/d.png", []byte("d"))

	paths, err := b.List(context.Background(), "sprites", conv)
	require.NoError(t, err)
	assert.Equal(t, []string{"sprites/a", "sprites/b"}, paths)
}

func TestCancelledFetchWritesNoCacheEntry(t *testing.T) {
	b, store, cacheDir := newTestBackend(t)

	store.Put("doc.txt", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Fetch(ctx, "doc", &convert.TextConverter{})
	require.Error(t, err)
	assert.Empty(t, cacheFiles(t, cacheDir))
}

func TestCacheSurvivesBackendRestart(t *testing.T) {
	store := memory.New()
	cacheDir := t.TempDir()
	dbDir := t.TempDir()
	ctx := context.Background()
	conv := &convert.TextConverter{}

	store.Put("doc.txt", []byte("persistent"))

	db, err := cachedb.Open(dbDir)
	require.NoError(t, err)
	b, err := New(Config{Store: store, CacheDir: cacheDir, DB: db})
	require.NoError(t, err)

	_, err = b.Fetch(ctx, "doc", conv)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = cachedb.Open(dbDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	b, err = New(Config{Store: store, CacheDir: cacheDir, DB: db})
	require.NoError(t, err)

	res, err := b.Fetch(ctx, "doc", conv)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, store.TotalFetches())
}

func TestTempFilesExcludedFromStats(t *testing.T) {
	b, _, cacheDir := newTestBackend(t)

	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, ".write-leftover"), []byte("partial"), 0644))

	stats, err := b.CacheStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Files)

	for _, name := range cacheFiles(t, cacheDir) {
		assert.True(t, strings.HasPrefix(name, ".write-"))
	}
}
