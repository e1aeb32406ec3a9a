package provider

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetflow/assetflow/pkg/cachedb"
	"github.com/assetflow/assetflow/pkg/remote/memory"
	"github.com/assetflow/assetflow/pkg/resource"
	backendremote "github.com/assetflow/assetflow/pkg/resource/backend/remote"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

func newRemoteProvider(t *testing.T) (*Provider, *memory.Store, *backendremote.Backend) {
	t.Helper()

	store := memory.New()

	db, err := cachedb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b, err := backendremote.New(backendremote.Config{
		Store:    store,
		CacheDir: t.TempDir(),
		DB:       db,
	})
	require.NoError(t, err)

	p, err := New(b, convert.NewDefaultRegistry(), nil)
	require.NoError(t, err)
	return p, store, b
}

func TestRemoteReloadServedFromCache(t *testing.T) {
	p, store, _ := newRemoteProvider(t)
	ctx := context.Background()

	store.Put("docs/readme.txt", []byte("hello"))

	res, err := p.Load(ctx, "docs/readme", convert.TypeText)
	require.NoError(t, err)
	require.True(t, res.Valid())
	assert.Equal(t, "hello", res.Payload())
	assert.Equal(t, 1, store.TotalFetches())

	// Unloading drops the in-memory handle but keeps the disk cache; the
	// reload costs a Stat round-trip and no download.
	require.NoError(t, p.Unload(ctx, "docs/readme"))
	res, err = p.Load(ctx, "docs/readme", convert.TypeText)
	require.NoError(t, err)
	require.True(t, res.Valid())
	assert.Equal(t, "hello", res.Payload())
	assert.Equal(t, 1, store.TotalFetches())
}

func TestRemoteConcurrentLoadsDeduplicate(t *testing.T) {
	p, store, _ := newRemoteProvider(t)

	store.Put("doc.txt", []byte("shared"))

	const waiters = 10
	results := make([]*resource.Resource, waiters)
	var wg sync.WaitGroup
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Load(context.Background(), "doc", convert.TypeText)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.TotalFetches())
	for _, res := range results[1:] {
		assert.Same(t, results[0], res)
	}
}

func TestRemotePurgeThenLoadRefetches(t *testing.T) {
	p, store, b := newRemoteProvider(t)
	ctx := context.Background()

	store.Put("doc.txt", []byte("v"))

	_, err := p.Load(ctx, "doc", convert.TypeText)
	require.NoError(t, err)
	require.NoError(t, p.Unload(ctx, "doc"))

	require.NoError(t, b.Purge(ctx))

	_, err = p.Load(ctx, "doc", convert.TypeText)
	require.NoError(t, err)
	assert.Equal(t, 2, store.TotalFetches())
}

func TestRemoteExistsIndependentOfLoadState(t *testing.T) {
	p, store, _ := newRemoteProvider(t)
	ctx := context.Background()

	store.Put("doc.txt", []byte("x"))

	ok, err := p.Exists(ctx, "doc", convert.TypeText)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = p.Load(ctx, "doc", convert.TypeText)
	require.NoError(t, err)

	// Removing the remote object flips existence even while the handle
	// stays loaded locally.
	store.Delete("doc.txt")
	ok, err = p.Exists(ctx, "doc", convert.TypeText)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"doc"}, p.Loaded())
}
