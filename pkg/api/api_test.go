package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetflow/assetflow/pkg/metrics"
	backendremote "github.com/assetflow/assetflow/pkg/resource/backend/remote"
)

type fakeProvider struct {
	progress    float64
	loaded      []string
	outstanding int
}

func (f *fakeProvider) Progress() float64 { return f.progress }
func (f *fakeProvider) Loaded() []string  { return f.loaded }
func (f *fakeProvider) Outstanding() int  { return f.outstanding }

type fakeCache struct {
	stats    backendremote.CacheStats
	purged   bool
	statsErr error
}

func (f *fakeCache) CacheStats(ctx context.Context) (backendremote.CacheStats, error) {
	return f.stats, f.statsErr
}

func (f *fakeCache) Purge(ctx context.Context) error {
	f.purged = true
	return nil
}

func doRequest(t *testing.T, handler http.Handler, method, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthz(t *testing.T) {
	router := NewRouter(&fakeProvider{progress: 1.0}, nil, nil)

	rec, resp := doRequest(t, router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
}

func TestProgress(t *testing.T) {
	router := NewRouter(&fakeProvider{progress: 0.5, outstanding: 2}, nil, nil)

	rec, resp := doRequest(t, router, http.MethodGet, "/v1/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, 0.5, data["progress"])
	assert.Equal(t, float64(2), data["outstanding"])
}

func TestResources(t *testing.T) {
	router := NewRouter(&fakeProvider{loaded: []string{"a", "b"}}, nil, nil)

	rec, resp := doRequest(t, router, http.MethodGet, "/v1/resources")
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(2), data["count"])
	assert.Equal(t, []any{"a", "b"}, data["paths"])
}

func TestCacheStats(t *testing.T) {
	cache := &fakeCache{stats: backendremote.CacheStats{Files: 3, Bytes: 42, Records: 3}}
	router := NewRouter(&fakeProvider{}, cache, nil)

	rec, resp := doRequest(t, router, http.MethodGet, "/v1/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(3), data["files"])
	assert.Equal(t, float64(42), data["bytes"])
}

func TestCacheStatsError(t *testing.T) {
	cache := &fakeCache{statsErr: errors.New("boom")}
	router := NewRouter(&fakeProvider{}, cache, nil)

	rec, resp := doRequest(t, router, http.MethodGet, "/v1/cache/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestCachePurge(t *testing.T) {
	cache := &fakeCache{}
	router := NewRouter(&fakeProvider{}, cache, nil)

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/cache/purge")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cache.purged)
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	router := NewRouter(&fakeProvider{}, nil, nil)

	rec, _ := doRequest(t, router, http.MethodGet, "/v1/cache/stats")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/cache/purge")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.RecordCacheHit()

	router := NewRouter(&fakeProvider{}, nil, reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "assetflow_cache_hits_total")
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	router := NewRouter(&fakeProvider{}, nil, nil)

	rec, _ := doRequest(t, router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
