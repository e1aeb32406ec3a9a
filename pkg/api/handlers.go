package api

import (
	"context"
	"net/http"

	"github.com/assetflow/assetflow/internal/logger"
	backendremote "github.com/assetflow/assetflow/pkg/resource/backend/remote"
)

// ProviderInfo is the read-only provider surface the ops API exposes.
type ProviderInfo interface {
	// Progress returns the aggregate load progress in [0, 1].
	Progress() float64

	// Loaded returns the sorted logical paths currently loaded.
	Loaded() []string

	// Outstanding returns the number of loads in flight.
	Outstanding() int
}

// CacheAdmin is the cache management surface the ops API exposes. The
// remote backend implements it; deployments on the local backend run
// without cache endpoints.
type CacheAdmin interface {
	CacheStats(ctx context.Context) (backendremote.CacheStats, error)
	Purge(ctx context.Context) error
}

type handlers struct {
	provider ProviderInfo
	cache    CacheAdmin
}

// health is the liveness probe.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, OKResponse(map[string]string{"service": "assetflow"}))
}

// progress reports aggregate load progress and the outstanding count.
func (h *handlers) progress(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, OKResponse(map[string]any{
		"progress":    h.provider.Progress(),
		"outstanding": h.provider.Outstanding(),
	}))
}

// resources lists the currently loaded logical paths.
func (h *handlers) resources(w http.ResponseWriter, r *http.Request) {
	paths := h.provider.Loaded()
	JSON(w, http.StatusOK, OKResponse(map[string]any{
		"paths": paths,
		"count": len(paths),
	}))
}

// cacheStats reports disk cache file, byte, and record counts.
func (h *handlers) cacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		JSON(w, http.StatusNotFound, ErrorResponse("no cache configured"))
		return
	}

	stats, err := h.cache.CacheStats(r.Context())
	if err != nil {
		logger.Error("cache stats failed", logger.Err(err))
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}
	JSON(w, http.StatusOK, OKResponse(stats))
}

// cachePurge empties the disk cache.
func (h *handlers) cachePurge(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		JSON(w, http.StatusNotFound, ErrorResponse("no cache configured"))
		return
	}

	if err := h.cache.Purge(r.Context()); err != nil {
		logger.Error("cache purge failed", logger.Err(err))
		JSON(w, http.StatusInternalServerError, ErrorResponse(err.Error()))
		return
	}
	JSON(w, http.StatusOK, OKResponse(map[string]string{"result": "purged"}))
}
