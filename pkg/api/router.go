package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assetflow/assetflow/internal/logger"
)

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET  /healthz         - liveness probe
//   - GET  /v1/progress     - aggregate load progress
//   - GET  /v1/resources    - loaded logical paths
//   - GET  /v1/cache/stats  - disk cache statistics (remote backend only)
//   - POST /v1/cache/purge  - empty the disk cache (remote backend only)
//   - GET  /metrics         - Prometheus metrics (when a gatherer is given)
func NewRouter(provider ProviderInfo, cache CacheAdmin, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handlers{provider: provider, cache: cache}

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/progress", h.progress)
		r.Get("/resources", h.resources)
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.cacheStats)
			r.Post("/purge", h.cachePurge)
		})
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// requestLogger logs requests through the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("api request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
