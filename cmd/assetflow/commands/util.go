package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/assetflow/assetflow/internal/logger"
	"github.com/assetflow/assetflow/pkg/cachedb"
	"github.com/assetflow/assetflow/pkg/config"
	"github.com/assetflow/assetflow/pkg/metrics"
	"github.com/assetflow/assetflow/pkg/remote/s3"
	"github.com/assetflow/assetflow/pkg/resource/backend"
	backendlocal "github.com/assetflow/assetflow/pkg/resource/backend/local"
	backendremote "github.com/assetflow/assetflow/pkg/resource/backend/remote"
	"github.com/assetflow/assetflow/pkg/resource/convert"
	"github.com/assetflow/assetflow/pkg/resource/provider"
)

// App bundles the wired runtime pieces behind one lifecycle.
type App struct {
	Config   *config.Config
	Provider *provider.Provider
	Backend  backend.Backend
	Registry *prometheus.Registry

	// Cache is the remote backend's cache admin surface; nil for the
	// local backend.
	Cache *backendremote.Backend

	closers []func() error
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// BuildApp loads configuration, initializes logging, and wires the backend,
// converter registry, metrics, and provider.
func BuildApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	app := &App{Config: cfg, Registry: reg}

	switch cfg.Backend.Type {
	case "local":
		b, err := backendlocal.New(backendlocal.Config{Root: cfg.Backend.Local.Root})
		if err != nil {
			return nil, fmt.Errorf("local backend: %w", err)
		}
		app.Backend = b

	case "s3":
		client, err := s3.NewClientFromConfig(ctx,
			cfg.Backend.S3.Endpoint,
			cfg.Backend.S3.Region,
			cfg.Backend.S3.AccessKeyID,
			cfg.Backend.S3.SecretAccessKey,
		)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		store, err := s3.New(s3.Config{
			Client:    client,
			Bucket:    cfg.Backend.S3.Bucket,
			KeyPrefix: cfg.Backend.S3.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}

		db, err := cachedb.Open(cfg.Cache.IndexDir)
		if err != nil {
			return nil, fmt.Errorf("cache index: %w", err)
		}

		b, err := backendremote.New(backendremote.Config{
			Store:    store,
			CacheDir: cfg.Cache.Dir,
			DB:       db,
			Metrics:  m,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("remote backend: %w", err)
		}
		app.Backend = b
		app.Cache = b
		app.closers = append(app.closers, b.Close)
		logger.Debug("remote store configured", logger.KeyStore, "s3")

	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
	}

	p, err := provider.New(app.Backend, convert.NewDefaultRegistry(), m)
	if err != nil {
		return nil, err
	}
	app.Provider = p
	return app, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	var errs []error
	for _, close := range a.closers {
		if err := close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
