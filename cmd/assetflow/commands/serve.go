package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assetflow/assetflow/internal/logger"
	"github.com/assetflow/assetflow/pkg/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ops HTTP server",
	Long: `Serve starts the ops HTTP server exposing health, progress, loaded
resources, cache administration, and Prometheus metrics. The server runs
until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := BuildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := serveAddr
		if addr == "" {
			addr = app.Config.API.Addr
		}

		var cacheAdmin api.CacheAdmin
		if app.Cache != nil {
			cacheAdmin = app.Cache
		}

		server := api.NewServer(addr, app.Provider, cacheAdmin, app.Registry)
		if err := server.Start(ctx); err != nil && !isContextDone(ctx) {
			return err
		}
		logger.Info("ops server stopped")
		return nil
	},
}

func isContextDone(ctx context.Context) bool {
	return ctx.Err() != nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
