package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNoCache = errors.New("the configured backend has no disk cache (cache commands require backend.type: s3)")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the remote backend's disk cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show disk cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := BuildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Cache == nil {
			return errNoCache
		}

		stats, err := app.Cache.CacheStats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("files:   %d\n", stats.Files)
		fmt.Printf("bytes:   %d\n", stats.Bytes)
		fmt.Printf("records: %d\n", stats.Records)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached file and identity record",
	Long: `Purge empties the disk cache. This is the only cache invalidation
mechanism: cached entries are otherwise trusted until the remote object's
content identity changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := BuildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Cache == nil {
			return errNoCache
		}

		if err := app.Cache.Purge(ctx); err != nil {
			return err
		}
		fmt.Println("cache purged")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}
