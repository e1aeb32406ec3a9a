package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetflow/assetflow/pkg/resource"
)

var (
	loadType string
	loadAll  bool
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load a resource (or a whole folder with --all)",
	Long: `Load fetches and converts the resource registered under the given
logical path. With --all the path names a folder and every matching resource
under it is loaded.

A load that fails at the backend or converter prints an invalid result and
exits non-zero; configuration errors (unknown type) fail immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := BuildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		typ := resource.Type(loadType)

		if loadAll {
			results, err := app.Provider.LoadAll(ctx, args[0], typ)
			if err != nil {
				return err
			}
			invalid := 0
			for _, res := range results {
				printResource(res)
				if !res.Valid() {
					invalid++
				}
			}
			fmt.Printf("%d loaded, %d invalid\n", len(results)-invalid, invalid)
			if invalid > 0 {
				return fmt.Errorf("%d resource(s) failed to load", invalid)
			}
			return nil
		}

		res, err := app.Provider.Load(ctx, args[0], typ)
		if err != nil {
			return err
		}
		printResource(res)
		if !res.Valid() {
			return fmt.Errorf("resource %q failed to load", args[0])
		}
		return nil
	},
}

func printResource(res *resource.Resource) {
	status := "ok"
	if !res.Valid() {
		status = "invalid"
	}
	fmt.Printf("%-8s %-10s %s\n", status, res.Type(), res.Path())
}

func init() {
	loadCmd.Flags().StringVar(&loadType, "type", "bytes", "resource type (bytes, text, json, yaml, sprite, directory)")
	loadCmd.Flags().BoolVar(&loadAll, "all", false, "treat the path as a folder and load everything under it")
}
