package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetflow/assetflow/pkg/resource"
)

var existsType string

var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Check whether a resource exists in the backend",
	Long: `Exists probes the backend for the logical path without loading it.
Exit code 0 means the resource exists, 1 means it does not.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := BuildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		ok, err := app.Provider.Exists(ctx, args[0], resource.Type(existsType))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("resource %q not found", args[0])
		}
		fmt.Printf("%s exists\n", args[0])
		return nil
	},
}

func init() {
	existsCmd.Flags().StringVar(&existsType, "type", "bytes", "resource type")
}
