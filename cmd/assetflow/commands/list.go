package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetflow/assetflow/pkg/resource"
	"github.com/assetflow/assetflow/pkg/resource/convert"
)

var listType string

var listCmd = &cobra.Command{
	Use:   "list <folder>",
	Short: "List the loadable resources under a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := BuildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		registry := convert.NewDefaultRegistry()
		conv, err := registry.Resolve(resource.Type(listType))
		if err != nil {
			return err
		}

		paths, err := app.Backend.List(ctx, args[0], conv)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Println(path)
		}
		fmt.Printf("%d resource(s)\n", len(paths))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listType, "type", "bytes", "resource type")
}
