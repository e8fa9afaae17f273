package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
)

func newExportCmd(a *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write sessions and diagnostic logs to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.Config.ExportDir
			}
			if dir == "" {
				dir = "."
			}
			path, err := a.Ctrl.WriteExport(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.StyleGreen.Render("exported"), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to write the export into")
	return cmd
}
