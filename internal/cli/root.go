package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "clustertrack" command and registers all
// subcommands against the provided App. Without a subcommand it opens the
// panel on a terminal and prints today's summary otherwise.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "clustertrack",
		Short:         "Cluster time tracker for the 42 cluster map",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.interactive() {
				return runPanel(cmd, app, panelOptions{})
			}
			return runToday(cmd, app, false)
		},
	}

	root.AddCommand(
		newPanelCmd(app),
		newTodayCmd(app),
		newSessionsCmd(app),
		newStarsCmd(app),
		newHostCmd(app),
		newStarCmd(app),
		newUnstarCmd(app),
		newLoginCmd(app),
		newReloadCmd(app),
		newOverlayCmd(app),
		newColorsCmd(app),
		newExportCmd(app),
		newLogsCmd(app),
		newServeCmd(app),
	)

	return root
}
