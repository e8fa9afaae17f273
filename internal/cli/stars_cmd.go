package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/aggregate"
	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

func newStarsCmd(app *App) *cobra.Command {
	var (
		floor   string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "stars",
		Short: "Show hosts that need a star, are collecting time, or are starred",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureLoaded(cmd, refresh); err != nil {
				return err
			}
			if floor != "" {
				f, err := parseFloor(floor)
				if err != nil {
					return err
				}
				app.Ctrl.SetFloor(f)
			}
			v := app.Ctrl.Snapshot()
			name := ""
			if v.Floor != nil {
				name = v.Floor.Name
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStars(v.Board, -1, name))
			return nil
		},
	}

	cmd.Flags().StringVar(&floor, "floor", "", "Scope totals to a floor: lower (z1-z2) or upper (z3-z4)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch from the API even when sessions are cached")
	return cmd
}

func parseFloor(s string) (aggregate.Floor, error) {
	switch s {
	case "lower", "z1-z2", "z1", "z2":
		return aggregate.FloorLower, nil
	case "upper", "z3-z4", "z3", "z4":
		return aggregate.FloorUpper, nil
	}
	return aggregate.Floor{}, fmt.Errorf("unknown floor %q (want lower or upper)", s)
}

func newHostCmd(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "host <id>",
		Short: "Show the time logged on one host against the target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host := domain.NormalizeHost(args[0])
			if domain.Zone(host) == "" {
				return fmt.Errorf("%q: %w", args[0], domain.ErrInvalidHost)
			}
			if err := app.ensureLoaded(cmd, refresh); err != nil {
				return err
			}
			app.Ctrl.Select(host)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHostReport(app.Ctrl.HostReport(host), app.Config.Location()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch from the API even when sessions are cached")
	return cmd
}

func newStarCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "star <host>...",
		Short: "Mark hosts as starred",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleHosts(cmd, app, args, true)
		},
	}
}

func newUnstarCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unstar <host>...",
		Short: "Remove the star from hosts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleHosts(cmd, app, args, false)
		},
	}
}

func toggleHosts(cmd *cobra.Command, app *App, hosts []string, add bool) error {
	for _, h := range hosts {
		if err := app.Ctrl.ToggleFavorite(cmd.Context(), h, add); err != nil {
			return err
		}
		src, ok := app.Ctrl.FavoriteSource(h)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.StarMark(src, ok), domain.NormalizeHost(h))
	}
	return nil
}
