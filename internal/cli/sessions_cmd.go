package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
)

const progressWidth = 24

func newTodayCmd(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's logged time against the target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToday(cmd, app, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch from the API even when sessions are cached")
	return cmd
}

func runToday(cmd *cobra.Command, app *App, refresh bool) error {
	if err := app.ensureLoaded(cmd, refresh); err != nil {
		return err
	}
	v := app.Ctrl.Snapshot()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n", formatter.Bold(v.User), formatter.StatusText(v.Status.String()))
	fmt.Fprintln(out, formatter.FormatToday(v, progressWidth))
	return nil
}

func newSessionsCmd(app *App) *cobra.Command {
	var (
		days    int
		refresh bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"history"},
		Short:   "Show logged sessions grouped by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureLoaded(cmd, refresh); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(app.Ctrl.Sessions())
			}
			v := app.Ctrl.Snapshot()
			fmt.Fprint(out, formatter.FormatHistory(v.Days, v.Now, app.Config.Location(), days))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of days to show (0 for all)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch from the API even when sessions are cached")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw sessions as JSON")
	return cmd
}

func newReloadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Fetch the full session history again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureLoaded(cmd, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StatusText(app.Ctrl.Status().String()))
			return nil
		},
	}
}

func newLogsCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent diagnostic log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := app.Ctrl.Logbook().Entries()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No log entries."))
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Time.In(app.Config.Location()).Format(time.TimeOnly),
					e.Level,
					e.Message,
					e.Data,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"TIME", "LEVEL", "MESSAGE", "DATA"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Number of most recent entries to show (0 for all)")
	return cmd
}
