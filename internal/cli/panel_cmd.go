package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

type panelOptions struct {
	tab      domain.Tab
	pageFile string
	live     bool
}

func newPanelCmd(a *App) *cobra.Command {
	var opts panelOptions

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive tracker panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd, a, opts)
		},
	}

	cmd.Flags().Var(newTabValue(domain.TabHistory, &opts.tab), "tab", "Tab to open on: history or stars")
	cmd.Flags().StringVar(&opts.pageFile, "page", "", "Attach a saved cluster map page for overlay and colors")
	cmd.Flags().BoolVar(&opts.live, "live", false, "Attach the cluster map open in the browser")
	return cmd
}

func runPanel(cmd *cobra.Command, a *App, opts panelOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var h *pageHandle
	if opts.pageFile != "" || opts.live {
		var err error
		h, err = a.openPage(ctx, opts.pageFile, opts.live)
		if err != nil {
			return err
		}
		defer h.Close()
		a.adoptPageLogin(ctx, h)
	}
	if opts.tab != "" {
		a.Ctrl.SwitchTab(opts.tab)
	}

	if a.Stream != nil {
		go func() {
			if err := a.Stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger().Warn("activity stream stopped", "error", err)
			}
		}()
	}

	p := tea.NewProgram(newPanelModel(ctx, a, h),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
