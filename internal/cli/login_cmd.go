package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
)

func newLoginCmd(a *App) *cobra.Command {
	var (
		pageFile string
		live     bool
		noReload bool
	)

	cmd := &cobra.Command{
		Use:   "login [name]",
		Short: "Set the user whose sessions are tracked",
		Long: "Set the tracked user. Without a name the login is read from the page " +
			"header (--page or --live) or asked for on a terminal.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			login := ""
			if len(args) == 1 {
				login = args[0]
			}

			if login == "" && (pageFile != "" || live) {
				h, err := a.openPage(cmd.Context(), pageFile, live)
				if err != nil {
					return err
				}
				defer h.Close()
				detected, ok := h.detectLogin(cmd.Context())
				if !ok {
					return errors.New("no login found in the page header")
				}
				login = detected
			}

			if login == "" && a.interactive() {
				prompted, err := promptLogin(a.Ctrl.User())
				if err != nil {
					return err
				}
				login = prompted
			}

			if err := a.Ctrl.SetUser(cmd.Context(), login); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s\n", formatter.Bold(a.Ctrl.User()))
			if noReload {
				return nil
			}
			if err := a.ensureLoaded(cmd, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.StatusText(a.Ctrl.Status().String()))
			return nil
		},
	}

	cmd.Flags().StringVar(&pageFile, "page", "", "Read the login from a saved cluster map page")
	cmd.Flags().BoolVar(&live, "live", false, "Read the login from the cluster map in the browser")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Set the user without fetching sessions")
	return cmd
}

func promptLogin(current string) (string, error) {
	login := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("42 login").
				Placeholder("login").
				Value(&login).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return app.ErrEmptyLogin
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(login), nil
}
