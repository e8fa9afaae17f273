package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
)

func newColorsCmd(a *App) *cobra.Command {
	var (
		pageFile string
		outFile  string
		live     bool
	)

	cmd := &cobra.Command{
		Use:       "colors [on|off|toggle]",
		Short:     "Show or change availability colors on the cluster map",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintf(out, "availability colors %s\n", onOff(a.Ctrl.ShowColors()))
				return nil
			}

			want := !a.Ctrl.ShowColors()
			switch args[0] {
			case "on":
				want = true
			case "off":
				want = false
			case "toggle":
			default:
				return fmt.Errorf("unknown argument %q (want on, off or toggle)", args[0])
			}

			ctx := cmd.Context()
			h, err := a.openPage(ctx, pageFile, live)
			if err != nil {
				return err
			}
			defer h.Close()
			painter := a.painter(h)

			if want == a.Ctrl.ShowColors() {
				if want {
					pr, err := a.Ctrl.RefreshColors(ctx, painter)
					if err != nil {
						return err
					}
					printPaint(out, pr)
				}
			} else {
				on, pr, err := a.Ctrl.ToggleColors(ctx, painter)
				if err != nil {
					return err
				}
				if on {
					printPaint(out, pr)
				}
			}
			fmt.Fprintf(out, "availability colors %s\n", onOff(a.Ctrl.ShowColors()))

			if h.doc != nil && outFile != "" {
				return writeDocument(out, outFile, h)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pageFile, "page", "", "Saved cluster map HTML to paint")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the painted page here (- for stdout)")
	cmd.Flags().BoolVar(&live, "live", false, "Paint the cluster map open in the browser")
	return cmd
}

func onOff(on bool) string {
	if on {
		return formatter.StyleGreen.Render("on")
	}
	return formatter.Dim("off")
}
