package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
	"github.com/alexanderramin/clustertrack/internal/overlay"
)

// colorRefreshInterval is how often availability colors are refetched
// while a page is watched.
const colorRefreshInterval = 5 * time.Minute

func newOverlayCmd(a *App) *cobra.Command {
	var (
		pageFile string
		outFile  string
		live     bool
		watch    bool
		locate   string
	)

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Badge host cards on the cluster map with logged time",
		Long: "Scan the cluster map, attach time badges to host cards, learn starred " +
			"hosts from the page and paint availability colors. A saved page is " +
			"written back out with --out; a live page can be watched for layout changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.openPage(ctx, pageFile, live)
			if err != nil {
				return err
			}
			defer h.Close()

			a.adoptPageLogin(ctx, h)
			if err := a.ensureLoaded(cmd, false); err != nil {
				return err
			}

			report := cmd.OutOrStdout()
			if outFile == "-" {
				report = cmd.ErrOrStderr()
			}
			painter := a.painter(h)
			if err := a.overlayOnce(ctx, report, h, painter); err != nil {
				return err
			}
			if locate != "" {
				found, err := a.Ctrl.Locate(ctx, h.source(), locate)
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintf(report, "%s not on this page\n", locate)
				}
			}

			if h.doc != nil && outFile != "" {
				if err := writeDocument(cmd.OutOrStdout(), outFile, h); err != nil {
					return err
				}
			}

			if watch {
				if h.live == nil {
					return errors.New("--watch needs --live")
				}
				return a.watchPage(ctx, report, h, painter)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pageFile, "page", "", "Saved cluster map HTML to overlay")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the overlaid page here (- for stdout)")
	cmd.Flags().BoolVar(&live, "live", false, "Overlay the cluster map open in the browser")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep rescanning a live page when its layout changes")
	cmd.Flags().StringVar(&locate, "locate", "", "Highlight the card of this host")
	return cmd
}

// overlayOnce scans the page and, when colors are on, paints them.
func (a *App) overlayOnce(ctx context.Context, w io.Writer, h *pageHandle, painter *overlay.Painter) error {
	res, err := a.scan(ctx, h)
	if err != nil {
		return err
	}
	printScan(w, res)

	pr, err := a.Ctrl.RefreshColors(ctx, painter)
	if err != nil {
		fmt.Fprintln(w, formatter.StyleYellow.Render("colors: ")+err.Error())
		return nil
	}
	if pr.Source != "" {
		printPaint(w, pr)
	}
	return nil
}

// watchPage rescans after every layout change and refreshes colors
// periodically until ctx is done.
func (a *App) watchPage(ctx context.Context, w io.Writer, h *pageHandle, painter *overlay.Painter) error {
	rescan := overlay.NewDebouncer(overlay.DefaultDebounce, func() {
		res, err := a.Ctrl.ScanAndOverlay(ctx, h.rec)
		switch {
		case errors.Is(err, overlay.ErrScanInProgress):
			return
		case err != nil:
			a.logger().Warn("rescan failed", "error", err)
			return
		}
		printScan(w, res)
		if a.Ctrl.ShowColors() {
			if _, err := painter.Reapply(ctx); err != nil {
				a.logger().Warn("reapply colors", "error", err)
			}
		}
	})
	defer rescan.Stop()

	go func() {
		ticker := time.NewTicker(colorRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := a.Ctrl.RefreshColors(ctx, painter); err != nil {
					a.logger().Warn("refresh colors", "error", err)
				}
			}
		}
	}()

	fmt.Fprintln(w, formatter.Dim("watching the cluster map, ctrl+c to stop"))
	err := h.live.WatchLayout(ctx, time.Second, rescan.Trigger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printScan(w io.Writer, res overlay.Result) {
	fmt.Fprintf(w, "floor %s  %s  %s  %s\n",
		formatter.Bold(res.Floor.Name),
		formatter.Plural(res.Cards, "card"),
		formatter.Dim(fmt.Sprintf("%d badged", res.Badges)),
		formatter.StyleRed.Render(fmt.Sprintf("%d eligible", res.Eligible)))
	if len(res.Inferred) > 0 {
		fmt.Fprintf(w, "  %s %s\n", formatter.StyleYellow.Render("★ learned"), strings.Join(res.Inferred, ", "))
	}
	if len(res.Retracted) > 0 {
		fmt.Fprintf(w, "  %s %s\n", formatter.Dim("☆ dropped"), strings.Join(res.Retracted, ", "))
	}
}

func printPaint(w io.Writer, pr overlay.PaintResult) {
	line := fmt.Sprintf("colors from %s  %d painted  %d occupied", pr.Source, pr.Painted, pr.Occupied)
	if pr.Err != nil {
		line += formatter.Dim(" (" + pr.Err.Error() + ")")
	}
	fmt.Fprintln(w, line)
}

func writeDocument(stdout io.Writer, path string, h *pageHandle) error {
	if path == "-" {
		return h.doc.Render(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := h.doc.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
