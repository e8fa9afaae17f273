package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/cli/formatter"
	"github.com/alexanderramin/clustertrack/internal/config"
	"github.com/alexanderramin/clustertrack/internal/netobs"
	"github.com/alexanderramin/clustertrack/internal/overlay"
	"github.com/alexanderramin/clustertrack/internal/page"
)

// App holds everything the commands and the panel need.
type App struct {
	Ctrl   *app.Controller
	Config config.Config
	Logger *slog.Logger

	// Hosts and HostCache feed the availability painter.
	Hosts     overlay.HostFetcher
	HostCache overlay.HostCache

	// Stream follows the cluster map activity feed. Nil when no stream URL
	// is configured. Changes receives a signal whenever a payload changed
	// the store.
	Stream  *netobs.Stream
	Changes <-chan struct{}

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// ensureLoaded fetches the active user's history unless the store already
// holds it. A failed fetch that still left cached sessions in place is
// reported on stderr and not treated as fatal.
func (a *App) ensureLoaded(cmd *cobra.Command, refresh bool) error {
	user := a.Ctrl.User()
	if user == "" {
		return fmt.Errorf("%w: run `clustertrack login <name>` first", app.ErrNoUser)
	}
	if !refresh && a.Ctrl.Status().Kind == app.StatusLoaded {
		return nil
	}

	stop := func() {}
	if a.interactive() {
		stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Loading sessions for "+user)
	}
	err := a.Ctrl.Reload(cmd.Context())
	stop()
	if err == nil {
		return nil
	}
	if len(a.Ctrl.Sessions()) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), formatter.StyleYellow.Render("warning: ")+
			"showing cached sessions: "+err.Error())
		return nil
	}
	return err
}

// pageHandle is an opened cluster map, either a saved HTML file or a live
// browser tab.
type pageHandle struct {
	src  overlay.CardSource
	doc  *page.Document
	live *page.Live
	rec  *overlay.Reconciler
}

func newPageHandle(src overlay.CardSource) *pageHandle {
	return &pageHandle{src: src, rec: overlay.NewReconciler(src)}
}

var errNoPage = errors.New("no page given: use --page <file> or --live")

func (a *App) openPage(ctx context.Context, file string, live bool) (*pageHandle, error) {
	switch {
	case live:
		l, err := page.OpenLive(ctx, page.LiveOptions{
			ControlURL: a.Config.ControlURL,
			PageURL:    a.Config.PageURL,
			Headless:   a.Config.Headless,
		})
		if err != nil {
			return nil, err
		}
		h := newPageHandle(l)
		h.live = l
		return h, nil
	case file != "":
		doc, err := page.LoadDocument(file)
		if err != nil {
			return nil, err
		}
		h := newPageHandle(doc)
		h.doc = doc
		return h, nil
	}
	return nil, errNoPage
}

func (h *pageHandle) source() overlay.CardSource {
	return h.src
}

// detectLogin reads the signed-in login from the page header.
func (h *pageHandle) detectLogin(ctx context.Context) (string, bool) {
	switch {
	case h.live != nil:
		login, ok, err := h.live.DetectLogin(ctx)
		return login, ok && err == nil
	case h.doc != nil:
		return h.doc.DetectLogin()
	}
	return "", false
}

func (h *pageHandle) Close() error {
	if h.live != nil {
		return h.live.Close()
	}
	return nil
}

// adoptPageLogin sets the user from the page when none is remembered.
func (a *App) adoptPageLogin(ctx context.Context, h *pageHandle) {
	if a.Ctrl.User() != "" {
		return
	}
	if login, ok := h.detectLogin(ctx); ok {
		if err := a.Ctrl.SetUser(ctx, login); err == nil {
			a.logger().Info("login detected from page", "user", login)
		}
	}
}

func (a *App) painter(h *pageHandle) *overlay.Painter {
	return overlay.NewPainter(h.source(), a.Hosts, a.HostCache, a.logger())
}

// scan runs one reconciliation pass. A live page may still be rendering,
// so it is retried until cards show up.
func (a *App) scan(ctx context.Context, h *pageHandle) (overlay.Result, error) {
	if h.live != nil {
		return a.Ctrl.ScanWithRetry(ctx, h.rec, overlay.DefaultRetryInterval, overlay.DefaultRetryAttempts)
	}
	return a.Ctrl.ScanAndOverlay(ctx, h.rec)
}
