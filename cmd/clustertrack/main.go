package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/cli"
	"github.com/alexanderramin/clustertrack/internal/config"
	"github.com/alexanderramin/clustertrack/internal/db"
	"github.com/alexanderramin/clustertrack/internal/diag"
	"github.com/alexanderramin/clustertrack/internal/intra"
	"github.com/alexanderramin/clustertrack/internal/netobs"
	"github.com/alexanderramin/clustertrack/internal/relay"
	"github.com/alexanderramin/clustertrack/internal/repository"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Config: CLUSTERTRACK_CONFIG or ~/.clustertrack/config.yaml, then .env
	// in the working directory, then CLUSTERTRACK_* variables.
	cfg, err := config.Load(os.Getenv("CLUSTERTRACK_CONFIG"), ".env")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every record lands in the log book for export; stderr only sees them
	// when call logging or debug is on.
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	var mirror slog.Handler
	if cfg.LogCalls || cfg.Debug {
		mirror = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	book := diag.NewLogbook()
	logger := slog.New(diag.NewHandler(book, level, mirror))
	slog.SetDefault(logger)

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	uow := db.NewSQLiteUnitOfWork(database)
	settings := repository.NewSQLiteSettingsRepo(database)
	cache := repository.NewSQLiteCacheRepo(database)
	favorites := repository.NewFavoriteStore(database, uow)

	// API client, with intercepted calls reported to the traffic logger. The
	// token exchange uses its own bounded client and is never recorded.
	httpClient := &http.Client{Transport: netobs.NewTransport(nil, netobs.NewLogObserver(logger))}
	var pageObserver intra.Observer = intra.NoopObserver{}
	if cfg.LogCalls {
		pageObserver = intra.NewLogObserver(os.Stderr)
	}
	client := intra.NewClient(cfg.Intra,
		intra.WithHTTPClient(httpClient),
		intra.WithObserver(pageObserver),
		intra.WithLogger(logger),
	)
	if !cfg.HasCredentials() {
		logger.Warn("no API credentials configured; fetches will fail until CLUSTERTRACK_CLIENT_ID and CLUSTERTRACK_CLIENT_SECRET are set")
	}

	// The relay keeps fetches off the caller: requests cross the bridge and
	// are served by the API client on the other side.
	var source app.SessionSource = client
	if cfg.UseRelay {
		bridge := relay.NewBridge()
		defer bridge.Close()
		go func() {
			if err := bridge.Serve(ctx, relay.NewHandler(client)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("relay stopped", "error", err)
			}
		}()
		source = relay.NewRemoteSource(bridge)
	}

	var observer app.UseCaseObserver = app.NoopUseCaseObserver{}
	if cfg.LogCalls {
		observer = app.NewSlogUseCaseObserver(logger)
	}

	ctrl := app.New(app.Deps{
		Source:    source,
		Cache:     cache,
		Favorites: favorites,
		Settings:  settings,
		Logbook:   book,
		Logger:    logger,
		Observer:  observer,
		Location:  cfg.Location(),
		Version:   version,
	})
	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	a := &cli.App{
		Ctrl:      ctrl,
		Config:    cfg,
		Logger:    logger,
		Hosts:     source,
		HostCache: settings,
	}

	// Detect interactive terminal for the panel entrypoint.
	a.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	if cfg.StreamURL != "" {
		changes := make(chan struct{}, 1)
		a.Changes = changes
		a.Stream = &netobs.Stream{
			URL:    cfg.StreamURL,
			Cookie: cfg.StreamCookie,
			Observer: netobs.Multi{
				netobs.NewLogObserver(logger),
				netobs.Funcs{Activity: func(payload []byte) {
					if ctrl.ApplyActivity(payload) == 0 {
						return
					}
					select {
					case changes <- struct{}{}:
					default:
					}
				}},
			},
			Logger: logger,
		}
	}

	return cli.NewRootCmd(a).ExecuteContext(ctx)
}
