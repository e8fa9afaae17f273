package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/clustertrack/internal/api"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tracker over HTTP and follow the activity stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			logger := a.logger()

			if listen == "" {
				listen = a.Config.ListenAddr
			}
			if a.Ctrl.User() != "" {
				if err := a.ensureLoaded(cmd, false); err != nil {
					logger.Warn("initial load failed", "error", err)
				}
			}

			if a.Stream != nil {
				go func() {
					if err := a.Stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("activity stream stopped", "error", err)
					}
				}()
			}

			srv := &http.Server{
				Addr:              listen,
				Handler:           api.NewRouter(a.Ctrl, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "listening on http://%s\n", listen)
			logger.Info("http server started", "addr", listen)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			logger.Info("http server stopping")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default from config)")
	return cmd
}
