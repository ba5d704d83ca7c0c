package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/formtree"
	"github.com/aretw0/formtree/internal/cli"
	"github.com/aretw0/formtree/internal/presentation/tui"
	httpAdapter "github.com/aretw0/formtree/pkg/adapters/http"
	"github.com/aretw0/formtree/pkg/observability"
	"github.com/aretw0/formtree/pkg/session"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing server",
	Long: `Serves the REST API for editing forms. Forms are kept in the store configured in
formtree.yaml (memory, file or redis); editor events are streamed over SSE and
counters are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		cfg := env.Config.HTTP
		if cmd.Flags().Changed("addr") {
			cfg.Address, _ = cmd.Flags().GetString("addr")
		}

		var sessOpts []session.Option
		var httpOpts []httpAdapter.Option

		if cfg.Events {
			streams := httpAdapter.NewStreamManager()
			sessOpts = append(sessOpts, session.WithFormHooks(streams.Hooks))
			httpOpts = append(httpOpts, httpAdapter.WithStreams(streams))
		}
		if cfg.Metrics {
			metrics := observability.NewMetrics()
			sessOpts = append(sessOpts,
				session.WithFormHooks(metrics.Hooks),
				session.WithOnClose(metrics.Forget),
			)
			httpOpts = append(httpOpts, httpAdapter.WithMetricsHandler(metrics.Handler()))
		}

		mgr, err := env.NewManager(sessOpts...)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if cat, ok := env.Catalog.(cli.Reloadable); ok {
			if err := cli.WatchCatalog(ctx, cat, env.Logger, nil); err != nil {
				env.Logger.Warn("Catalog hot reload disabled", "err", err)
			}
		}

		srv := &http.Server{
			Addr:    cfg.Address,
			Handler: httpAdapter.NewHandler(mgr, env.Catalog, httpOpts...),
		}

		if tui.IsTerminal(cmd.OutOrStdout()) {
			tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(formtree.Version))
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			env.Logger.Info("Starting formtree server", "address", srv.Addr, "store", env.Config.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			env.Logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				env.Logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			env.Logger.Info("formtree server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides http.address)")
}
