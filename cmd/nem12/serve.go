package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/store"
	"github.com/JonMunkholm/nem12ingest/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, dashboard and inbox watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrateFirst bool) error {
	if migrateFirst {
		if err := a.cfg.RequireDatabase(); err != nil {
			return err
		}
		if err := store.MigrateUp(a.cfg.Database.URL); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// Background jobs stop with the signal context.
	if dir := a.cfg.Ingest.InboxDir; dir != "" {
		go svc.StartInboxWatcher(ctx, core.WatchConfig{
			Dir:          dir,
			PollInterval: a.cfg.Ingest.PollInterval,
		})
	}

	server := web.NewServer(svc, a.cfg)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := svc.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for ingests to complete", "active", status.Active)
		if err := svc.WaitForIngests(shutdownCtx); err != nil {
			slog.Warn("ingests did not complete in time", "error", err)
		} else {
			slog.Info("all ingests completed")
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
