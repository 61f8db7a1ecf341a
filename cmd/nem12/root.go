package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12ingest/internal/config"
	"github.com/JonMunkholm/nem12ingest/internal/core"
	_ "github.com/JonMunkholm/nem12ingest/internal/core/formats" // Register NEM12
	"github.com/JonMunkholm/nem12ingest/internal/logging"
	"github.com/JonMunkholm/nem12ingest/internal/store"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "nem12",
		Short:         "Ingest NEM12 interval meter data",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"YAML config file (default: $"+config.ConfigFileEnv+" or ./config.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newIngestCmd(a),
		newParseCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// init loads .env, the configuration and the logger.
func (a *app) init() error {
	// Variables already set in the environment win over .env.
	envErr := godotenv.Load()

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logging.Setup(a.cfg.Logging.Level, a.cfg.Logging.Format)
	if envErr == nil {
		slog.Debug("loaded .env file")
	}
	slog.Debug("configuration loaded", "config", a.cfg.String())
	return nil
}

// openService connects to the database and builds the ingest service with
// the CSV error log. The returned cleanup closes both.
func (a *app) openService(ctx context.Context) (*core.Service, func(), error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}

	st, err := store.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	errLog, err := core.OpenErrorLog(a.cfg.Ingest.ErrorLog)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	svc, err := core.NewService(st, a.cfg,
		core.WithErrorLog(errLog),
		core.WithLogger(slog.Default()),
	)
	if err != nil {
		errLog.Close()
		st.Close()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	slog.Info("formats registered", "count", core.FormatCount(), "error_log", errLog.Path())

	cleanup := func() {
		if err := errLog.Close(); err != nil {
			slog.Warn("close error log", "error", err)
		}
		st.Close()
	}
	return svc, cleanup, nil
}
