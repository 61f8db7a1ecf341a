package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12ingest/internal/store"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.RequireDatabase(); err != nil {
					return err
				}
				return store.MigrateUp(a.cfg.Database.URL)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration, dropping all ingested data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.cfg.RequireDatabase(); err != nil {
					return err
				}
				return store.MigrateDown(a.cfg.Database.URL)
			},
		},
	)
	return cmd
}
