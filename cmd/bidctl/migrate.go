// cmd/bidctl/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bidbuddy-workers/internal/common/config"
	"bidbuddy-workers/internal/common/database"
)

func newMigrateCmd() *cobra.Command {
	var (
		path        string
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "migrations directory (default from config)")
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "postgres URL (default from config)")

	open := func() (*database.Migrator, error) {
		if path == "" || databaseURL == "" {
			cfg, err := config.Load()
			if err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
			if path == "" {
				path = cfg.Migrations.Path
			}
			if databaseURL == "" {
				databaseURL = cfg.Database.Postgres.GetURL()
			}
		}
		return database.NewMigrator(path, databaseURL)
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Up(); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			if err := m.Down(steps); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return printVersion(cmd, m)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, m *database.Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d (%s)\n", v, state)
	return nil
}
