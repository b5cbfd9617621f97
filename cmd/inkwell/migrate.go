// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/database"
)

func newMigrateCommand() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Docstore != config.DocstorePostgres {
				return fmt.Errorf("migrate needs DOCSTORE=%s", config.DocstorePostgres)
			}

			ctx := cmd.Context()
			db, err := database.Connect(ctx, cfg.DSN(), database.PoolFor(1))
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			if status {
				return printMigrations(ctx, cmd.OutOrStdout(), db)
			}
			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and whether each has run, without applying any")
	return cmd
}

func printMigrations(ctx context.Context, w io.Writer, db *sql.DB) error {
	migrations, err := database.Status(ctx, db)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, m := range migrations {
		state := "pending"
		if m.Applied {
			state = "applied " + m.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%5d  %-32s %s\n", m.Version, m.File, state)
	}
	return nil
}
