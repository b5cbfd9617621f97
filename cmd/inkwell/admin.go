// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
	"inkwell/internal/store"
)

func newAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin membership",
	}
	cmd.AddCommand(
		adminMembershipCommand("grant", "Make a user an admin", (*store.AdminStore).Grant),
		adminMembershipCommand("revoke", "Remove a user's admin rights", (*store.AdminStore).Revoke),
		adminListCommand(),
	)
	return cmd
}

// withAdmins loads config, opens the docstore and hands fn the admin store.
func withAdmins(cmd *cobra.Command, fn func(*store.AdminStore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AdminEnabled() {
		return errors.New("ADMIN_COLLECTION is not set")
	}
	if cfg.Docstore == config.DocstoreMemory {
		return errors.New("admin membership cannot be changed on the in-memory docstore")
	}

	db, closeDB, err := openDocstore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	return fn(store.NewAdminStore(db, cfg.AdminCollection))
}

func adminMembershipCommand(use, short string, op func(*store.AdminStore, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmins(cmd, func(admins *store.AdminStore) error {
				if err := op(admins, cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("%s %s: %w", use, args[0], err)
				}
				slog.Info("admin membership updated", "action", use, "user_id", args[0])
				return nil
			})
		},
	}
}

func adminListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin user ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmins(cmd, func(admins *store.AdminStore) error {
				ids, err := admins.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}
