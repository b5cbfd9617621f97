// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/docstore"
	"inkwell/internal/store"
)

// openDocstore opens the configured document store. For PostgreSQL the
// schema is migrated first, and development databases are seeded. The
// returned close function is always non-nil.
func openDocstore(ctx context.Context, cfg *config.Config) (docstore.DB, func(), error) {
	if cfg.Docstore == config.DocstoreMemory {
		slog.Warn("using the in-memory docstore, data is lost on exit")
		return docstore.NewMemory(store.Constraints()...), func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DSN(), database.PoolFor(cfg.DBMaxConns))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("seed database: %w", err)
		}
	}
	return docstore.NewPostgres(db), func() { db.Close() }, nil
}
