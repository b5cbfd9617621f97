package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// defaultCategories are created on first start so authors can file posts
// before an admin has set anything up.
var defaultCategories = []struct {
	Name string
	Slug string
}{
	{"General", "general"},
	{"Technology", "technology"},
	{"Lifestyle", "lifestyle"},
}

// Seed populates the database with initial development data. Existing
// categories with the same slug are left untouched.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = 'categories'",
	).Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	for _, c := range defaultCategories {
		data, err := json.Marshal(map[string]string{"name": c.Name, "slug": c.Slug})
		if err != nil {
			return fmt.Errorf("seed encode category: %w", err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO documents (collection, id, data)
			VALUES ('categories', $1, $2::jsonb)
			ON CONFLICT ((data->>'slug')) WHERE collection = 'categories' DO NOTHING
		`, uuid.NewString(), string(data))
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.Slug, err)
		}
	}

	slog.Info("database seeded with default categories", "count", len(defaultCategories))
	return nil
}
