// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// documentColumns lists the columns selected in document queries.
const documentColumns = `id, collection, data, created_at, updated_at`

// Postgres stores documents as JSONB rows in the documents table. Unique
// constraints are partial expression indexes created by the migrations.
type Postgres struct {
	db *sql.DB
}

// NewPostgres creates a Postgres document store on an open pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// scanDocument scans a document row from the result set.
func scanDocument(scanner interface{ Scan(...any) error }) (*Document, error) {
	var d Document
	var raw []byte
	if err := scanner.Scan(&d.ID, &d.Collection, &raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &d.Data); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", d.Collection, d.ID, err)
	}
	if d.Data == nil {
		d.Data = Fields{}
	}
	return &d, nil
}

// Create inserts a new document and returns it as stored.
func (s *Postgres) Create(ctx context.Context, collection, id string, fields Fields) (*Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	payload, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING `+documentColumns,
		collection, id, payload,
	)
	d, err := scanDocument(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create %s document: %w", collection, ErrConflict)
		}
		return nil, fmt.Errorf("create %s document: %w", collection, err)
	}
	return d, nil
}

// Get retrieves a document by id. Returns nil if not found.
func (s *Postgres) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s document: %w", collection, err)
	}
	return d, nil
}

// List returns the documents of a collection matching the query.
func (s *Postgres) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	where, args := buildWhere(collection, q.Filters)
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where + ` ORDER BY ` + buildOrder(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s documents: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// Count returns the number of documents matching the filters.
func (s *Postgres) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := validateQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	where, args := buildWhere(collection, filters)
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s documents: %w", collection, err)
	}
	return count, nil
}

// Update merges fields into an existing document. Returns nil if the
// document does not exist.
func (s *Postgres) Update(ctx context.Context, collection, id string, fields Fields) (*Document, error) {
	payload, err := encodeFields(fields)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
		RETURNING `+documentColumns,
		collection, id, payload,
	)
	d, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update %s document: %w", collection, ErrConflict)
		}
		return nil, fmt.Errorf("update %s document: %w", collection, err)
	}
	return d, nil
}

// Delete removes a document by id.
func (s *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	return nil
}

// buildWhere renders the WHERE clause for a collection and its filters.
// Field names must already be validated.
func buildWhere(collection string, filters []Filter) (string, []any) {
	args := []any{collection}
	clauses := []string{"collection = $1"}
	for _, f := range filters {
		switch f.Field {
		case FieldID:
			args = append(args, filterText(f.Value))
			clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
		case FieldCreatedAt:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("created_at = $%d", len(args)))
		case FieldUpdatedAt:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("updated_at = $%d", len(args)))
		default:
			args = append(args, filterText(f.Value))
			clauses = append(clauses, fmt.Sprintf("COALESCE(data->>'%s', '') = $%d", f.Field, len(args)))
		}
	}
	return strings.Join(clauses, " AND "), args
}

// buildOrder renders the ORDER BY list. Creation order is the tiebreaker.
func buildOrder(sorts []Sort) string {
	var parts []string
	for _, s := range sorts {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		switch s.Field {
		case FieldID:
			parts = append(parts, "id "+dir)
		case FieldCreatedAt:
			parts = append(parts, "created_at "+dir)
		case FieldUpdatedAt:
			parts = append(parts, "updated_at "+dir)
		default:
			parts = append(parts, fmt.Sprintf("data->'%s' %s", s.Field, dir))
		}
	}
	parts = append(parts, "created_at ASC", "id ASC")
	return strings.Join(parts, ", ")
}

// encodeFields serializes a field map for a JSONB parameter.
func encodeFields(fields Fields) (string, error) {
	if fields == nil {
		fields = Fields{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document fields: %w", err)
	}
	return string(payload), nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
