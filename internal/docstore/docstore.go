// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package docstore is the collection-based document database the rest of
// inkwell persists through. Documents are schema-less field maps grouped
// into collections; queries support exact-match filters, ordering and
// limits only. Relations are resolved by callers with follow-up fetches.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Reserved field names address document metadata instead of data fields.
const (
	FieldID        = "$id"
	FieldCreatedAt = "$createdAt"
	FieldUpdatedAt = "$updatedAt"
)

var (
	// ErrConflict is returned when a write would violate a unique constraint.
	ErrConflict = errors.New("docstore: unique constraint violated")

	// ErrInvalidField is returned for field names that are not plain identifiers.
	ErrInvalidField = errors.New("docstore: invalid field name")
)

// fieldName matches the data field names accepted in filters and sorts.
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Fields is the untyped payload of a document.
type Fields map[string]any

// Document is a single stored record.
type Document struct {
	ID         string
	Collection string
	Data       Fields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Filter is an exact-match condition on one field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an exact-match filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Sort orders results by one field.
type Sort struct {
	Field string
	Desc  bool
}

// Query narrows a List call. A zero Limit means no limit.
type Query struct {
	Filters []Filter
	Sort    []Sort
	Limit   int
	Offset  int
}

// DB is the document store contract. Get returns (nil, nil) when the
// document does not exist; Update and Delete on a missing document are
// no-ops that return (nil, nil) and nil respectively.
type DB interface {
	// Create inserts a document. An empty id asks the store to assign one.
	Create(ctx context.Context, collection, id string, fields Fields) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string, filters ...Filter) (int, error)
	// Update merges fields into the stored document.
	Update(ctx context.Context, collection, id string, fields Fields) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// validateField checks that a filter or sort field is safe to use.
func validateField(name string) error {
	switch name {
	case FieldID, FieldCreatedAt, FieldUpdatedAt:
		return nil
	}
	if !fieldName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

// validateQuery checks every field referenced by a query.
func validateQuery(q Query) error {
	for _, f := range q.Filters {
		if err := validateField(f.Field); err != nil {
			return err
		}
	}
	for _, s := range q.Sort {
		if err := validateField(s.Field); err != nil {
			return err
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("docstore: negative limit or offset")
	}
	return nil
}

// filterText renders a filter value the way it compares against a stored
// field: strings as-is, everything else in its JSON text form.
func filterText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	default:
		return fmt.Sprint(val)
	}
}

// formatFloat prints a JSON number the way PostgreSQL's ->> operator does.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
