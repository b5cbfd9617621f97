// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"inkwell/internal/docstore"
)

// AdminStore writes membership records into the configured admin
// collection. Records are keyed by user id and carry a userId field, the
// first shape the membership check probes.
type AdminStore struct {
	db         docstore.DB
	collection string
}

// NewAdminStore creates an AdminStore over collection.
func NewAdminStore(db docstore.DB, collection string) *AdminStore {
	return &AdminStore{db: db, collection: collection}
}

// Grant records userID as an admin. Granting twice is a no-op.
func (s *AdminStore) Grant(ctx context.Context, userID string) error {
	if s.collection == "" {
		return fmt.Errorf("grant admin: no admin collection configured")
	}
	existing, err := s.db.Get(ctx, s.collection, userID)
	if err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	if _, err := s.db.Create(ctx, s.collection, userID, docstore.Fields{"userId": userID}); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return nil
}

// Revoke removes every record in the admin collection whose userId field
// or document id is userID.
func (s *AdminStore) Revoke(ctx context.Context, userID string) error {
	if s.collection == "" {
		return fmt.Errorf("revoke admin: no admin collection configured")
	}
	if err := s.db.Delete(ctx, s.collection, userID); err != nil {
		return fmt.Errorf("revoke admin: %w", err)
	}
	docs, err := s.db.List(ctx, s.collection, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", userID)},
	})
	if err != nil {
		return fmt.Errorf("revoke admin: %w", err)
	}
	for _, d := range docs {
		if err := s.db.Delete(ctx, s.collection, d.ID); err != nil {
			return fmt.Errorf("revoke admin: %w", err)
		}
	}
	return nil
}

// List returns the user id of every membership record.
func (s *AdminStore) List(ctx context.Context) ([]string, error) {
	if s.collection == "" {
		return nil, nil
	}
	docs, err := s.db.List(ctx, s.collection, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if uid := str(d.Data, "userId"); uid != "" {
			ids = append(ids, uid)
			continue
		}
		ids = append(ids, d.ID)
	}
	return ids, nil
}
