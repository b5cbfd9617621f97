// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"inkwell/internal/docstore"
	"inkwell/internal/models"
)

// ProfileStore handles profile documents. A profile is stored under its
// owner's user id.
type ProfileStore struct {
	db docstore.DB
}

// NewProfileStore creates a new ProfileStore.
func NewProfileStore(db docstore.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func profileFromDoc(d *docstore.Document) *models.Profile {
	return &models.Profile{
		ID:        d.ID,
		Role:      models.ProfileRole(str(d.Data, "role")),
		Name:      str(d.Data, "name"),
		Image:     str(d.Data, "image"),
		Phone:     str(d.Data, "phone"),
		DOB:       str(d.Data, "dob"),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// detailFields holds the fields a profile owner may change.
func detailFields(p *models.Profile) docstore.Fields {
	return docstore.Fields{
		"name":  p.Name,
		"image": p.Image,
		"phone": p.Phone,
		"dob":   p.DOB,
	}
}

// Create inserts the profile of user p.ID. Returns ErrDuplicate if the user
// already has one.
func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	fields := detailFields(p)
	fields["role"] = string(p.Role)

	d, err := s.db.Create(ctx, CollectionProfiles, p.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", mapConflict(err, ErrDuplicate))
	}
	return profileFromDoc(d), nil
}

// FindByID retrieves a profile by user id. Returns nil if not found.
func (s *ProfileStore) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	d, err := s.db.Get(ctx, CollectionProfiles, id)
	if err != nil {
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return profileFromDoc(d), nil
}

// Update writes the editable details of p. The role is never changed.
// Returns nil if the profile does not exist.
func (s *ProfileStore) Update(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	d, err := s.db.Update(ctx, CollectionProfiles, p.ID, detailFields(p))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return profileFromDoc(d), nil
}
