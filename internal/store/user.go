// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"

	"inkwell/internal/docstore"
	"inkwell/internal/models"
)

// UserStore handles sign-in accounts.
type UserStore struct {
	db docstore.DB
}

// NewUserStore creates a new UserStore.
func NewUserStore(db docstore.DB) *UserStore {
	return &UserStore{db: db}
}

func userFromDoc(d *docstore.Document) *models.User {
	return &models.User{
		ID:          d.ID,
		Email:       str(d.Data, "email"),
		TOTPSecret:  optStr(d.Data, "totpSecret"),
		TOTPEnabled: boolean(d.Data, "totpEnabled"),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// normalizeEmail lowercases and trims an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail retrieves a user by email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.db.List(ctx, CollectionUsers, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("email", normalizeEmail(email))},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return userFromDoc(&docs[0]), nil
}

// FindByID retrieves a user by id. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	d, err := s.db.Get(ctx, CollectionUsers, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return userFromDoc(d), nil
}

// Create inserts a new account. Returns ErrDuplicate if the email is taken.
func (s *UserStore) Create(ctx context.Context, email string) (*models.User, error) {
	d, err := s.db.Create(ctx, CollectionUsers, "", docstore.Fields{
		"email":       normalizeEmail(email),
		"totpSecret":  nil,
		"totpEnabled": false,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", mapConflict(err, ErrDuplicate))
	}
	return userFromDoc(d), nil
}

// FindOrCreate returns the account for email, creating it on first sign-in.
func (s *UserStore) FindOrCreate(ctx context.Context, email string) (*models.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil || u != nil {
		return u, err
	}
	u, err = s.Create(ctx, email)
	if err == nil {
		return u, nil
	}
	// Lost a race with a concurrent first sign-in.
	if existing, ferr := s.FindByEmail(ctx, email); ferr == nil && existing != nil {
		return existing, nil
	}
	return nil, err
}

// SetTOTPSecret saves a pending authenticator secret. It stays inactive
// until EnableTOTP.
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	_, err := s.db.Update(ctx, CollectionUsers, userID, docstore.Fields{
		"totpSecret":  secret,
		"totpEnabled": false,
	})
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks the authenticator as active.
func (s *UserStore) EnableTOTP(ctx context.Context, userID string) error {
	_, err := s.db.Update(ctx, CollectionUsers, userID, docstore.Fields{"totpEnabled": true})
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the authenticator so the account falls back to emailed
// codes.
func (s *UserStore) ResetTOTP(ctx context.Context, userID string) error {
	_, err := s.db.Update(ctx, CollectionUsers, userID, docstore.Fields{
		"totpSecret":  nil,
		"totpEnabled": false,
	})
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}
