// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// ProfileInput holds profile fields. Role is only read on creation.
type ProfileInput struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Phone string `json:"phone"`
	DOB   string `json:"dob"`
}

func validateProfile(in *ProfileInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = strings.TrimSpace(in.Image)
	in.Phone = strings.TrimSpace(in.Phone)
	in.DOB = strings.TrimSpace(in.DOB)

	if in.Name == "" {
		return invalid("name is required")
	}
	if utf8.RuneCountInString(in.Name) > MaxNameLength {
		return invalid("name must be at most %d characters", MaxNameLength)
	}
	if len(in.Phone) > 32 {
		return invalid("phone number is too long")
	}
	if in.DOB != "" {
		dob, err := time.Parse(time.DateOnly, in.DOB)
		if err != nil {
			return invalid("date of birth must be YYYY-MM-DD")
		}
		if dob.After(time.Now()) {
			return invalid("date of birth cannot be in the future")
		}
	}
	return nil
}

// CreateProfile creates the caller's profile. Each user has one; the role
// is fixed from then on.
func (s *Service) CreateProfile(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	role := models.ProfileRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if !role.Valid() {
		return nil, invalid("role must be reader or writer")
	}
	if err := validateProfile(&in); err != nil {
		return nil, err
	}

	p, err := s.stores.Profiles.Create(ctx, &models.Profile{
		ID:    c.UserID,
		Role:  role,
		Name:  in.Name,
		Image: in.Image,
		Phone: in.Phone,
		DOB:   in.DOB,
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict("profile already exists", err)
	}
	if err != nil {
		return nil, upstream(err)
	}
	return p, nil
}

// UpdateProfile edits the caller's name, image, phone and date of birth.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.Profile, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := validateProfile(&in); err != nil {
		return nil, err
	}

	p, err := s.stores.Profiles.Update(ctx, &models.Profile{
		ID:    c.UserID,
		Name:  in.Name,
		Image: in.Image,
		Phone: in.Phone,
		DOB:   in.DOB,
	})
	if err != nil {
		return nil, upstream(err)
	}
	if p == nil {
		return nil, notFound("profile")
	}
	return p, nil
}

// GetProfile returns a profile by user id.
func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.stores.Profiles.FindByID(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if p == nil {
		return nil, notFound("profile")
	}
	return p, nil
}
