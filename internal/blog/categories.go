// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"inkwell/internal/models"
	"inkwell/internal/policy"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// CategoryInput holds the editable fields of a category. An empty slug is
// generated from the name.
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func validateCategory(in *CategoryInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return invalid("name is required")
	}
	if utf8.RuneCountInString(in.Name) > MaxNameLength {
		return invalid("name must be at most %d characters", MaxNameLength)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return invalid("description must be at most %d characters", MaxDescriptionLength)
	}
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Name)
	}
	if !slug.Valid(in.Slug) {
		return invalid("slug may only contain lowercase letters, digits and single hyphens")
	}
	return nil
}

// ListCategories returns all categories with their published post counts.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.stores.Categories.List(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	for i := range cats {
		n, err := s.stores.Posts.Count(ctx, store.PostFilter{
			Status:     models.PostStatusPublished,
			CategoryID: cats[i].ID,
		})
		if err != nil {
			return nil, upstream(err)
		}
		cats[i].PostCount = n
	}
	return cats, nil
}

// CreateCategory adds a category. Only admins may.
func (s *Service) CreateCategory(ctx context.Context, userID string, in CategoryInput) (*models.Category, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := check(policy.CanManageCategories(c)); err != nil {
		return nil, err
	}
	if err := validateCategory(&in); err != nil {
		return nil, err
	}

	cat, err := s.stores.Categories.Create(ctx, &models.Category{Name: in.Name, Slug: in.Slug, Description: in.Description})
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, conflict("a category with this slug already exists", err)
	}
	if err != nil {
		return nil, upstream(err)
	}
	slog.Info("category created", "category_id", cat.ID, "slug", cat.Slug)
	return cat, nil
}

// UpdateCategory edits a category. Only admins may.
func (s *Service) UpdateCategory(ctx context.Context, userID, categoryID string, in CategoryInput) (*models.Category, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := check(policy.CanManageCategories(c)); err != nil {
		return nil, err
	}
	if err := validateCategory(&in); err != nil {
		return nil, err
	}

	cat, err := s.stores.Categories.Update(ctx, &models.Category{ID: categoryID, Name: in.Name, Slug: in.Slug, Description: in.Description})
	if errors.Is(err, store.ErrSlugTaken) {
		return nil, conflict("a category with this slug already exists", err)
	}
	if err != nil {
		return nil, upstream(err)
	}
	if cat == nil {
		return nil, notFound("category")
	}
	s.invalidateFeeds(ctx)
	return cat, nil
}

// DeleteCategory removes a category. Posts filed under it keep rendering
// without one. Only admins may.
func (s *Service) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return err
	}
	if err := check(policy.CanManageCategories(c)); err != nil {
		return err
	}
	cat, err := s.stores.Categories.FindByID(ctx, categoryID)
	if err != nil {
		return upstream(err)
	}
	if cat == nil {
		return notFound("category")
	}
	if err := s.stores.Categories.Delete(ctx, categoryID); err != nil {
		return upstream(err)
	}
	s.invalidateFeeds(ctx)
	slog.Info("category deleted", "category_id", categoryID, "by", c.UserID)
	return nil
}
