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

// CategoryStore manages category documents.
type CategoryStore struct {
	db docstore.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db docstore.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func categoryFromDoc(d *docstore.Document) *models.Category {
	return &models.Category{
		ID:          d.ID,
		Name:        str(d.Data, "name"),
		Slug:        str(d.Data, "slug"),
		Description: str(d.Data, "description"),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func categoryFields(c *models.Category) docstore.Fields {
	return docstore.Fields{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
	}
}

// List returns all categories ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	docs, err := s.db.List(ctx, CollectionCategories, docstore.Query{
		Sort: []docstore.Sort{{Field: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	cats := make([]models.Category, 0, len(docs))
	for i := range docs {
		cats = append(cats, *categoryFromDoc(&docs[i]))
	}
	return cats, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	d, err := s.db.Get(ctx, CollectionCategories, id)
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return categoryFromDoc(d), nil
}

// Create inserts a new category. Returns ErrSlugTaken if the slug is in use.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	d, err := s.db.Create(ctx, CollectionCategories, "", categoryFields(c))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", mapConflict(err, ErrSlugTaken))
	}
	return categoryFromDoc(d), nil
}

// Update modifies an existing category. Returns nil if it does not exist.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	d, err := s.db.Update(ctx, CollectionCategories, c.ID, categoryFields(c))
	if err != nil {
		return nil, fmt.Errorf("update category: %w", mapConflict(err, ErrSlugTaken))
	}
	if d == nil {
		return nil, nil
	}
	return categoryFromDoc(d), nil
}

// Delete removes a category by ID. Posts keep their now dangling
// categoryId and render without a category.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(ctx, CollectionCategories, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
