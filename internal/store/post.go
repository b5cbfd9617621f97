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

// PostStore handles all post-related document operations.
type PostStore struct {
	db docstore.DB
}

// NewPostStore creates a new PostStore.
func NewPostStore(db docstore.DB) *PostStore {
	return &PostStore{db: db}
}

// PostFilter narrows a post listing. Empty fields are ignored.
type PostFilter struct {
	Status     models.PostStatus
	AuthorID   string
	CategoryID string
	Limit      int
	Offset     int
}

func (f PostFilter) filters() []docstore.Filter {
	var out []docstore.Filter
	if f.Status != "" {
		out = append(out, docstore.Eq("status", string(f.Status)))
	}
	if f.AuthorID != "" {
		out = append(out, docstore.Eq("authorId", f.AuthorID))
	}
	if f.CategoryID != "" {
		out = append(out, docstore.Eq("categoryId", f.CategoryID))
	}
	return out
}

// postFromDoc converts a stored document into a Post.
func postFromDoc(d *docstore.Document) *models.Post {
	return &models.Post{
		ID:               d.ID,
		AuthorID:         str(d.Data, "authorId"),
		Slug:             str(d.Data, "slug"),
		Status:           models.PostStatus(str(d.Data, "status")),
		Title:            str(d.Data, "title"),
		Description:      str(d.Data, "description"),
		Content:          str(d.Data, "content"),
		CategoryID:       str(d.Data, "categoryId"),
		Thumbnail:        str(d.Data, "thumbnail"),
		BackgroundImages: strList(d.Data, "backgroundImages"),
		ViewCount:        num(d.Data, "viewCount"),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// contentFields holds the fields an edit may change. Slug and author are
// never part of it.
func contentFields(p *models.Post) docstore.Fields {
	images := p.BackgroundImages
	if images == nil {
		images = []string{}
	}
	return docstore.Fields{
		"title":            p.Title,
		"description":      p.Description,
		"content":          p.Content,
		"categoryId":       nullable(p.CategoryID),
		"thumbnail":        p.Thumbnail,
		"backgroundImages": images,
	}
}

// Create inserts a new post. Returns ErrSlugTaken when the slug is in use.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	fields := contentFields(p)
	fields["authorId"] = p.AuthorID
	fields["slug"] = p.Slug
	fields["status"] = string(p.Status)
	fields["viewCount"] = p.ViewCount

	d, err := s.db.Create(ctx, CollectionPosts, "", fields)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", mapConflict(err, ErrSlugTaken))
	}
	return postFromDoc(d), nil
}

// FindByID retrieves a post by id. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	d, err := s.db.Get(ctx, CollectionPosts, id)
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return postFromDoc(d), nil
}

// FindBySlug retrieves a post by slug regardless of status. Returns nil if
// not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	docs, err := s.db.List(ctx, CollectionPosts, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("slug", slug)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return postFromDoc(&docs[0]), nil
}

// List returns posts matching the filter, newest first.
func (s *PostStore) List(ctx context.Context, f PostFilter) ([]models.Post, error) {
	docs, err := s.db.List(ctx, CollectionPosts, docstore.Query{
		Filters: f.filters(),
		Sort:    []docstore.Sort{{Field: docstore.FieldCreatedAt, Desc: true}},
		Limit:   f.Limit,
		Offset:  f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, *postFromDoc(&docs[i]))
	}
	return posts, nil
}

// Count returns the number of posts matching the filter. Limit and offset
// are ignored.
func (s *PostStore) Count(ctx context.Context, f PostFilter) (int, error) {
	n, err := s.db.Count(ctx, CollectionPosts, f.filters()...)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// Update writes the editable content fields of p. Slug, author, status and
// view count are left as stored. Returns nil if the post does not exist.
func (s *PostStore) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	d, err := s.db.Update(ctx, CollectionPosts, p.ID, contentFields(p))
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return postFromDoc(d), nil
}

// SetStatus persists a new moderation status. Returns nil if the post does
// not exist.
func (s *PostStore) SetStatus(ctx context.Context, id string, status models.PostStatus) (*models.Post, error) {
	d, err := s.db.Update(ctx, CollectionPosts, id, docstore.Fields{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("set post status: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return postFromDoc(d), nil
}

// IncrementViews bumps the view counter and returns the new value.
// Concurrent increments may overwrite each other.
func (s *PostStore) IncrementViews(ctx context.Context, p *models.Post) (int, error) {
	next := p.ViewCount + 1
	if _, err := s.db.Update(ctx, CollectionPosts, p.ID, docstore.Fields{"viewCount": next}); err != nil {
		return p.ViewCount, fmt.Errorf("increment post views: %w", err)
	}
	return next, nil
}

// Delete removes a post by id.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(ctx, CollectionPosts, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
