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

// CommentStore handles comment documents.
type CommentStore struct {
	db docstore.DB
}

// NewCommentStore creates a new CommentStore.
func NewCommentStore(db docstore.DB) *CommentStore {
	return &CommentStore{db: db}
}

func commentFromDoc(d *docstore.Document) *models.Comment {
	return &models.Comment{
		ID:        d.ID,
		PostID:    str(d.Data, "postId"),
		UserID:    str(d.Data, "userId"),
		Content:   str(d.Data, "content"),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Create inserts a new comment.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	d, err := s.db.Create(ctx, CollectionComments, "", docstore.Fields{
		"postId":  c.PostID,
		"userId":  c.UserID,
		"content": c.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return commentFromDoc(d), nil
}

// FindByID retrieves a comment by id. Returns nil if not found.
func (s *CommentStore) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	d, err := s.db.Get(ctx, CollectionComments, id)
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return commentFromDoc(d), nil
}

// ListByPost returns the comments on a post, oldest first.
func (s *CommentStore) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	docs, err := s.db.List(ctx, CollectionComments, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("postId", postID)},
		Sort:    []docstore.Sort{{Field: docstore.FieldCreatedAt}},
	})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]models.Comment, 0, len(docs))
	for i := range docs {
		comments = append(comments, *commentFromDoc(&docs[i]))
	}
	return comments, nil
}

// UpdateContent replaces the text of a comment. Returns nil if the comment
// does not exist.
func (s *CommentStore) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	d, err := s.db.Update(ctx, CollectionComments, id, docstore.Fields{"content": content})
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if d == nil {
		return nil, nil
	}
	return commentFromDoc(d), nil
}

// Delete removes a comment by id.
func (s *CommentStore) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(ctx, CollectionComments, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// DeleteByPost removes every comment on a post.
func (s *CommentStore) DeleteByPost(ctx context.Context, postID string) error {
	comments, err := s.ListByPost(ctx, postID)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if err := s.Delete(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the total number of comments.
func (s *CommentStore) Count(ctx context.Context) (int, error) {
	n, err := s.db.Count(ctx, CollectionComments)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}
