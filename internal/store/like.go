// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/docstore"
	"inkwell/internal/models"
)

// LikeStore handles like documents. A unique index on (postId, userId)
// keeps at most one like per pair.
type LikeStore struct {
	db docstore.DB
}

// NewLikeStore creates a new LikeStore.
func NewLikeStore(db docstore.DB) *LikeStore {
	return &LikeStore{db: db}
}

func likeFromDoc(d *docstore.Document) *models.Like {
	return &models.Like{
		ID:        d.ID,
		PostID:    str(d.Data, "postId"),
		UserID:    str(d.Data, "userId"),
		CreatedAt: d.CreatedAt,
	}
}

// Find returns the like of userID on postID. Returns nil if not found.
func (s *LikeStore) Find(ctx context.Context, postID, userID string) (*models.Like, error) {
	docs, err := s.db.List(ctx, CollectionLikes, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("postId", postID), docstore.Eq("userId", userID)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("find like: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return likeFromDoc(&docs[0]), nil
}

// Create records a like. Returns ErrDuplicate if the pair already exists.
func (s *LikeStore) Create(ctx context.Context, postID, userID string) (*models.Like, error) {
	d, err := s.db.Create(ctx, CollectionLikes, "", docstore.Fields{"postId": postID, "userId": userID})
	if err != nil {
		return nil, fmt.Errorf("create like: %w", mapConflict(err, ErrDuplicate))
	}
	return likeFromDoc(d), nil
}

// Toggle flips the like state of the pair and reports whether the post is
// now liked. A concurrent toggle that created the like first counts as
// liked.
func (s *LikeStore) Toggle(ctx context.Context, postID, userID string) (bool, error) {
	existing, err := s.Find(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.db.Delete(ctx, CollectionLikes, existing.ID); err != nil {
			return true, fmt.Errorf("delete like: %w", err)
		}
		return false, nil
	}

	if _, err := s.Create(ctx, postID, userID); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// CountByPost returns the number of likes on a post.
func (s *LikeStore) CountByPost(ctx context.Context, postID string) (int, error) {
	n, err := s.db.Count(ctx, CollectionLikes, docstore.Eq("postId", postID))
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// Count returns the total number of likes.
func (s *LikeStore) Count(ctx context.Context) (int, error) {
	n, err := s.db.Count(ctx, CollectionLikes)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

// DeleteByPost removes every like on a post.
func (s *LikeStore) DeleteByPost(ctx context.Context, postID string) error {
	docs, err := s.db.List(ctx, CollectionLikes, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("postId", postID)},
	})
	if err != nil {
		return fmt.Errorf("list likes: %w", err)
	}
	for _, d := range docs {
		if err := s.db.Delete(ctx, CollectionLikes, d.ID); err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
	}
	return nil
}
