// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"inkwell/internal/models"
	"inkwell/internal/policy"
)

// visiblePost loads a post the caller is allowed to see.
func (s *Service) visiblePost(ctx context.Context, c policy.Caller, postID string) (*models.Post, error) {
	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !visible(c, p) {
		return nil, notFound("post")
	}
	return p, nil
}

// ToggleLike likes the post if the caller has not, and unlikes it
// otherwise.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (*models.LikeState, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visiblePost(ctx, c, postID); err != nil {
		return nil, err
	}

	liked, err := s.stores.Likes.Toggle(ctx, postID, c.UserID)
	if err != nil {
		return nil, upstream(err)
	}
	// Feed pages embed like counts.
	s.invalidateFeeds(ctx)

	count, err := s.stores.Likes.CountByPost(ctx, postID)
	if err != nil {
		return nil, upstream(err)
	}
	return &models.LikeState{Liked: liked, Count: count}, nil
}

// LikeState returns the like count of a post and whether userID liked it.
// An anonymous caller gets the count only.
func (s *Service) LikeState(ctx context.Context, userID, postID string) (*models.LikeState, error) {
	c := policy.Caller{UserID: userID}
	if userID != "" {
		c.IsAdmin = s.admins.IsAdmin(ctx, userID)
	}
	if _, err := s.visiblePost(ctx, c, postID); err != nil {
		return nil, err
	}

	var st models.LikeState
	count, err := s.stores.Likes.CountByPost(ctx, postID)
	if err != nil {
		return nil, upstream(err)
	}
	st.Count = count
	if userID != "" {
		like, err := s.stores.Likes.Find(ctx, postID, userID)
		if err != nil {
			return nil, upstream(err)
		}
		st.Liked = like != nil
	}
	return &st, nil
}

func validateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", invalid("comment must be at most %d characters", MaxCommentLength)
	}
	return content, nil
}

// AddComment posts a comment as the caller.
func (s *Service) AddComment(ctx context.Context, userID, postID, content string) (*models.Comment, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	content, err = validateComment(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.visiblePost(ctx, c, postID); err != nil {
		return nil, err
	}

	cm, err := s.stores.Comments.Create(ctx, &models.Comment{PostID: postID, UserID: c.UserID, Content: content})
	if err != nil {
		return nil, upstream(err)
	}
	slog.Info("comment added", "comment_id", cm.ID, "post_id", postID, "user_id", c.UserID)
	return cm, nil
}

func (s *Service) loadComment(ctx context.Context, id string) (*models.Comment, error) {
	cm, err := s.stores.Comments.FindByID(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if cm == nil {
		return nil, notFound("comment")
	}
	return cm, nil
}

// EditComment replaces the text of a comment. Only admins may.
func (s *Service) EditComment(ctx context.Context, userID, commentID, content string) (*models.Comment, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	cm, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := check(policy.CanEditComment(c, cm)); err != nil {
		return nil, err
	}
	content, err = validateComment(content)
	if err != nil {
		return nil, err
	}

	updated, err := s.stores.Comments.UpdateContent(ctx, cm.ID, content)
	if err != nil {
		return nil, upstream(err)
	}
	if updated == nil {
		return nil, notFound("comment")
	}
	return updated, nil
}

// DeleteComment removes a comment. Its author and admins may.
func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return err
	}
	cm, err := s.loadComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := check(policy.CanDeleteComment(c, cm)); err != nil {
		return err
	}
	if err := s.stores.Comments.Delete(ctx, cm.ID); err != nil {
		return upstream(err)
	}
	slog.Info("comment deleted", "comment_id", cm.ID, "by", c.UserID)
	return nil
}

// ListComments returns the comments on a post, oldest first, with their
// authors' profiles.
func (s *Service) ListComments(ctx context.Context, userID, postID string) ([]models.Comment, error) {
	c := policy.Caller{UserID: userID}
	if userID != "" {
		c.IsAdmin = s.admins.IsAdmin(ctx, userID)
	}
	if _, err := s.visiblePost(ctx, c, postID); err != nil {
		return nil, err
	}

	comments, err := s.stores.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, upstream(err)
	}

	authors := make(map[string]*models.Profile)
	for _, cm := range comments {
		authors[cm.UserID] = nil
	}
	ids := make([]string, 0, len(authors))
	for id := range authors {
		ids = append(ids, id)
	}
	profiles := make([]*models.Profile, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.stores.Profiles.FindByID(gctx, id)
			profiles[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstream(err)
	}
	for i, id := range ids {
		authors[id] = profiles[i]
	}
	for i := range comments {
		comments[i].Author = authors[comments[i].UserID]
	}
	return comments, nil
}
