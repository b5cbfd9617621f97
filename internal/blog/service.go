// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog implements the operations behind every API action: post
// authoring and moderation, likes, comments, categories and profiles.
// Each operation resolves the caller, checks the authorization policy and
// then talks to the stores. Failures are returned as *Error values tagged
// with a Kind; nothing panics.
package blog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"inkwell/internal/access"
	"inkwell/internal/models"
	"inkwell/internal/policy"
	"inkwell/internal/store"
)

// Validation limits.
const (
	MaxTitleLength       = 300
	MaxDescriptionLength = 1000
	MaxBackgroundImages  = 10
	MaxCommentLength     = 2000
	MaxNameLength        = 100

	DefaultFeedLimit = 20
	MaxFeedLimit     = 100

	// slugAttempts bounds retries when a derived slug collides.
	slugAttempts = 3

	// fanOut bounds concurrent related-record fetches for list results.
	fanOut = 8
)

// Options carries the content rules from configuration.
type Options struct {
	MinWords int
	MaxWords int
}

// Feeds caches pages of the public feed. *cache.FeedCache implements it.
type Feeds interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	InvalidateFeeds(ctx context.Context)
}

// Service implements the blog operations.
type Service struct {
	stores *store.Stores
	admins *access.Checker
	feeds  Feeds
	opts   Options
}

// NewService creates a Service. feeds may be nil to disable feed caching.
func NewService(stores *store.Stores, admins *access.Checker, feeds Feeds, opts Options) *Service {
	return &Service{stores: stores, admins: admins, feeds: feeds, opts: opts}
}

// IsAdmin reports whether userID is an admin.
func (s *Service) IsAdmin(ctx context.Context, userID string) bool {
	return s.admins.IsAdmin(ctx, userID)
}

// caller resolves the identity an operation runs as. Admin membership is
// looked up on every call.
func (s *Service) caller(ctx context.Context, userID string) (policy.Caller, error) {
	if userID == "" {
		return policy.Caller{}, notAuthenticated()
	}
	return policy.Caller{UserID: userID, IsAdmin: s.admins.IsAdmin(ctx, userID)}, nil
}

// check converts a denied decision into an error.
func check(d policy.Decision) error {
	if !d.Allowed {
		return notAuthorized(d.Reason)
	}
	return nil
}

// loadPost fetches a post or reports it missing.
func (s *Service) loadPost(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.stores.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, upstream(err)
	}
	if p == nil {
		return nil, notFound("post")
	}
	return p, nil
}

// visible reports whether c may see p. Unpublished posts are only visible
// to their author and admins.
func visible(c policy.Caller, p *models.Post) bool {
	return p.IsPublished() || policy.CanModify(c, p).Allowed
}

// view resolves the author, category and like count of a post in
// parallel. Each lookup is independent; a missing author or category
// leaves the field nil.
func (s *Service) view(ctx context.Context, p *models.Post) (*models.PostView, error) {
	v := &models.PostView{Post: *p}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		author, err := s.stores.Profiles.FindByID(gctx, p.AuthorID)
		v.Author = author
		return err
	})
	if p.CategoryID != "" {
		g.Go(func() error {
			cat, err := s.stores.Categories.FindByID(gctx, p.CategoryID)
			v.Category = cat
			return err
		})
	}
	g.Go(func() error {
		n, err := s.stores.Likes.CountByPost(gctx, p.ID)
		v.LikeCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, upstream(err)
	}
	return v, nil
}

// views resolves a list of posts, a bounded number at a time.
func (s *Service) views(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	out := make([]models.PostView, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i := range posts {
		g.Go(func() error {
			v, err := s.view(gctx, &posts[i])
			if err != nil {
				return err
			}
			out[i] = *v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// invalidateFeeds clears cached public feeds after a post mutation or a
// like toggle. View counts are not invalidated and may lag by one TTL.
func (s *Service) invalidateFeeds(ctx context.Context) {
	if s.feeds == nil {
		return
	}
	s.feeds.InvalidateFeeds(ctx)
}
