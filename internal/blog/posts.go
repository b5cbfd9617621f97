// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"inkwell/internal/cache"
	"inkwell/internal/markdown"
	"inkwell/internal/models"
	"inkwell/internal/policy"
	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// PostInput holds the author-supplied fields of a post. Slug is only read
// on creation; edits keep the stored slug.
type PostInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Content          string   `json:"content"`
	CategoryID       string   `json:"categoryId"`
	Thumbnail        string   `json:"thumbnail"`
	BackgroundImages []string `json:"backgroundImages"`
	Slug             string   `json:"slug"`
}

// FeedQuery selects a page of the published feed.
type FeedQuery struct {
	CategoryID string
	Limit      int
	Offset     int
}

// Feed is one page of published posts.
type Feed struct {
	Posts  []models.PostView `json:"posts"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// validatePost checks field-level rules and normalizes in place.
func (s *Service) validatePost(ctx context.Context, in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.Thumbnail = strings.TrimSpace(in.Thumbnail)

	if in.Title == "" {
		return invalid("title is required")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return invalid("title must be at most %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return invalid("description must be at most %d characters", MaxDescriptionLength)
	}

	words := markdown.WordCount(in.Content)
	if words < s.opts.MinWords {
		return invalid("content must have at least %d words, got %d", s.opts.MinWords, words)
	}
	if s.opts.MaxWords > 0 && words > s.opts.MaxWords {
		return invalid("content must have at most %d words, got %d", s.opts.MaxWords, words)
	}

	var images []string
	for _, img := range in.BackgroundImages {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) > MaxBackgroundImages {
		return invalid("at most %d background images are allowed", MaxBackgroundImages)
	}
	in.BackgroundImages = images

	if in.CategoryID != "" {
		cat, err := s.stores.Categories.FindByID(ctx, in.CategoryID)
		if err != nil {
			return upstream(err)
		}
		if cat == nil {
			return notFound("category")
		}
	}
	return nil
}

func applyInput(p *models.Post, in *PostInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.Content = in.Content
	p.CategoryID = in.CategoryID
	p.Thumbnail = in.Thumbnail
	p.BackgroundImages = in.BackgroundImages
}

// CreatePost creates a pending post owned by the caller. Non-admins need a
// writer profile. A caller-chosen slug that is taken is a conflict; a
// derived slug that collides is derived again.
func (s *Service) CreatePost(ctx context.Context, userID string, in PostInput) (*models.Post, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !c.IsAdmin {
		profile, err := s.stores.Profiles.FindByID(ctx, c.UserID)
		if err != nil {
			return nil, upstream(err)
		}
		if profile == nil || !profile.CanWrite() {
			return nil, notAuthorized("a writer profile is required to create posts")
		}
	}

	if err := s.validatePost(ctx, &in); err != nil {
		return nil, err
	}
	explicit := strings.TrimSpace(in.Slug)
	if explicit != "" && !slug.Valid(explicit) {
		return nil, invalid("slug may only contain lowercase letters, digits and single hyphens")
	}

	p := &models.Post{AuthorID: c.UserID, Status: models.PostStatusPending}
	applyInput(p, &in)

	var created *models.Post
	for attempt := 1; ; attempt++ {
		p.Slug = explicit
		if p.Slug == "" {
			p.Slug = slug.Derive(in.Title)
		}
		created, err = s.stores.Posts.Create(ctx, p)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrSlugTaken) {
			return nil, upstream(err)
		}
		if explicit != "" || attempt >= slugAttempts {
			return nil, conflict("slug already exists", err)
		}
		slog.Debug("derived slug collided, retrying", "slug", p.Slug, "attempt", attempt)
	}

	s.invalidateFeeds(ctx)
	slog.Info("post created", "post_id", created.ID, "author_id", created.AuthorID, "slug", created.Slug)
	return created, nil
}

// UpdatePost edits a post from the admin dashboard. Admins and the author
// may edit in any status.
func (s *Service) UpdatePost(ctx context.Context, userID, postID string, in PostInput) (*models.Post, error) {
	return s.updatePost(ctx, userID, postID, in, policy.CanEdit)
}

// UpdatePostAsAuthor edits a post from the author dashboard. Authors
// cannot edit published posts.
func (s *Service) UpdatePostAsAuthor(ctx context.Context, userID, postID string, in PostInput) (*models.Post, error) {
	return s.updatePost(ctx, userID, postID, in, policy.CanEditAsAuthor)
}

func (s *Service) updatePost(ctx context.Context, userID, postID string, in PostInput, rule func(policy.Caller, *models.Post) policy.Decision) (*models.Post, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := check(rule(c, p)); err != nil {
		return nil, err
	}
	if err := s.validatePost(ctx, &in); err != nil {
		return nil, err
	}

	applyInput(p, &in)
	updated, err := s.stores.Posts.Update(ctx, p)
	if err != nil {
		return nil, upstream(err)
	}
	if updated == nil {
		return nil, notFound("post")
	}

	s.invalidateFeeds(ctx)
	slog.Info("post updated", "post_id", updated.ID, "by", c.UserID)
	return updated, nil
}

// SetPostStatus moves a post to any status. Admins and the author may.
func (s *Service) SetPostStatus(ctx context.Context, userID, postID, status string) (*models.Post, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := models.ParsePostStatus(status)
	if err != nil {
		return nil, invalid("status must be one of pending, published or rejected")
	}
	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := check(policy.CanChangeStatus(c, p)); err != nil {
		return nil, err
	}
	if !models.CanTransition(p.Status, next) {
		return nil, invalid("cannot move post from %q to %q", p.Status, next)
	}

	updated, err := s.stores.Posts.SetStatus(ctx, p.ID, next)
	if err != nil {
		return nil, upstream(err)
	}
	if updated == nil {
		return nil, notFound("post")
	}

	s.invalidateFeeds(ctx)
	slog.Info("post status changed", "post_id", p.ID, "from", p.Status, "to", next, "by", c.UserID)
	return updated, nil
}

// Approve publishes a post.
func (s *Service) Approve(ctx context.Context, userID, postID string) (*models.Post, error) {
	return s.SetPostStatus(ctx, userID, postID, string(models.PostStatusPublished))
}

// Reject marks a post as rejected.
func (s *Service) Reject(ctx context.Context, userID, postID string) (*models.Post, error) {
	return s.SetPostStatus(ctx, userID, postID, string(models.PostStatusRejected))
}

// DeletePost removes a post with its likes and comments. Authors must
// unpublish first; admins may delete in any status.
func (s *Service) DeletePost(ctx context.Context, userID, postID string) error {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return err
	}
	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := check(policy.CanDelete(c, p)); err != nil {
		return err
	}

	if err := s.stores.Posts.Delete(ctx, p.ID); err != nil {
		return upstream(err)
	}
	if err := s.stores.Likes.DeleteByPost(ctx, p.ID); err != nil {
		slog.Warn("failed to delete likes of removed post", "post_id", p.ID, "error", err)
	}
	if err := s.stores.Comments.DeleteByPost(ctx, p.ID); err != nil {
		slog.Warn("failed to delete comments of removed post", "post_id", p.ID, "error", err)
	}

	s.invalidateFeeds(ctx)
	slog.Info("post deleted", "post_id", p.ID, "by", c.UserID)
	return nil
}

// GetPost returns a post by id with related records. Unpublished posts
// are only visible to their author and admins.
func (s *Service) GetPost(ctx context.Context, userID, postID string) (*models.PostView, error) {
	c := policy.Caller{UserID: userID}
	if userID != "" {
		c.IsAdmin = s.admins.IsAdmin(ctx, userID)
	}
	p, err := s.loadPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !visible(c, p) {
		return nil, notFound("post")
	}
	return s.view(ctx, p)
}

// GetPublishedPost returns a published post by slug, rendered to HTML,
// and counts the read.
func (s *Service) GetPublishedPost(ctx context.Context, postSlug string) (*models.PostView, error) {
	p, err := s.stores.Posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, upstream(err)
	}
	if p == nil || !p.IsPublished() {
		return nil, notFound("post")
	}

	views, err := s.stores.Posts.IncrementViews(ctx, p)
	if err != nil {
		slog.Warn("failed to count post view", "post_id", p.ID, "error", err)
	}
	p.ViewCount = views

	v, err := s.view(ctx, p)
	if err != nil {
		return nil, err
	}
	html, err := markdown.ToHTML(p.Content)
	if err != nil {
		return nil, upstream(err)
	}
	v.HTML = html
	return v, nil
}

// ListPublished returns a page of the public feed, newest first. Pages
// are served from the feed cache when possible.
func (s *Service) ListPublished(ctx context.Context, q FeedQuery) (*Feed, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultFeedLimit
	}
	if q.Limit > MaxFeedLimit {
		q.Limit = MaxFeedLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	if s.feeds == nil {
		return s.loadFeed(ctx, q)
	}
	key := cache.FeedKey(q.CategoryID, q.Limit, q.Offset)
	if body, ok := s.feeds.Get(ctx, key); ok {
		var feed Feed
		if err := json.Unmarshal(body, &feed); err == nil {
			return &feed, nil
		}
	}

	feed, err := s.loadFeed(ctx, q)
	if err != nil {
		return nil, err
	}
	if body, err := json.Marshal(feed); err == nil {
		s.feeds.Set(ctx, key, body)
	}
	return feed, nil
}

func (s *Service) loadFeed(ctx context.Context, q FeedQuery) (*Feed, error) {
	filter := store.PostFilter{
		Status:     models.PostStatusPublished,
		CategoryID: q.CategoryID,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	posts, err := s.stores.Posts.List(ctx, filter)
	if err != nil {
		return nil, upstream(err)
	}
	total, err := s.stores.Posts.Count(ctx, filter)
	if err != nil {
		return nil, upstream(err)
	}
	views, err := s.views(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &Feed{Posts: views, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// ListByAuthor returns every post of the caller, newest first.
func (s *Service) ListByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.stores.Posts.List(ctx, store.PostFilter{AuthorID: c.UserID})
	if err != nil {
		return nil, upstream(err)
	}
	return posts, nil
}

// ListForModeration returns posts for the admin dashboard, optionally
// narrowed to one status.
func (s *Service) ListForModeration(ctx context.Context, userID, status string) ([]models.PostView, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := check(policy.CanModerate(c)); err != nil {
		return nil, err
	}

	var filter store.PostFilter
	if status != "" {
		st, err := models.ParsePostStatus(status)
		if err != nil {
			return nil, invalid("status must be one of pending, published or rejected")
		}
		filter.Status = st
	}
	posts, err := s.stores.Posts.List(ctx, filter)
	if err != nil {
		return nil, upstream(err)
	}
	return s.views(ctx, posts)
}

// Stats summarizes content for the admin dashboard.
func (s *Service) Stats(ctx context.Context, userID string) (*models.PostStats, error) {
	c, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := check(policy.CanModerate(c)); err != nil {
		return nil, err
	}

	var st models.PostStats
	counts := []struct {
		dst    *int
		status models.PostStatus
	}{
		{&st.Total, ""},
		{&st.Pending, models.PostStatusPending},
		{&st.Published, models.PostStatusPublished},
		{&st.Rejected, models.PostStatusRejected},
	}
	for _, cnt := range counts {
		n, err := s.stores.Posts.Count(ctx, store.PostFilter{Status: cnt.status})
		if err != nil {
			return nil, upstream(err)
		}
		*cnt.dst = n
	}
	if st.Comments, err = s.stores.Comments.Count(ctx); err != nil {
		return nil, upstream(err)
	}
	if st.Likes, err = s.stores.Likes.Count(ctx); err != nil {
		return nil, upstream(err)
	}
	return &st, nil
}
