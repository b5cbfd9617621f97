// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"inkwell/internal/access"
	"inkwell/internal/docstore"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

var derivedSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*-\d{6}$`)

func (s *serviceSuite) TestCreatePost_Defaults() {
	p := s.newPost(writerID, "Hello, World!")

	s.Equal(models.PostStatusPending, p.Status)
	s.Equal(writerID, p.AuthorID)
	s.Regexp(derivedSlug, p.Slug)
	s.True(strings.HasPrefix(p.Slug, "hello-world-"))
	s.Equal(0, p.ViewCount)
}

func (s *serviceSuite) TestCreatePost_RequiresIdentity() {
	_, err := s.svc.CreatePost(s.ctx, "", PostInput{Title: "x", Content: "words"})
	s.requireKind(err, KindNotAuthenticated)
}

func (s *serviceSuite) TestCreatePost_RequiresWriterProfile() {
	_, err := s.svc.CreatePost(s.ctx, readerID, PostInput{Title: "x", Content: "words"})
	s.requireKind(err, KindNotAuthorized)

	_, err = s.svc.CreatePost(s.ctx, "no-profile", PostInput{Title: "x", Content: "words"})
	s.requireKind(err, KindNotAuthorized)

	// Admins do not need a profile.
	_, err = s.svc.CreatePost(s.ctx, adminID, PostInput{Title: "x", Content: "words"})
	s.NoError(err)
}

func (s *serviceSuite) TestCreatePost_Validation() {
	tests := []struct {
		name string
		in   PostInput
		kind Kind
	}{
		{"missing title", PostInput{Title: "  ", Content: "words"}, KindValidation},
		{"long title", PostInput{Title: strings.Repeat("a", MaxTitleLength+1), Content: "words"}, KindValidation},
		{"long description", PostInput{Title: "t", Description: strings.Repeat("d", MaxDescriptionLength+1), Content: "words"}, KindValidation},
		{"empty content", PostInput{Title: "t", Content: "   "}, KindValidation},
		{"too many words", PostInput{Title: "t", Content: strings.Repeat("word ", 51)}, KindValidation},
		{"too many images", PostInput{Title: "t", Content: "words", BackgroundImages: images(MaxBackgroundImages + 1)}, KindValidation},
		{"bad slug", PostInput{Title: "t", Content: "words", Slug: "Not A Slug"}, KindValidation},
		{"unknown category", PostInput{Title: "t", Content: "words", CategoryID: "missing"}, KindNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.CreatePost(s.ctx, writerID, tt.in)
			s.requireKind(err, tt.kind)
		})
	}
}

func images(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "img"
	}
	return out
}

func (s *serviceSuite) TestCreatePost_ExplicitSlugConflict() {
	_, err := s.svc.CreatePost(s.ctx, writerID, PostInput{Title: "a", Content: "words", Slug: "my-post"})
	s.Require().NoError(err)

	_, err = s.svc.CreatePost(s.ctx, otherID, PostInput{Title: "b", Content: "words", Slug: "my-post"})
	s.requireKind(err, KindConflict)
}

func (s *serviceSuite) TestCreatePost_SameTitleDistinctSlugs() {
	a := s.newPost(writerID, "Same Title")
	b := s.newPost(writerID, "Same Title")
	s.NotEqual(a.Slug, b.Slug)
}

// collidingDB reports a slug conflict for the first fail post inserts and
// records every slug it was asked to store.
type collidingDB struct {
	docstore.DB
	fail  int
	slugs []string
}

func (d *collidingDB) Create(ctx context.Context, collection, id string, fields docstore.Fields) (*docstore.Document, error) {
	if collection == store.CollectionPosts {
		slug, _ := fields["slug"].(string)
		d.slugs = append(d.slugs, slug)
		if len(d.slugs) <= d.fail {
			return nil, fmt.Errorf("insert: %w", docstore.ErrConflict)
		}
	}
	return d.DB.Create(ctx, collection, id, fields)
}

func (s *serviceSuite) collidingService(fail int) (*Service, *collidingDB) {
	db := &collidingDB{DB: s.db, fail: fail}
	return NewService(store.New(db), access.NewChecker(s.db, "admins"), nil, Options{MinWords: 1, MaxWords: 50}), db
}

func (s *serviceSuite) TestCreatePost_DerivedSlugRetries() {
	tests := []struct {
		name string
		fail int
	}{
		{"first try", 0},
		{"one collision", 1},
		{"two collisions", 2},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			svc, db := s.collidingService(tt.fail)
			p, err := svc.CreatePost(s.ctx, writerID, PostInput{Title: "Hello", Content: "Some words here"})
			s.Require().NoError(err)

			s.Require().Len(db.slugs, tt.fail+1)
			s.Equal(db.slugs[tt.fail], p.Slug)
			seen := make(map[string]bool)
			for _, sl := range db.slugs {
				s.Regexp(derivedSlug, sl)
				s.False(seen[sl], "slug %s tried twice", sl)
				seen[sl] = true
			}
		})
	}
}

func (s *serviceSuite) TestCreatePost_DerivedSlugGivesUp() {
	svc, db := s.collidingService(slugAttempts)
	_, err := svc.CreatePost(s.ctx, writerID, PostInput{Title: "Hello", Content: "Some words here"})
	s.requireKind(err, KindConflict)
	s.Len(db.slugs, slugAttempts)
}

func (s *serviceSuite) TestCreatePost_ExplicitSlugNotRetried() {
	svc, db := s.collidingService(1)
	_, err := svc.CreatePost(s.ctx, writerID, PostInput{Title: "Hello", Content: "Some words here", Slug: "chosen"})
	s.requireKind(err, KindConflict)
	s.Equal([]string{"chosen"}, db.slugs)
}

// TestUpdatePost_KeepsSlugAndAuthor verifies slug and author survive any
// sequence of edits, including title changes.
func (s *serviceSuite) TestUpdatePost_KeepsSlugAndAuthor() {
	p := s.newPost(writerID, "Original")

	for _, title := range []string{"Renamed", "Renamed Again", "Totally Different"} {
		updated, err := s.svc.UpdatePost(s.ctx, writerID, p.ID, PostInput{Title: title, Content: "words", Slug: "ignored-slug"})
		s.Require().NoError(err)
		s.Equal(title, updated.Title)
		s.Equal(p.Slug, updated.Slug)
		s.Equal(writerID, updated.AuthorID)
	}

	updated, err := s.svc.UpdatePost(s.ctx, adminID, p.ID, PostInput{Title: "By admin", Content: "words"})
	s.Require().NoError(err)
	s.Equal(p.Slug, updated.Slug)
	s.Equal(writerID, updated.AuthorID)
}

func (s *serviceSuite) TestUpdatePost_NonOwnerDenied() {
	p := s.newPost(writerID, "Mine")
	_, err := s.svc.UpdatePost(s.ctx, otherID, p.ID, PostInput{Title: "Yours", Content: "words"})
	s.requireKind(err, KindNotAuthorized)
}

func (s *serviceSuite) TestUpdatePost_Missing() {
	_, err := s.svc.UpdatePost(s.ctx, writerID, "missing", PostInput{Title: "x", Content: "words"})
	s.requireKind(err, KindNotFound)
}

// TestEditPaths verifies the author path freezes published posts while the
// general path does not.
func (s *serviceSuite) TestEditPaths() {
	p := s.newPost(writerID, "Frozen")
	_, err := s.svc.Approve(s.ctx, adminID, p.ID)
	s.Require().NoError(err)

	_, err = s.svc.UpdatePostAsAuthor(s.ctx, writerID, p.ID, PostInput{Title: "Edit", Content: "words"})
	s.requireKind(err, KindNotAuthorized)

	_, err = s.svc.UpdatePost(s.ctx, writerID, p.ID, PostInput{Title: "Edit", Content: "words"})
	s.NoError(err)

	_, err = s.svc.UpdatePostAsAuthor(s.ctx, adminID, p.ID, PostInput{Title: "Admin edit", Content: "words"})
	s.NoError(err)
}

// TestStatusTransitions verifies that all statuses are mutually reachable
// and that status changes touch nothing else.
func (s *serviceSuite) TestStatusTransitions() {
	p := s.newPost(writerID, "Moves")
	_, err := s.svc.ToggleLike(s.ctx, writerID, p.ID)
	s.Require().NoError(err)

	sequence := []models.PostStatus{
		models.PostStatusPublished, models.PostStatusPending, models.PostStatusRejected,
		models.PostStatusPublished, models.PostStatusRejected, models.PostStatusPending,
	}
	for _, next := range sequence {
		updated, err := s.svc.SetPostStatus(s.ctx, writerID, p.ID, string(next))
		s.Require().NoError(err)
		s.Equal(next, updated.Status)
		s.Equal(p.Slug, updated.Slug)
		s.Equal(p.Title, updated.Title)
	}

	st, err := s.svc.LikeState(s.ctx, writerID, p.ID)
	s.Require().NoError(err)
	s.Equal(1, st.Count)
}

func (s *serviceSuite) TestSetPostStatus_Rules() {
	p := s.newPost(writerID, "Status")

	_, err := s.svc.SetPostStatus(s.ctx, writerID, p.ID, "archived")
	s.requireKind(err, KindValidation)

	_, err = s.svc.SetPostStatus(s.ctx, otherID, p.ID, "published")
	s.requireKind(err, KindNotAuthorized)

	_, err = s.svc.Reject(s.ctx, adminID, p.ID)
	s.NoError(err)
}

// TestDeleteLifecycle walks the end-to-end flow: a pending post can be
// deleted by its author, a published one cannot until it is moved away
// from published.
func (s *serviceSuite) TestDeleteLifecycle() {
	p := s.newPost(writerID, "Lifecycle")
	s.Equal(models.PostStatusPending, p.Status)

	_, err := s.svc.SetPostStatus(s.ctx, writerID, p.ID, "published")
	s.Require().NoError(err)

	err = s.svc.DeletePost(s.ctx, writerID, p.ID)
	s.requireKind(err, KindNotAuthorized)

	_, err = s.svc.SetPostStatus(s.ctx, writerID, p.ID, "rejected")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeletePost(s.ctx, writerID, p.ID))
	_, err = s.svc.GetPost(s.ctx, writerID, p.ID)
	s.requireKind(err, KindNotFound)
}

func (s *serviceSuite) TestDeletePost_AdminAndCascade() {
	p := s.newPost(writerID, "Cascade")
	_, err := s.svc.Approve(s.ctx, adminID, p.ID)
	s.Require().NoError(err)
	_, err = s.svc.ToggleLike(s.ctx, readerID, p.ID)
	s.Require().NoError(err)
	_, err = s.svc.AddComment(s.ctx, readerID, p.ID, "Nice")
	s.Require().NoError(err)

	err = s.svc.DeletePost(s.ctx, otherID, p.ID)
	s.requireKind(err, KindNotAuthorized)

	s.Require().NoError(s.svc.DeletePost(s.ctx, adminID, p.ID))

	for _, coll := range []string{"posts", "likes", "comments"} {
		n, err := s.db.Count(s.ctx, coll)
		s.Require().NoError(err)
		s.Zero(n, "collection %s", coll)
	}
}

func (s *serviceSuite) TestGetPost_Visibility() {
	p := s.newPost(writerID, "Draft")

	_, err := s.svc.GetPost(s.ctx, otherID, p.ID)
	s.requireKind(err, KindNotFound)
	_, err = s.svc.GetPost(s.ctx, "", p.ID)
	s.requireKind(err, KindNotFound)

	v, err := s.svc.GetPost(s.ctx, writerID, p.ID)
	s.Require().NoError(err)
	s.Require().NotNil(v.Author)
	s.Equal(writerID, v.Author.ID)

	_, err = s.svc.GetPost(s.ctx, adminID, p.ID)
	s.NoError(err)
}

func (s *serviceSuite) TestGetPublishedPost() {
	cat, err := s.svc.CreateCategory(s.ctx, adminID, CategoryInput{Name: "Go"})
	s.Require().NoError(err)

	p, err := s.svc.CreatePost(s.ctx, writerID, PostInput{Title: "Rendered", Content: "# Heading\n\nBody *text*", CategoryID: cat.ID})
	s.Require().NoError(err)

	_, err = s.svc.GetPublishedPost(s.ctx, p.Slug)
	s.requireKind(err, KindNotFound)

	_, err = s.svc.Approve(s.ctx, adminID, p.ID)
	s.Require().NoError(err)

	v, err := s.svc.GetPublishedPost(s.ctx, p.Slug)
	s.Require().NoError(err)
	s.Contains(v.HTML, "<em>text</em>")
	s.Equal(1, v.ViewCount)
	s.Require().NotNil(v.Category)
	s.Equal("Go", v.Category.Name)

	v, err = s.svc.GetPublishedPost(s.ctx, p.Slug)
	s.Require().NoError(err)
	s.Equal(2, v.ViewCount)
}

func (s *serviceSuite) TestListPublished() {
	cat, err := s.svc.CreateCategory(s.ctx, adminID, CategoryInput{Name: "News"})
	s.Require().NoError(err)

	for i, title := range []string{"One", "Two", "Three"} {
		in := PostInput{Title: title, Content: "words"}
		if i == 0 {
			in.CategoryID = cat.ID
		}
		p, err := s.svc.CreatePost(s.ctx, writerID, in)
		s.Require().NoError(err)
		if i < 2 {
			_, err = s.svc.Approve(s.ctx, adminID, p.ID)
			s.Require().NoError(err)
		}
	}

	feed, err := s.svc.ListPublished(s.ctx, FeedQuery{})
	s.Require().NoError(err)
	s.Equal(2, feed.Total)
	s.Len(feed.Posts, 2)
	s.Equal(DefaultFeedLimit, feed.Limit)

	feed, err = s.svc.ListPublished(s.ctx, FeedQuery{CategoryID: cat.ID})
	s.Require().NoError(err)
	s.Equal(1, feed.Total)
	s.Equal("One", feed.Posts[0].Title)

	feed, err = s.svc.ListPublished(s.ctx, FeedQuery{Limit: 1000, Offset: 1})
	s.Require().NoError(err)
	s.Equal(MaxFeedLimit, feed.Limit)
	s.Len(feed.Posts, 1)
}

func (s *serviceSuite) TestListByAuthorAndModeration() {
	s.newPost(writerID, "A")
	s.newPost(writerID, "B")
	p := s.newPost(otherID, "C")
	_, err := s.svc.Reject(s.ctx, adminID, p.ID)
	s.Require().NoError(err)

	mine, err := s.svc.ListByAuthor(s.ctx, writerID)
	s.Require().NoError(err)
	s.Len(mine, 2)

	_, err = s.svc.ListForModeration(s.ctx, writerID, "")
	s.requireKind(err, KindNotAuthorized)

	all, err := s.svc.ListForModeration(s.ctx, adminID, "")
	s.Require().NoError(err)
	s.Len(all, 3)

	rejected, err := s.svc.ListForModeration(s.ctx, adminID, "rejected")
	s.Require().NoError(err)
	s.Len(rejected, 1)

	_, err = s.svc.ListForModeration(s.ctx, adminID, "bogus")
	s.requireKind(err, KindValidation)
}

func (s *serviceSuite) TestStats() {
	p := s.newPost(writerID, "A")
	s.newPost(writerID, "B")
	_, err := s.svc.Approve(s.ctx, adminID, p.ID)
	s.Require().NoError(err)
	_, err = s.svc.ToggleLike(s.ctx, readerID, p.ID)
	s.Require().NoError(err)

	st, err := s.svc.Stats(s.ctx, adminID)
	s.Require().NoError(err)
	s.Equal(models.PostStats{Total: 2, Pending: 1, Published: 1, Likes: 1}, *st)

	_, err = s.svc.Stats(s.ctx, writerID)
	s.requireKind(err, KindNotAuthorized)
}

// TestAdminDisabled verifies that with no admin collection nobody is an
// admin, even a user with a membership record.
func (s *serviceSuite) TestAdminDisabled() {
	svc := NewService(s.stores, nil, nil, Options{MinWords: 1})
	s.False(svc.IsAdmin(s.ctx, adminID))

	p := s.newPost(writerID, "Guarded")
	_, err := svc.SetPostStatus(s.ctx, adminID, p.ID, "published")
	s.requireKind(err, KindNotAuthorized)
}

// TestUpstreamFailure verifies store errors surface as upstream failures
// with the store's message.
func (s *serviceSuite) TestUpstreamFailure() {
	svc := NewService(store.New(failingDB{}), nil, nil, Options{MinWords: 1})
	_, err := svc.GetProfile(s.ctx, "x")
	s.requireKind(err, KindUpstream)
	s.Contains(err.Error(), "store offline")
}

// failingDB fails every call.
type failingDB struct{ docstore.DB }

func (failingDB) Get(context.Context, string, string) (*docstore.Document, error) {
	return nil, errors.New("store offline")
}
