// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"strings"

	"inkwell/internal/access"
	"inkwell/internal/models"
)

// published creates and approves a post by writerID.
func (s *serviceSuite) published(title string) *models.Post {
	p := s.newPost(writerID, title)
	p, err := s.svc.Approve(s.ctx, adminID, p.ID)
	s.Require().NoError(err)
	return p
}

func (s *serviceSuite) TestToggleLike_TwiceRestores() {
	p := s.published("Likeable")

	before, err := s.svc.LikeState(s.ctx, readerID, p.ID)
	s.Require().NoError(err)

	st, err := s.svc.ToggleLike(s.ctx, readerID, p.ID)
	s.Require().NoError(err)
	s.True(st.Liked)
	s.Equal(before.Count+1, st.Count)

	st, err = s.svc.ToggleLike(s.ctx, readerID, p.ID)
	s.Require().NoError(err)
	s.Equal(before.Liked, st.Liked)
	s.Equal(before.Count, st.Count)
}

// memoryFeeds keeps feed pages in a map and counts invalidations.
type memoryFeeds struct {
	pages         map[string][]byte
	invalidations int
}

func (f *memoryFeeds) Get(_ context.Context, key string) ([]byte, bool) {
	b, ok := f.pages[key]
	return b, ok
}

func (f *memoryFeeds) Set(_ context.Context, key string, body []byte) { f.pages[key] = body }

func (f *memoryFeeds) InvalidateFeeds(context.Context) {
	f.invalidations++
	clear(f.pages)
}

func (s *serviceSuite) TestToggleLike_RefreshesCachedFeed() {
	feeds := &memoryFeeds{pages: make(map[string][]byte)}
	svc := NewService(s.stores, access.NewChecker(s.db, "admins"), feeds, Options{MinWords: 1, MaxWords: 50})
	p := s.published("Cached")

	feed, err := svc.ListPublished(s.ctx, FeedQuery{})
	s.Require().NoError(err)
	s.Require().Len(feed.Posts, 1)
	s.Equal(0, feed.Posts[0].LikeCount)
	s.Len(feeds.pages, 1)

	_, err = svc.ToggleLike(s.ctx, readerID, p.ID)
	s.Require().NoError(err)
	s.Equal(1, feeds.invalidations)

	feed, err = svc.ListPublished(s.ctx, FeedQuery{})
	s.Require().NoError(err)
	s.Equal(1, feed.Posts[0].LikeCount)
}

func (s *serviceSuite) TestToggleLike_CountsDistinctUsers() {
	p := s.published("Popular")
	for _, id := range []string{readerID, otherID, adminID} {
		_, err := s.svc.ToggleLike(s.ctx, id, p.ID)
		s.Require().NoError(err)
	}

	st, err := s.svc.LikeState(s.ctx, "", p.ID)
	s.Require().NoError(err)
	s.Equal(3, st.Count)
	s.False(st.Liked)

	st, err = s.svc.LikeState(s.ctx, otherID, p.ID)
	s.Require().NoError(err)
	s.True(st.Liked)
}

func (s *serviceSuite) TestToggleLike_Rules() {
	_, err := s.svc.ToggleLike(s.ctx, "", "any")
	s.requireKind(err, KindNotAuthenticated)

	_, err = s.svc.ToggleLike(s.ctx, readerID, "missing")
	s.requireKind(err, KindNotFound)

	draft := s.newPost(writerID, "Hidden")
	_, err = s.svc.ToggleLike(s.ctx, readerID, draft.ID)
	s.requireKind(err, KindNotFound)
}

func (s *serviceSuite) TestComments() {
	p := s.published("Discussed")

	first, err := s.svc.AddComment(s.ctx, readerID, p.ID, "  First!  ")
	s.Require().NoError(err)
	s.Equal("First!", first.Content)
	_, err = s.svc.AddComment(s.ctx, otherID, p.ID, "Second")
	s.Require().NoError(err)

	list, err := s.svc.ListComments(s.ctx, "", p.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("First!", list[0].Content)
	s.Require().NotNil(list[0].Author)
	s.Equal(readerID, list[0].Author.Name)
}

func (s *serviceSuite) TestAddComment_Validation() {
	p := s.published("Strict")

	_, err := s.svc.AddComment(s.ctx, readerID, p.ID, "   ")
	s.requireKind(err, KindValidation)

	_, err = s.svc.AddComment(s.ctx, readerID, p.ID, strings.Repeat("x", MaxCommentLength+1))
	s.requireKind(err, KindValidation)

	_, err = s.svc.AddComment(s.ctx, "", p.ID, "hi")
	s.requireKind(err, KindNotAuthenticated)
}

func (s *serviceSuite) TestEditComment_AdminOnly() {
	p := s.published("Edited")
	cm, err := s.svc.AddComment(s.ctx, readerID, p.ID, "Original")
	s.Require().NoError(err)

	_, err = s.svc.EditComment(s.ctx, readerID, cm.ID, "Changed by author")
	s.requireKind(err, KindNotAuthorized)

	updated, err := s.svc.EditComment(s.ctx, adminID, cm.ID, "Moderated")
	s.Require().NoError(err)
	s.Equal("Moderated", updated.Content)
	s.Equal(readerID, updated.UserID)
}

func (s *serviceSuite) TestDeleteComment() {
	p := s.published("Pruned")
	cm, err := s.svc.AddComment(s.ctx, readerID, p.ID, "Mine")
	s.Require().NoError(err)
	other, err := s.svc.AddComment(s.ctx, readerID, p.ID, "Also mine")
	s.Require().NoError(err)

	err = s.svc.DeleteComment(s.ctx, otherID, cm.ID)
	s.requireKind(err, KindNotAuthorized)

	s.Require().NoError(s.svc.DeleteComment(s.ctx, readerID, cm.ID))
	s.Require().NoError(s.svc.DeleteComment(s.ctx, adminID, other.ID))

	err = s.svc.DeleteComment(s.ctx, readerID, cm.ID)
	s.requireKind(err, KindNotFound)
}
