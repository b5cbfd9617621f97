// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

func (s *serviceSuite) TestCategories_AdminOnly() {
	_, err := s.svc.CreateCategory(s.ctx, writerID, CategoryInput{Name: "Go"})
	s.requireKind(err, KindNotAuthorized)

	cat, err := s.svc.CreateCategory(s.ctx, adminID, CategoryInput{Name: "Go Tips"})
	s.Require().NoError(err)
	s.Equal("go-tips", cat.Slug)

	_, err = s.svc.UpdateCategory(s.ctx, writerID, cat.ID, CategoryInput{Name: "Renamed"})
	s.requireKind(err, KindNotAuthorized)

	err = s.svc.DeleteCategory(s.ctx, writerID, cat.ID)
	s.requireKind(err, KindNotAuthorized)
}

func (s *serviceSuite) TestCategories_Lifecycle() {
	cat, err := s.svc.CreateCategory(s.ctx, adminID, CategoryInput{Name: "Travel", Description: "Trips"})
	s.Require().NoError(err)

	_, err = s.svc.CreateCategory(s.ctx, adminID, CategoryInput{Name: "travel"})
	s.requireKind(err, KindConflict)

	_, err = s.svc.CreateCategory(s.ctx, adminID, CategoryInput{Name: "x", Slug: "Bad Slug"})
	s.requireKind(err, KindValidation)

	updated, err := s.svc.UpdateCategory(s.ctx, adminID, cat.ID, CategoryInput{Name: "Journeys"})
	s.Require().NoError(err)
	s.Equal("journeys", updated.Slug)

	_, err = s.svc.UpdateCategory(s.ctx, adminID, "missing", CategoryInput{Name: "Nope"})
	s.requireKind(err, KindNotFound)

	p, err := s.svc.CreatePost(s.ctx, writerID, PostInput{Title: "Trip", Content: "words", CategoryID: cat.ID})
	s.Require().NoError(err)
	_, err = s.svc.Approve(s.ctx, adminID, p.ID)
	s.Require().NoError(err)

	cats, err := s.svc.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cats, 1)
	s.Equal(1, cats[0].PostCount)

	s.Require().NoError(s.svc.DeleteCategory(s.ctx, adminID, cat.ID))
	err = s.svc.DeleteCategory(s.ctx, adminID, cat.ID)
	s.requireKind(err, KindNotFound)

	// The post outlives its category.
	v, err := s.svc.GetPost(s.ctx, "", p.ID)
	s.Require().NoError(err)
	s.Nil(v.Category)
}
