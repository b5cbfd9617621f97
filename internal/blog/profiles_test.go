// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"time"

	"inkwell/internal/models"
)

func (s *serviceSuite) TestCreateProfile_Once() {
	p, err := s.svc.CreateProfile(s.ctx, "new-user", ProfileInput{Role: "Writer", Name: "Ada", DOB: "1990-05-01"})
	s.Require().NoError(err)
	s.Equal(models.RoleWriter, p.Role)
	s.Equal("new-user", p.ID)

	_, err = s.svc.CreateProfile(s.ctx, "new-user", ProfileInput{Role: "reader", Name: "Ada again"})
	s.requireKind(err, KindConflict)
}

func (s *serviceSuite) TestCreateProfile_Validation() {
	tomorrow := time.Now().AddDate(0, 0, 2).Format(time.DateOnly)
	tests := []struct {
		name string
		in   ProfileInput
	}{
		{"unknown role", ProfileInput{Role: "editor", Name: "x"}},
		{"missing name", ProfileInput{Role: "reader"}},
		{"bad date", ProfileInput{Role: "reader", Name: "x", DOB: "01/02/1990"}},
		{"future date", ProfileInput{Role: "reader", Name: "x", DOB: tomorrow}},
		{"long phone", ProfileInput{Role: "reader", Name: "x", Phone: "123456789012345678901234567890123"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.CreateProfile(s.ctx, "someone", tt.in)
			s.requireKind(err, KindValidation)
		})
	}

	_, err := s.svc.CreateProfile(s.ctx, "", ProfileInput{Role: "reader", Name: "x"})
	s.requireKind(err, KindNotAuthenticated)
}

// TestUpdateProfile_KeepsRole verifies a profile's role cannot be changed
// through an update.
func (s *serviceSuite) TestUpdateProfile_KeepsRole() {
	p, err := s.svc.UpdateProfile(s.ctx, readerID, ProfileInput{Role: "writer", Name: "Renamed", Phone: "+40 700 000 000"})
	s.Require().NoError(err)
	s.Equal("Renamed", p.Name)
	s.Equal(models.RoleReader, p.Role)

	got, err := s.svc.GetProfile(s.ctx, readerID)
	s.Require().NoError(err)
	s.Equal(models.RoleReader, got.Role)
	s.Equal("+40 700 000 000", got.Phone)

	_, err = s.svc.UpdateProfile(s.ctx, "nobody", ProfileInput{Name: "Ghost"})
	s.requireKind(err, KindNotFound)

	_, err = s.svc.GetProfile(s.ctx, "nobody")
	s.requireKind(err, KindNotFound)
}
