// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth implements passwordless sign-in. A user asks for a
// one-time code sent to their email and signs in by presenting it; the
// account is created on first sign-in. Accounts may additionally enroll
// an authenticator app, which is then required as a second step.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

var (
	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("a valid email address is required")

	// ErrNoEnrollment is returned when enabling or checking an
	// authenticator that was never set up.
	ErrNoEnrollment = errors.New("authenticator is not set up")

	// ErrUnknownUser is returned when the signed-in account no longer exists.
	ErrUnknownUser = errors.New("account not found")
)

// Service runs the sign-in flows.
type Service struct {
	users  *store.UserStore
	codes  Codes
	sender Sender
	issuer string
}

// NewService creates an auth service. issuer labels authenticator entries.
func NewService(users *store.UserStore, codes Codes, sender Sender, issuer string) *Service {
	return &Service{users: users, codes: codes, sender: sender, issuer: issuer}
}

// NormalizeEmail validates an address and returns it trimmed and lowercased.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || !strings.Contains(raw, "@") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(raw), nil
}

// RequestCode issues a sign-in code for email and hands it to the sender.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	code, err := s.codes.Issue(ctx, email)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, email, code); err != nil {
		return fmt.Errorf("send sign-in code: %w", err)
	}
	return nil
}

// SignIn verifies an emailed code and returns the account, creating it on
// first sign-in.
func (s *Service) SignIn(ctx context.Context, email, code string) (*models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Verify(ctx, email, code); err != nil {
		return nil, err
	}
	u, err := s.users.FindOrCreate(ctx, email)
	if err != nil {
		return nil, err
	}
	slog.Info("user signed in", "user_id", u.ID)
	return u, nil
}

// User returns the account for userID.
func (s *Service) User(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnknownUser
	}
	return u, nil
}

// BeginTOTP generates an authenticator secret for the account and stores
// it inactive until EnableTOTP confirms it. Any active authenticator is
// replaced.
func (s *Service) BeginTOTP(ctx context.Context, userID string) (*Enrollment, error) {
	u, err := s.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	e, err := NewEnrollment(s.issuer, u.Email)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetTOTPSecret(ctx, u.ID, e.Secret); err != nil {
		return nil, err
	}
	return e, nil
}

// EnableTOTP activates the pending authenticator once the user proves it
// produces valid codes.
func (s *Service) EnableTOTP(ctx context.Context, userID, code string) error {
	u, err := s.User(ctx, userID)
	if err != nil {
		return err
	}
	if u.TOTPSecret == nil {
		return ErrNoEnrollment
	}
	if !ValidateTOTP(code, *u.TOTPSecret) {
		return ErrInvalidCode
	}
	if err := s.users.EnableTOTP(ctx, u.ID); err != nil {
		return err
	}
	slog.Info("authenticator enabled", "user_id", u.ID)
	return nil
}

// VerifyTOTP checks an authenticator code for an account that has one.
func (s *Service) VerifyTOTP(ctx context.Context, userID, code string) error {
	u, err := s.User(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasAuthenticator() {
		return ErrNoEnrollment
	}
	if !ValidateTOTP(code, *u.TOTPSecret) {
		return ErrInvalidCode
	}
	return nil
}
