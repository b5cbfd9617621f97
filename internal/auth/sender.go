// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"log/slog"
)

// Sender delivers a sign-in code to an email address.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// LogSender writes codes to the structured log instead of delivering them.
// It is meant for development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, email, code string) error {
	slog.Info("sign-in code issued", "email", email, "code", code)
	return nil
}
