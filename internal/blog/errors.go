// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation.
type Kind string

const (
	KindNotAuthenticated Kind = "not_authenticated"
	KindNotAuthorized    Kind = "not_authorized"
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation_failed"
	KindConflict         Kind = "conflict"
	KindUpstream         Kind = "upstream_failure"
)

// Error is the failure result of every Service operation. Message is
// safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err. Errors that are not *Error are
// upstream failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

func notAuthenticated() *Error {
	return &Error{Kind: KindNotAuthenticated, Message: "you must be signed in"}
}

func notAuthorized(reason string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: reason}
}

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// upstream reports a store failure. The store's message is passed through.
func upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Message: err.Error(), Err: err}
}
