// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API. Every response is an envelope
// with a "success" flag; failures carry an "error" message and successes
// carry the payload under a named key.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inkwell/internal/auth"
	"inkwell/internal/blog"
	"inkwell/internal/uploads"
)

// envelope is a success response body. Keys other than "success" name
// the payload.
type envelope map[string]any

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// writeOK sends a success envelope with one payload field.
func writeOK(w http.ResponseWriter, status int, key string, value any) {
	body := envelope{"success": true}
	if key != "" {
		body[key] = value
	}
	writeJSON(w, status, body)
}

// writeFail sends a failure envelope.
func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"success": false, "error": msg})
}

// statusForKind maps a service error kind to its HTTP status.
func statusForKind(k blog.Kind) int {
	switch k {
	case blog.KindNotAuthenticated:
		return http.StatusUnauthorized
	case blog.KindNotAuthorized:
		return http.StatusForbidden
	case blog.KindNotFound:
		return http.StatusNotFound
	case blog.KindValidation:
		return http.StatusBadRequest
	case blog.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// writeError translates an error from any service into a failure
// envelope. Unclassified errors are logged and reported as 500 without
// their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *blog.Error
	switch {
	case errors.As(err, &svcErr):
		status := statusForKind(svcErr.Kind)
		if svcErr.Kind == blog.KindUpstream {
			slog.Error("store request failed", "path", r.URL.Path, "error", err)
		}
		writeFail(w, status, svcErr.Message)

	case errors.Is(err, auth.ErrInvalidEmail):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCode), errors.Is(err, auth.ErrNoChallenge):
		writeFail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeFail(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, auth.ErrNoEnrollment):
		writeFail(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrUnknownUser):
		writeFail(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, uploads.ErrTooLarge):
		writeFail(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, uploads.ErrUnsupportedType), errors.Is(err, uploads.ErrEmpty):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, uploads.ErrNotConfigured):
		writeFail(w, http.StatusServiceUnavailable, err.Error())

	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeFail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
