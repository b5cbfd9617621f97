// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type commentRequest struct {
	Content string `json:"content"`
}

// Likes returns the like count of a post and whether the caller liked it.
func (b *Blog) Likes(w http.ResponseWriter, r *http.Request) {
	state, err := b.svc.LikeState(r.Context(), callerID(r), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "liked": state.Liked, "count": state.Count})
}

// ToggleLike likes or unlikes a post for the caller.
func (b *Blog) ToggleLike(w http.ResponseWriter, r *http.Request) {
	state, err := b.svc.ToggleLike(r.Context(), callerID(r), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "liked": state.Liked, "count": state.Count})
}

// Comments lists the comments on a post, oldest first.
func (b *Blog) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := b.svc.ListComments(r.Context(), callerID(r), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "comments", comments)
}

// AddComment comments on a post as the caller.
func (b *Blog) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	comment, err := b.svc.AddComment(r.Context(), callerID(r), chi.URLParam(r, "ref"), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "comment", comment)
}

// EditComment replaces a comment's text.
func (b *Blog) EditComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	comment, err := b.svc.EditComment(r.Context(), callerID(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "comment", comment)
}

// DeleteComment removes a comment.
func (b *Blog) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := b.svc.DeleteComment(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", nil)
}
