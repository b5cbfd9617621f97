// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
)

// Blog groups the post, engagement, category and profile handlers. The
// caller identity comes from the request context; every rule is decided
// by the service.
type Blog struct {
	svc *blog.Service
}

// NewBlog creates a new Blog handler group.
func NewBlog(svc *blog.Service) *Blog {
	return &Blog{svc: svc}
}

type statusRequest struct {
	Status string `json:"status"`
}

func callerID(r *http.Request) string {
	return middleware.UserIDFromCtx(r.Context())
}

// Feed lists published posts, newest first.
func (b *Blog) Feed(w http.ResponseWriter, r *http.Request) {
	limit, offset, msg := parsePage(r)
	if msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	feed, err := b.svc.ListPublished(r.Context(), blog.FeedQuery{
		CategoryID: r.URL.Query().Get("category"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"posts":   feed.Posts,
		"total":   feed.Total,
		"limit":   feed.Limit,
		"offset":  feed.Offset,
	})
}

// PublishedPost returns a published post by slug and counts the view.
func (b *Blog) PublishedPost(w http.ResponseWriter, r *http.Request) {
	post, err := b.svc.GetPublishedPost(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "post", post)
}

// MyPosts lists the caller's posts in every status.
func (b *Blog) MyPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := b.svc.ListByAuthor(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "posts", posts)
}

// CreatePost submits a new post for moderation.
func (b *Blog) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in blog.PostInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	post, err := b.svc.CreatePost(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "post", post)
}

// GetPost returns one post the caller may see, in any status.
func (b *Blog) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := b.svc.GetPost(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "post", post)
}

// UpdateMyPost is the author edit path. Published posts are frozen for
// their authors.
func (b *Blog) UpdateMyPost(w http.ResponseWriter, r *http.Request) {
	b.updatePost(w, r, b.svc.UpdatePostAsAuthor)
}

// UpdatePost is the general edit path used by the admin dashboard.
func (b *Blog) UpdatePost(w http.ResponseWriter, r *http.Request) {
	b.updatePost(w, r, b.svc.UpdatePost)
}

type updateFunc func(ctx context.Context, userID, postID string, in blog.PostInput) (*models.Post, error)

func (b *Blog) updatePost(w http.ResponseWriter, r *http.Request, update updateFunc) {
	var in blog.PostInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	post, err := update(r.Context(), callerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "post", post)
}

// SetStatus moves a post to the requested status.
func (b *Blog) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if msg := decodeJSON(w, r, &req); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	post, err := b.svc.SetPostStatus(r.Context(), callerID(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "post", post)
}

// Approve publishes a post.
func (b *Blog) Approve(w http.ResponseWriter, r *http.Request) {
	post, err := b.svc.Approve(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "post", post)
}

// Reject marks a post rejected.
func (b *Blog) Reject(w http.ResponseWriter, r *http.Request) {
	post, err := b.svc.Reject(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "post", post)
}

// DeletePost removes a post with its likes and comments.
func (b *Blog) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := b.svc.DeletePost(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", nil)
}

// ModerationQueue lists posts for the admin dashboard, optionally by status.
func (b *Blog) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	posts, err := b.svc.ListForModeration(r.Context(), callerID(r), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "posts", posts)
}

// Stats summarizes content for the admin dashboard.
func (b *Blog) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := b.svc.Stats(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "stats", stats)
}
