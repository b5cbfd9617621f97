// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"
)

// PostStatus is the moderation state of a post.
type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"
	PostStatusPublished PostStatus = "published"
	PostStatusRejected  PostStatus = "rejected"
)

// PostStatuses lists every status in display order.
var PostStatuses = []PostStatus{PostStatusPending, PostStatusPublished, PostStatusRejected}

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusPending, PostStatusPublished, PostStatusRejected:
		return true
	}
	return false
}

// ParsePostStatus converts user input into a PostStatus. Input is trimmed
// and matched case-insensitively.
func ParsePostStatus(raw string) (PostStatus, error) {
	s := PostStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown post status %q", raw)
	}
	return s, nil
}

// CanTransition reports whether a post may move from one status to
// another. Every status is reachable from every other one; only unknown
// statuses are refused.
func CanTransition(from, to PostStatus) bool {
	return from.Valid() && to.Valid()
}

// Post is a blog article. Slug and AuthorID are fixed at creation.
type Post struct {
	ID               string     `json:"id"`
	AuthorID         string     `json:"authorId"`
	Slug             string     `json:"slug"`
	Status           PostStatus `json:"status"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Content          string     `json:"content"`
	CategoryID       string     `json:"categoryId,omitempty"`
	Thumbnail        string     `json:"thumbnail,omitempty"`
	BackgroundImages []string   `json:"backgroundImages"`
	ViewCount        int        `json:"viewCount"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// IsPublished returns true if the post is visible to readers.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsOwnedBy reports whether userID authored the post.
func (p *Post) IsOwnedBy(userID string) bool {
	return userID != "" && p.AuthorID == userID
}

// PostView is a post with its related records resolved for display.
type PostView struct {
	Post
	HTML      string    `json:"html,omitempty"`
	Author    *Profile  `json:"author,omitempty"`
	Category  *Category `json:"category,omitempty"`
	LikeCount int       `json:"likeCount"`
}

// PostStats summarizes posts by status for the admin dashboard.
type PostStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Published int `json:"published"`
	Rejected  int `json:"rejected"`
	Comments  int `json:"comments"`
	Likes     int `json:"likes"`
}
