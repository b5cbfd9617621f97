// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package policy holds the authorization rules for posts, comments and
// categories. Every function is pure: callers resolve the caller's admin
// flag fresh for each request and pass it in. A denial is a normal result
// carrying a reason for display, not an error.
package policy

import "inkwell/internal/models"

// Caller is the identity an operation runs as.
type Caller struct {
	UserID  string
	IsAdmin bool
}

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Denial reasons.
const (
	ReasonNotOwner        = "you can only modify your own posts"
	ReasonPublishedDelete = "published posts cannot be deleted; unpublish it first"
	ReasonPublishedEdit   = "published posts cannot be edited"
	ReasonCommentOwner    = "you can only delete your own comments"
	ReasonAdminOnly       = "only admins can do this"
)

// CanModify allows admins and the post's author.
func CanModify(c Caller, p *models.Post) Decision {
	if c.IsAdmin || p.IsOwnedBy(c.UserID) {
		return allow
	}
	return deny(ReasonNotOwner)
}

// CanEdit is the general edit rule used by the admin dashboard: the same
// as CanModify with no restriction on status.
func CanEdit(c Caller, p *models.Post) Decision {
	return CanModify(c, p)
}

// CanEditAsAuthor is the author dashboard rule. Authors may not edit a
// post once it is published; admins may.
func CanEditAsAuthor(c Caller, p *models.Post) Decision {
	if d := CanModify(c, p); !d.Allowed {
		return d
	}
	if !c.IsAdmin && p.IsPublished() {
		return deny(ReasonPublishedEdit)
	}
	return allow
}

// CanDelete allows admins to delete any post and authors to delete their
// own posts that are not published.
func CanDelete(c Caller, p *models.Post) Decision {
	if d := CanModify(c, p); !d.Allowed {
		return d
	}
	if !c.IsAdmin && p.IsPublished() {
		return deny(ReasonPublishedDelete)
	}
	return allow
}

// CanChangeStatus allows admins and the post's author to set any status.
func CanChangeStatus(c Caller, p *models.Post) Decision {
	return CanModify(c, p)
}

// CanDeleteComment allows admins and the comment's author.
func CanDeleteComment(c Caller, cm *models.Comment) Decision {
	if c.IsAdmin || (c.UserID != "" && cm.UserID == c.UserID) {
		return allow
	}
	return deny(ReasonCommentOwner)
}

// CanEditComment allows admins only. Comment authors can delete and
// repost but not edit.
func CanEditComment(c Caller, _ *models.Comment) Decision {
	if c.IsAdmin {
		return allow
	}
	return deny(ReasonAdminOnly)
}

// CanManageCategories allows admins only.
func CanManageCategories(c Caller) Decision {
	if c.IsAdmin {
		return allow
	}
	return deny(ReasonAdminOnly)
}

// CanModerate allows admins only. It guards the moderation queue and the
// site statistics.
func CanModerate(c Caller) Decision {
	if c.IsAdmin {
		return allow
	}
	return deny(ReasonAdminOnly)
}
