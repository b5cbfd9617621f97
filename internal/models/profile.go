// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// ProfileRole decides what a profile may do on the site.
type ProfileRole string

const (
	RoleReader ProfileRole = "reader"
	RoleWriter ProfileRole = "writer"
)

// Valid reports whether r is a known role.
func (r ProfileRole) Valid() bool {
	return r == RoleReader || r == RoleWriter
}

// Profile is the public face of an account. Its ID is the account's user
// id and its role cannot change after creation.
type Profile struct {
	ID        string      `json:"id"`
	Role      ProfileRole `json:"role"`
	Name      string      `json:"name"`
	Image     string      `json:"image,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	DOB       string      `json:"dob,omitempty"` // YYYY-MM-DD
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CanWrite returns true if the profile may author posts.
func (p *Profile) CanWrite() bool {
	return p.Role == RoleWriter
}
