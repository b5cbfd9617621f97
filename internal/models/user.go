// Package models defines the typed entities the store layer maps documents
// into. Business logic only ever handles these types.
package models

import "time"

// User is a sign-in account identified by email.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	TOTPSecret  *string   `json:"-"` // set during authenticator setup
	TOTPEnabled bool      `json:"totpEnabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasAuthenticator returns true if sign-in requires an authenticator app
// code after the emailed one.
func (u *User) HasAuthenticator() bool {
	return u.TOTPEnabled && u.TOTPSecret != nil
}
