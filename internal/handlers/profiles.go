package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
)

// MyProfile returns the caller's profile.
func (b *Blog) MyProfile(w http.ResponseWriter, r *http.Request) {
	p, err := b.svc.GetProfile(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "profile", p)
}

// CreateProfile creates the caller's profile and fixes its role.
func (b *Blog) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var in blog.ProfileInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	p, err := b.svc.CreateProfile(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "profile", p)
}

// UpdateProfile edits the caller's profile. The role is ignored.
func (b *Blog) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in blog.ProfileInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	p, err := b.svc.UpdateProfile(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "profile", p)
}

// Profile returns anyone's public profile.
func (b *Blog) Profile(w http.ResponseWriter, r *http.Request) {
	p, err := b.svc.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "profile", p)
}
