package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/blog"
)

// Categories lists every category.
func (b *Blog) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := b.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "categories", cats)
}

// CreateCategory adds a category. Admins only.
func (b *Blog) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	cat, err := b.svc.CreateCategory(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "category", cat)
}

// UpdateCategory edits a category. Admins only.
func (b *Blog) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in blog.CategoryInput
	if msg := decodeJSON(w, r, &in); msg != "" {
		writeFail(w, http.StatusBadRequest, msg)
		return
	}
	cat, err := b.svc.UpdateCategory(r.Context(), callerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "category", cat)
}

// DeleteCategory removes a category. Admins only.
func (b *Blog) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := b.svc.DeleteCategory(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", nil)
}
