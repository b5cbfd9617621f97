// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/middleware"
	"inkwell/internal/storage"
	"inkwell/internal/uploads"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 64 << 10

// FileStore reads stored files back for the view route.
type FileStore interface {
	Open(ctx context.Context, bucket, fileID string) (*storage.Object, error)
	ProjectID() string
}

// Media groups the upload and file view handlers.
type Media struct {
	uploads *uploads.Service
	files   FileStore
	bucket  string
}

// NewMedia creates a new Media handler group. files may be nil when no
// blob store is configured.
func NewMedia(svc *uploads.Service, files FileStore, bucket string) *Media {
	return &Media{uploads: svc, files: files, bucket: bucket}
}

// Upload stores an image sent as the "file" field of a multipart form.
func (m *Media) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := m.uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, uploads.ErrTooLarge)
			return
		}
		writeFail(w, http.StatusBadRequest, "Request must be a multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		writeFail(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	up, err := m.uploads.Upload(r.Context(), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("file uploaded", "file_id", up.FileID, "size", up.SizeBytes,
		"user_id", middleware.UserIDFromCtx(r.Context()))
	writeOK(w, http.StatusCreated, "file", up)
}

// View streams a stored file. This is the target of the URLs handed out
// for uploads.
func (m *Media) View(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	fileID := chi.URLParam(r, "fileId")
	if m.files == nil || bucket != m.bucket || r.URL.Query().Get("project") != m.files.ProjectID() {
		writeFail(w, http.StatusNotFound, "file not found")
		return
	}

	obj, err := m.files.Open(r.Context(), bucket, fileID)
	if errors.Is(err, storage.ErrNotFound) {
		writeFail(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		slog.Error("file open failed", "file_id", fileID, "error", err)
		writeFail(w, http.StatusBadGateway, "file storage is unavailable")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	// File ids are never reused, so content behind a URL never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Warn("file stream interrupted", "file_id", fileID, "error", err)
	}
}
