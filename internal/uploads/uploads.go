// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package uploads validates image uploads and stores them, with a JPEG
// thumbnail, in the blob store.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"inkwell/internal/models"
)

const (
	// ThumbMaxWidth is the maximum thumbnail width in pixels.
	ThumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps decoded image size to refuse decompression bombs.
	maxImagePixels = 50_000_000
)

var (
	// ErrNotConfigured is returned when no blob store is available.
	ErrNotConfigured = errors.New("file storage is not configured")

	// ErrTooLarge is returned for files over the size limit.
	ErrTooLarge = errors.New("file is too large")

	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("file is empty")

	// ErrUnsupportedType is returned for anything but JPEG, PNG, GIF and
	// WebP images, and for files that claim an image type but do not
	// decode.
	ErrUnsupportedType = errors.New("only JPEG, PNG, GIF and WebP images are allowed")
)

// allowedTypes are the sniffed MIME types accepted for upload.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Blobs is the blob store the service writes to.
type Blobs interface {
	Upload(ctx context.Context, bucket, fileID, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, bucket, fileID string) error
	FileURL(bucket, fileID string) string
}

// Service stores uploaded images.
type Service struct {
	blobs    Blobs
	bucket   string
	maxBytes int64
}

// NewService creates an upload service writing to bucket. blobs may be
// nil, in which case every upload fails with ErrNotConfigured.
func NewService(blobs Blobs, bucket string, maxBytes int64) *Service {
	return &Service{blobs: blobs, bucket: bucket, maxBytes: maxBytes}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates an image read from r and stores it together with a
// thumbnail no wider than ThumbMaxWidth. The file type is sniffed from
// the content; any declared type is ignored.
func (s *Service) Upload(ctx context.Context, r io.Reader) (*models.Upload, error) {
	if s.blobs == nil {
		return nil, ErrNotConfigured
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	if !allowedTypes[contentType] {
		return nil, ErrUnsupportedType
	}

	thumb, err := Thumbnail(data, ThumbMaxWidth)
	if err != nil {
		slog.Debug("upload rejected", "content_type", contentType, "error", err)
		return nil, ErrUnsupportedType
	}

	up := &models.Upload{
		FileID:      uuid.NewString(),
		ThumbnailID: uuid.NewString(),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.blobs.Upload(gctx, s.bucket, up.FileID, contentType, bytes.NewReader(data), int64(len(data)))
	})
	g.Go(func() error {
		return s.blobs.Upload(gctx, s.bucket, up.ThumbnailID, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb)))
	})
	if err := g.Wait(); err != nil {
		// Remove whichever half made it.
		for _, id := range []string{up.FileID, up.ThumbnailID} {
			if derr := s.blobs.Delete(context.WithoutCancel(ctx), s.bucket, id); derr != nil {
				slog.Warn("cleanup of partial upload failed", "file_id", id, "error", derr)
			}
		}
		return nil, err
	}

	up.URL = s.blobs.FileURL(s.bucket, up.FileID)
	up.ThumbnailURL = s.blobs.FileURL(s.bucket, up.ThumbnailID)
	slog.Info("image uploaded", "file_id", up.FileID, "content_type", contentType, "size", up.HumanSize())
	return up, nil
}

// Thumbnail decodes an image and re-encodes it as a JPEG no wider than
// maxWidth, preserving the aspect ratio. Images already narrow enough are
// re-encoded at their own size.
func Thumbnail(data []byte, maxWidth int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxWidth {
		height = max(1, height*maxWidth/width)
		width = maxWidth
	}

	// JPEG has no alpha; paint transparent areas white.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
