// Package upload stores product images through a pluggable driver and
// uploads batches of files concurrently.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/catalog-admin/internal/domain"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// MaxFileSize is the largest image accepted, in bytes.
const MaxFileSize int64 = 10 << 20

// Driver names accepted by New.
const (
	DriverBackend    = "backend"
	DriverCloudinary = "cloudinary"
	DriverMemory     = "memory"
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var uploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "admin_image_uploads_total",
		Help: "Image uploads by driver and result.",
	},
	[]string{"driver", "result"},
)

// Asset is a stored image.
type Asset = domain.ProductImage

// File is one image waiting to be uploaded. Size is zero when unknown.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart file header. The content type falls back
// to the one implied by the file extension.
func FromMultipart(hdr *multipart.FileHeader) File {
	ct := hdr.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(hdr.Filename)))
	}
	return File{
		Filename:    hdr.Filename,
		ContentType: ct,
		Size:        hdr.Size,
		Open: func() (io.ReadCloser, error) {
			return hdr.Open()
		},
	}
}

// Store persists images.
type Store interface {
	Upload(ctx context.Context, f File) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// Check rejects files with an unsupported type or above maxSize before any
// network call is made.
func Check(f File, maxSize int64) error {
	ct, _, _ := mime.ParseMediaType(f.ContentType)
	if !allowedTypes[ct] {
		return &domain.UploadError{
			Filename: f.Filename,
			Err:      apperrors.InvalidInput(fmt.Sprintf("unsupported file type %q: use JPEG, PNG, WebP or GIF", f.ContentType)),
		}
	}
	if maxSize > 0 && f.Size > maxSize {
		return &domain.UploadError{
			Filename: f.Filename,
			Err:      apperrors.InvalidInput(fmt.Sprintf("file is larger than %d MB", maxSize>>20)),
		}
	}
	return nil
}

// upload opens f and hands the reader to put, wrapping failures in
// UploadError.
func upload(ctx context.Context, driver string, f File, put func(ctx context.Context, r io.Reader) (Asset, error)) (Asset, error) {
	if f.Open == nil {
		return Asset{}, &domain.UploadError{Filename: f.Filename, Err: apperrors.InvalidInput("file has no content")}
	}
	rc, err := f.Open()
	if err != nil {
		uploadsTotal.WithLabelValues(driver, "error").Inc()
		return Asset{}, &domain.UploadError{Filename: f.Filename, Err: fmt.Errorf("open: %w", err)}
	}
	defer rc.Close()

	asset, err := put(ctx, rc)
	if err != nil {
		uploadsTotal.WithLabelValues(driver, "error").Inc()
		var ue *domain.UploadError
		if errors.As(err, &ue) {
			return Asset{}, err
		}
		return Asset{}, &domain.UploadError{Filename: f.Filename, Err: err}
	}
	uploadsTotal.WithLabelValues(driver, "success").Inc()
	return asset, nil
}
