package upload

import (
	"context"
	"io"

	"github.com/utafrali/catalog-admin/internal/domain"
)

// BackendUploader is the part of the catalog backend client that proxies
// the upload endpoint.
type BackendUploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (domain.ProductImage, error)
	DeleteUpload(ctx context.Context, publicID string) error
}

// BackendStore sends images to the catalog backend's upload endpoint.
type BackendStore struct {
	client BackendUploader
}

// NewBackendStore creates a BackendStore.
func NewBackendStore(client BackendUploader) *BackendStore {
	return &BackendStore{client: client}
}

func (s *BackendStore) Upload(ctx context.Context, f File) (Asset, error) {
	return upload(ctx, DriverBackend, f, func(ctx context.Context, r io.Reader) (Asset, error) {
		return s.client.Upload(ctx, f.Filename, f.ContentType, r)
	})
}

func (s *BackendStore) Delete(ctx context.Context, publicID string) error {
	return s.client.DeleteUpload(ctx, publicID)
}
