package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/utafrali/catalog-admin/internal/domain"
)

// UploadField is the multipart form field the upload endpoint reads.
const UploadField = "image"

// Upload sends one file to POST /upload and returns the stored asset.
func (c *Client) Upload(ctx context.Context, filename, contentType string, r io.Reader) (domain.ProductImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.ProductImage{}, fmt.Errorf("copy %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return domain.ProductImage{}, fmt.Errorf("close multipart writer: %w", err)
	}

	raw, err := c.send(ctx, http.MethodPost, "/upload", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return domain.ProductImage{}, &domain.UploadError{Filename: filename, Err: err}
	}

	var img domain.ProductImage
	if err := decodeData(raw, &img); err != nil {
		return domain.ProductImage{}, &domain.UploadError{Filename: filename, Err: fmt.Errorf("decode upload response: %w", err)}
	}
	if img.URL == "" {
		return domain.ProductImage{}, &domain.UploadError{Filename: filename, Err: errors.New("upload response has no url")}
	}
	return img, nil
}

// DeleteUpload removes a previously uploaded asset.
func (c *Client) DeleteUpload(ctx context.Context, publicID string) error {
	body := map[string]string{"public_id": publicID}
	if err := c.sendJSON(ctx, http.MethodDelete, "/upload", body, nil); err != nil {
		return fmt.Errorf("delete upload %s: %w", publicID, err)
	}
	return nil
}
