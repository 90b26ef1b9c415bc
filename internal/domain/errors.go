package domain

import (
	"fmt"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// NewValidationError reports user-correctable field errors. Keys match the
// form controls: base fields by name, specification fields as spec_<key>.
func NewValidationError(fields map[string]string) *apperrors.AppError {
	return apperrors.Validation(fields)
}

// SpecErrorKey returns the error key for the specification field key.
func SpecErrorKey(key string) string {
	return "spec_" + key
}

// FetchError reports a failed reference data load. The view stays usable
// and the caller may retry.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmitError reports a rejected or failed save. The draft is preserved.
type SubmitError struct {
	Op  string
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// UploadError reports the failure of one file in an upload batch.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
