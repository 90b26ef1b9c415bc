package productform

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/utafrali/catalog-admin/internal/domain"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// Submitter persists a product payload.
type Submitter interface {
	CreateProduct(ctx context.Context, p domain.ProductPayload) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.ProductPayload) (*domain.Product, error)
}

// ImageDeleter releases an uploaded asset.
type ImageDeleter interface {
	Delete(ctx context.Context, publicID string) error
}

// BeginSubmit validates the draft and, when valid, moves the form to
// submitting and returns the payload to send. A validation failure leaves
// the form invalid and returns a 422 error carrying every field message.
// A submit mark older than the submit timeout no longer blocks: the save
// that set it has either finished or been cancelled.
func (f *Form) BeginSubmit() (domain.ProductPayload, error) {
	if f.submitInFlight(time.Now()) {
		return domain.ProductPayload{}, ErrSubmitInProgress
	}

	f.State = StateValidating
	f.SubmitError = ""
	if errs := f.Validate(); len(errs) > 0 {
		f.State = StateInvalid
		f.Errors = errs
		return domain.ProductPayload{}, domain.NewValidationError(errs)
	}

	f.Errors = nil
	f.State = StateSubmitting
	f.SubmitStartedAt = time.Now().UTC()
	return f.Payload(), nil
}

func (f *Form) submitInFlight(now time.Time) bool {
	if f.State != StateSubmitting || f.SubmitStartedAt.IsZero() {
		return false
	}
	return now.Sub(f.SubmitStartedAt) < f.Options.SubmitDeadline()
}

// CompleteSubmit records the outcome of the save started by BeginSubmit.
// On failure the draft is kept and the message is stored for display.
func (f *Form) CompleteSubmit(saved *domain.Product, err error) {
	f.SubmitStartedAt = time.Time{}
	if err != nil {
		f.State = StateFailed
		f.SubmitError = submitMessage(err)
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
			f.Errors = appErr.Fields
		}
		return
	}

	f.State = StateSuccess
	f.SubmitError = ""
	if saved != nil && saved.ID != "" {
		f.ProductID = saved.ID
	}
}

// Submit runs the full submit cycle against s. The backend is not called
// when validation fails.
func (f *Form) Submit(ctx context.Context, s Submitter) (*domain.Product, error) {
	payload, err := f.BeginSubmit()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.Options.SubmitDeadline())
	defer cancel()

	op := "create product"
	var saved *domain.Product
	if f.IsEdit() {
		op = "update product"
		saved, err = s.UpdateProduct(ctx, f.ProductID, payload)
	} else {
		saved, err = s.CreateProduct(ctx, payload)
	}

	f.CompleteSubmit(saved, err)
	if err != nil {
		return nil, &domain.SubmitError{Op: op, Err: err}
	}
	return saved, nil
}

// DeleteRemoteImage asks d to release img. Failures are logged and
// otherwise ignored; the image is already gone from the draft.
func DeleteRemoteImage(ctx context.Context, d ImageDeleter, img domain.ProductImage, logger *slog.Logger) {
	if d == nil || img.PublicID == "" {
		return
	}
	if err := d.Delete(ctx, img.PublicID); err != nil {
		logger.WarnContext(ctx, "failed to delete remote image",
			slog.String("public_id", img.PublicID),
			slog.String("error", err.Error()),
		)
	}
}

func submitMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, context.Canceled) {
		return "The save was cancelled"
	}
	return "The product could not be saved. Please try again."
}
