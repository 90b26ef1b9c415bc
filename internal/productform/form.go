// Package productform holds the product form aggregate: the working draft,
// its validation rules and the submit state machine.
package productform

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/field"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
	"github.com/utafrali/catalog-admin/pkg/slug"
)

// State is the submit state of a form.
type State string

// Form states. Invalid and Failed keep the draft so the admin can correct
// and resubmit.
const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateInvalid    State = "invalid"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// ErrSubmitInProgress is returned when a submit starts while another one is
// still running for the same form.
var ErrSubmitInProgress = &apperrors.AppError{
	Code:    "SUBMIT_IN_PROGRESS",
	Message: "the product is already being saved",
	Status:  http.StatusConflict,
	Err:     apperrors.ErrConflict,
}

// Options tune form behaviour.
type Options struct {
	// ProtectManualSlug stops slug regeneration from the name once the slug
	// has been edited directly.
	ProtectManualSlug bool `json:"protectManualSlug"`
	// CommaAddsTag commits the tag input on "," as well as on Enter.
	CommaAddsTag bool `json:"commaAddsTag"`
	// SubmitTimeout bounds one backend save. A form still marked submitting
	// after it is treated as abandoned and may be submitted again.
	SubmitTimeout time.Duration `json:"submitTimeout"`
}

// DefaultSubmitTimeout is used when Options.SubmitTimeout is unset.
const DefaultSubmitTimeout = 30 * time.Second

// DefaultOptions returns the options used by the admin service.
func DefaultOptions() Options {
	return Options{ProtectManualSlug: true, CommaAddsTag: true, SubmitTimeout: DefaultSubmitTimeout}
}

// SubmitDeadline returns the effective submit timeout.
func (o Options) SubmitDeadline() time.Duration {
	if o.SubmitTimeout <= 0 {
		return DefaultSubmitTimeout
	}
	return o.SubmitTimeout
}

// Form is the product form for one create or edit session. It is plain data
// so it can be stored between requests.
type Form struct {
	ProductID   string              `json:"productId,omitempty"`
	Draft       domain.ProductDraft `json:"draft"`
	Category    *domain.Category    `json:"category,omitempty"`
	SlugEdited  bool                `json:"slugEdited"`
	TagInput    string              `json:"tagInput"`
	State       State               `json:"state"`
	Errors      map[string]string   `json:"errors,omitempty"`
	SubmitError string              `json:"submitError,omitempty"`
	Options     Options             `json:"options"`

	// SubmitStartedAt is set while State is submitting.
	SubmitStartedAt time.Time `json:"submitStartedAt,omitzero"`
}

// New returns an empty create form.
func New(opts Options) *Form {
	return &Form{
		Draft:   domain.NewProductDraft(),
		State:   StateIdle,
		Options: opts,
	}
}

// DeriveSlug builds a URL slug from a product name.
//
//	DeriveSlug("Men's Running Shoes!!") == "mens-running-shoes"
func DeriveSlug(name string) string {
	return slug.Generate(name)
}

// IsEdit reports whether the form edits an existing product.
func (f *Form) IsEdit() bool {
	return f.ProductID != ""
}

// LoadProduct seeds the form from an existing product. Specification values
// are kept even when the category no longer defines them.
func (f *Form) LoadProduct(p *domain.Product, category *domain.Category) {
	d := domain.ProductDraft{
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          domain.FormatNumber(p.Price),
		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		Stock:          domain.FormatNumber(float64(p.Stock)),
		Tags:           slices.Clone(p.Tags),
		Images:         slices.Clone(p.Images),
		IsFeatured:     p.IsFeatured,
		IsNew:          p.IsNew,
		IsOnSale:       p.IsOnSale,
		Status:         p.Status,
		Specifications: p.Specifications.Clone(),
	}
	if p.OriginalPrice != nil {
		d.OriginalPrice = domain.FormatNumber(*p.OriginalPrice)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Images == nil {
		d.Images = []domain.ProductImage{}
	}

	f.ProductID = p.ID
	f.Draft = d
	f.Category = category
	f.SlugEdited = p.Slug != ""
	f.State = StateIdle
	f.Errors = nil
	f.SubmitError = ""
}

// SetName updates the name and regenerates the slug, unless the slug was
// edited directly and ProtectManualSlug is on.
func (f *Form) SetName(name string) {
	f.Draft.Name = name
	if f.SlugEdited && f.Options.ProtectManualSlug {
		return
	}
	f.Draft.Slug = DeriveSlug(name)
}

// SetSlug records a direct slug edit. Clearing the slug re-enables
// derivation from the name.
func (f *Form) SetSlug(s string) {
	f.Draft.Slug = strings.TrimSpace(s)
	f.SlugEdited = f.Draft.Slug != ""
}

// SelectCategory switches the schema used for specifications. Changing to a
// different category discards the values entered so far.
func (f *Form) SelectCategory(c *domain.Category) {
	newID := ""
	if c != nil {
		newID = c.ID
	}
	if newID != f.Draft.CategoryID {
		f.Draft.Specifications = domain.Specifications{}
		for k := range f.Errors {
			if strings.HasPrefix(k, "spec_") {
				delete(f.Errors, k)
			}
		}
	}
	f.Draft.CategoryID = newID
	f.Category = c
}

// SetSpecification applies a raw edit to one specification field of the
// selected category's schema.
func (f *Form) SetSpecification(key string, raw any) error {
	errKey := domain.SpecErrorKey(key)
	s, ok := f.Category.Field(key)
	if !ok {
		return domain.NewValidationError(map[string]string{errKey: "Unknown specification field"})
	}

	v, err := field.Edit(s, f.Draft.Specifications[key], raw)
	if err != nil {
		return domain.NewValidationError(map[string]string{errKey: err.Error()})
	}

	if f.Draft.Specifications == nil {
		f.Draft.Specifications = domain.Specifications{}
	}
	f.Draft.Specifications[key] = v
	delete(f.Errors, errKey)
	return nil
}

// SetTagInput replaces the pending tag text.
func (f *Form) SetTagInput(text string) {
	f.TagInput = text
}

// TagKeyPressed handles a key press in the tag input. It reports whether a
// tag was added.
func (f *Form) TagKeyPressed(key string) bool {
	if key == "Enter" || (key == "," && f.Options.CommaAddsTag) {
		return f.AddTag(f.TagInput)
	}
	return false
}

// AddTag commits text as a tag and clears the tag input. Blank text and
// tags already present are ignored.
func (f *Form) AddTag(text string) bool {
	tag := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ","))
	if tag == "" {
		return false
	}
	f.TagInput = ""
	if slices.Contains(f.Draft.Tags, tag) {
		return false
	}
	f.Draft.Tags = append(f.Draft.Tags, tag)
	return true
}

// RemoveTag drops tag if present.
func (f *Form) RemoveTag(tag string) {
	f.Draft.Tags = slices.DeleteFunc(f.Draft.Tags, func(t string) bool { return t == tag })
}

// AddImages appends uploaded images to the draft.
func (f *Form) AddImages(images ...domain.ProductImage) {
	f.Draft.Images = append(f.Draft.Images, images...)
}

// RemoveImage removes the image at idx from the draft and returns it so the
// caller can release the remote asset.
func (f *Form) RemoveImage(idx int) (domain.ProductImage, error) {
	if idx < 0 || idx >= len(f.Draft.Images) {
		return domain.ProductImage{}, apperrors.InvalidInput("image index out of range")
	}
	img := f.Draft.Images[idx]
	f.Draft.Images = slices.Delete(f.Draft.Images, idx, idx+1)
	return img, nil
}
