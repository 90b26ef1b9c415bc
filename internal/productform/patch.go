package productform

import (
	"maps"
	"slices"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/field"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// Patch is a partial edit of the draft. Nil fields are left unchanged.
// CategoryID is resolved by the caller, which then calls SelectCategory.
type Patch struct {
	Name           *string              `json:"name"`
	Slug           *string              `json:"slug"`
	Description    *string              `json:"description"`
	Price          *domain.NumericInput `json:"price"`
	OriginalPrice  *domain.NumericInput `json:"originalPrice"`
	CategoryID     *string              `json:"categoryId"`
	BrandID        *string              `json:"brandId"`
	Stock          *domain.NumericInput `json:"stock"`
	Status         *string              `json:"status"`
	IsFeatured     *bool                `json:"isFeatured"`
	IsNew          *bool                `json:"isNew"`
	IsOnSale       *bool                `json:"isOnSale"`
	TagInput       *string              `json:"tagInput"`
	Specifications map[string]any       `json:"specifications"`
}

// Apply edits the draft. A name change runs before a slug change so an
// explicit slug in the same patch wins. Specification edits that fail are
// reported together; the other edits still apply.
func (f *Form) Apply(p Patch) error {
	if p.Name != nil {
		f.SetName(*p.Name)
	}
	if p.Slug != nil {
		f.SetSlug(*p.Slug)
	}
	if p.Description != nil {
		f.Draft.Description = *p.Description
	}
	if p.Price != nil {
		f.Draft.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		f.Draft.OriginalPrice = *p.OriginalPrice
	}
	if p.BrandID != nil {
		f.Draft.BrandID = *p.BrandID
	}
	if p.Stock != nil {
		f.Draft.Stock = *p.Stock
	}
	if p.Status != nil {
		f.Draft.Status = *p.Status
	}
	if p.IsFeatured != nil {
		f.Draft.IsFeatured = *p.IsFeatured
	}
	if p.IsNew != nil {
		f.Draft.IsNew = *p.IsNew
	}
	if p.IsOnSale != nil {
		f.Draft.IsOnSale = *p.IsOnSale
	}
	if p.TagInput != nil {
		f.SetTagInput(*p.TagInput)
	}

	failed := make(map[string]string)
	for _, key := range slices.Sorted(maps.Keys(p.Specifications)) {
		if err := f.SetSpecification(key, specEdit(p.Specifications[key])); err != nil {
			if appErr, ok := err.(*apperrors.AppError); ok {
				maps.Copy(failed, appErr.Fields)
			}
		}
	}
	if len(failed) > 0 {
		return domain.NewValidationError(failed)
	}
	return nil
}

// specEdit recognises {"add": v} and {"remove": v} objects as multi-select
// changes.
func specEdit(raw any) any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	var change field.SelectionChange
	if v, ok := obj["add"].(string); ok {
		change.Add = v
	}
	if v, ok := obj["remove"].(string); ok {
		change.Remove = v
	}
	if change == (field.SelectionChange{}) {
		return raw
	}
	return change
}
