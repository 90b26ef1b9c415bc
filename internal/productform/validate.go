package productform

import (
	"strings"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/field"
)

// Validation messages for base fields.
const (
	MsgNameRequired          = "Product name is required"
	MsgSlugRequired          = "Slug is required"
	MsgPricePositive         = "Price must be greater than 0"
	MsgCategoryRequired      = "Category is required"
	MsgBrandRequired         = "Brand is required"
	MsgStockNegative         = "Stock cannot be negative"
	MsgStockNotNumber        = "Stock must be a whole number"
	MsgOriginalPriceNegative = "Original price cannot be negative"
	MsgStatusInvalid         = "Status must be one of draft, active, inactive"
)

// Validate checks the whole draft and returns every violation, keyed by
// control: base fields by name and specification fields as spec_<key>. An
// empty map means the draft can be submitted.
func (f *Form) Validate() map[string]string {
	d := f.Draft
	errs := make(map[string]string)

	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = MsgNameRequired
	}
	if strings.TrimSpace(d.Slug) == "" {
		errs["slug"] = MsgSlugRequired
	}
	if price, ok := d.Price.Float(); !ok || price <= 0 {
		errs["price"] = MsgPricePositive
	}
	if d.CategoryID == "" {
		errs["category"] = MsgCategoryRequired
	}
	if d.BrandID == "" {
		errs["brand"] = MsgBrandRequired
	}
	if !d.Stock.IsBlank() {
		stock, ok := d.Stock.Int()
		switch {
		case !ok:
			errs["stock"] = MsgStockNotNumber
		case stock < 0:
			errs["stock"] = MsgStockNegative
		}
	}
	if !d.OriginalPrice.IsBlank() {
		if op, ok := d.OriginalPrice.Float(); !ok || op < 0 {
			errs["original_price"] = MsgOriginalPriceNegative
		}
	}
	if d.Status != "" && !domain.IsValidStatus(d.Status) {
		errs["status"] = MsgStatusInvalid
	}

	for _, s := range f.Category.SortedFields() {
		if !s.Required {
			continue
		}
		c, err := field.New(s)
		if err != nil {
			continue
		}
		if c.IsEmpty(d.Specifications[s.Key]) {
			errs[domain.SpecErrorKey(s.Key)] = s.Label + " is required"
		}
	}

	return errs
}

// Payload builds the wire body from the draft. Numeric text is converted
// here; boolean fields the admin never touched are sent as false.
func (f *Form) Payload() domain.ProductPayload {
	d := f.Draft
	p := domain.ProductPayload{
		Name:           strings.TrimSpace(d.Name),
		Slug:           strings.TrimSpace(d.Slug),
		Description:    d.Description,
		CategoryID:     d.CategoryID,
		BrandID:        d.BrandID,
		Tags:           append([]string{}, d.Tags...),
		Images:         append([]domain.ProductImage{}, d.Images...),
		IsFeatured:     d.IsFeatured,
		IsNew:          d.IsNew,
		IsOnSale:       d.IsOnSale,
		Status:         d.Status,
		Specifications: d.Specifications.Clone(),
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusDraft
	}
	if v, ok := d.Price.Float(); ok {
		p.Price = v
	}
	if v, ok := d.OriginalPrice.Float(); ok {
		p.OriginalPrice = &v
	}
	if v, ok := d.Stock.Int(); ok {
		p.Stock = v
	}

	for _, s := range f.Category.SortedFields() {
		if s.InputType != domain.InputBoolean {
			continue
		}
		if _, set := p.Specifications[s.Key]; !set {
			p.Specifications[s.Key] = false
		}
	}

	return p
}
