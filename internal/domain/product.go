package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Product status constants.
const (
	ProductStatusDraft    = "draft"
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// ValidStatuses returns the set of valid product statuses.
func ValidStatuses() []string {
	return []string{ProductStatusDraft, ProductStatusActive, ProductStatusInactive}
}

// IsValidStatus checks whether the given status string is a valid product status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ProductImage is an uploaded product image.
type ProductImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
}

// Product is a persisted product as returned by the catalog backend.
type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Description    string         `json:"description,omitempty"`
	Price          float64        `json:"price"`
	OriginalPrice  *float64       `json:"originalPrice,omitempty"`
	CategoryID     string         `json:"categoryId"`
	BrandID        string         `json:"brandId"`
	Stock          int            `json:"stock"`
	Tags           []string       `json:"tags"`
	Images         []ProductImage `json:"images"`
	IsFeatured     bool           `json:"isFeatured"`
	IsNew          bool           `json:"isNew"`
	IsOnSale       bool           `json:"isOnSale"`
	Status         string         `json:"status"`
	Specifications Specifications `json:"specifications"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NumericInput is the raw text of a numeric form control. Form controls
// produce strings; coercion to a number happens when the payload is built.
// JSON numbers are accepted as well.
type NumericInput string

// UnmarshalJSON accepts a JSON string, number or null.
func (n *NumericInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericInput(s)
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = NumericInput(f.String())
	return nil
}

// IsBlank reports whether no value was entered.
func (n NumericInput) IsBlank() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Float parses the input. ok is false for blank, malformed or non-finite
// text ("NaN", "Inf").
func (n NumericInput) Float() (v float64, ok bool) {
	if n.IsBlank() {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// maxWholeNumber is the largest magnitude a float64 holds without losing
// integer precision.
const maxWholeNumber = 1 << 53

// Int parses the input as a whole number. ok is false for fractions and
// magnitudes above maxWholeNumber.
func (n NumericInput) Int() (v int, ok bool) {
	f, ok := n.Float()
	if !ok || f != math.Trunc(f) || math.Abs(f) > maxWholeNumber {
		return 0, false
	}
	return int(f), true
}

// FormatNumber renders f without a trailing ".0" for whole numbers.
func FormatNumber(f float64) NumericInput {
	return NumericInput(strconv.FormatFloat(f, 'f', -1, 64))
}

// ProductDraft is the working state of the product form before submission.
type ProductDraft struct {
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Description    string         `json:"description"`
	Price          NumericInput   `json:"price"`
	OriginalPrice  NumericInput   `json:"originalPrice"`
	CategoryID     string         `json:"categoryId"`
	BrandID        string         `json:"brandId"`
	Stock          NumericInput   `json:"stock"`
	Tags           []string       `json:"tags"`
	Images         []ProductImage `json:"images"`
	IsFeatured     bool           `json:"isFeatured"`
	IsNew          bool           `json:"isNew"`
	IsOnSale       bool           `json:"isOnSale"`
	Status         string         `json:"status"`
	Specifications Specifications `json:"specifications"`
}

// NewProductDraft returns an empty draft with status draft.
func NewProductDraft() ProductDraft {
	return ProductDraft{
		Tags:           []string{},
		Images:         []ProductImage{},
		Status:         ProductStatusDraft,
		Specifications: Specifications{},
	}
}

// ProductPayload is the body of POST /products and PUT /products/{id}.
type ProductPayload struct {
	Name           string         `json:"name"`
	Slug           string         `json:"slug"`
	Description    string         `json:"description"`
	Price          float64        `json:"price"`
	OriginalPrice  *float64       `json:"originalPrice,omitempty"`
	CategoryID     string         `json:"categoryId"`
	BrandID        string         `json:"brandId"`
	Stock          int            `json:"stock"`
	Tags           []string       `json:"tags"`
	Images         []ProductImage `json:"images"`
	IsFeatured     bool           `json:"isFeatured"`
	IsNew          bool           `json:"isNew"`
	IsOnSale       bool           `json:"isOnSale"`
	Status         string         `json:"status"`
	Specifications Specifications `json:"specifications"`
}

// ProductFilter holds list filters passed through to the backend.
type ProductFilter struct {
	Search     string
	CategoryID string
	BrandID    string
	Status     string
}
