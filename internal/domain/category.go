package domain

import (
	"cmp"
	"slices"
	"time"
)

// Category status constants.
const (
	CategoryStatusActive   = "active"
	CategoryStatusInactive = "inactive"
)

// Category is a product category as stored by the catalog backend. Its
// CustomFields define the specification controls of products filed under it.
type Category struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	ParentID     *string             `json:"parentId,omitempty"`
	Status       string              `json:"status"`
	Description  string              `json:"description,omitempty"`
	Image        string              `json:"image,omitempty"`
	CustomFields []CustomFieldSchema `json:"customFields"`
	SortOrder    int                 `json:"sortOrder"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// SortedFields returns a copy of the custom fields ordered by Order. Fields
// sharing an Order keep their original relative position.
func (c *Category) SortedFields() []CustomFieldSchema {
	if c == nil || len(c.CustomFields) == 0 {
		return nil
	}
	fields := slices.Clone(c.CustomFields)
	slices.SortStableFunc(fields, func(a, b CustomFieldSchema) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return fields
}

// Field returns the schema entry with the given key.
func (c *Category) Field(key string) (CustomFieldSchema, bool) {
	if c == nil {
		return CustomFieldSchema{}, false
	}
	for _, f := range c.CustomFields {
		if f.Key == key {
			return f, true
		}
	}
	return CustomFieldSchema{}, false
}

// CategoryInput is the body sent to the backend to create or update a
// category, including its full field schema.
type CategoryInput struct {
	Name         string              `json:"name" validate:"required,min=1,max=255"`
	Slug         string              `json:"slug" validate:"omitempty,max=255"`
	ParentID     *string             `json:"parentId,omitempty"`
	Status       string              `json:"status" validate:"omitempty,oneof=active inactive"`
	Description  string              `json:"description,omitempty"`
	Image        string              `json:"image,omitempty" validate:"omitempty,url"`
	CustomFields []CustomFieldSchema `json:"customFields"`
	SortOrder    int                 `json:"sortOrder" validate:"gte=0"`
}
