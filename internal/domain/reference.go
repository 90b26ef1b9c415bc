package domain

import (
	"encoding/json"
	"time"
)

// Brand is a brand reference record.
type Brand struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Logo        string    `json:"logo,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BrandInput is the body for creating or updating a brand.
type BrandInput struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Slug        string `json:"slug" validate:"omitempty,max=255"`
	Logo        string `json:"logo,omitempty" validate:"omitempty,url"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Agent and PickupStation are passed through untouched; the admin service
// lists them but applies no rules to their contents.
type (
	Agent         = json.RawMessage
	PickupStation = json.RawMessage
)
