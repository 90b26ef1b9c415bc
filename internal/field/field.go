// Package field turns custom field schemas into typed form controls. Each
// input type has its own Control variant; New is the only constructor.
package field

import (
	"errors"
	"fmt"
	"slices"

	"github.com/utafrali/catalog-admin/internal/domain"
)

// ErrUnknownInputType is returned by New for a schema whose input type has
// no control.
var ErrUnknownInputType = errors.New("unknown input type")

// Control is an editable control for one custom field. The set of variants
// is closed: TextControl, NumberControl, SelectControl, MultiSelectControl,
// BooleanControl and DateControl.
type Control interface {
	// Schema returns the field definition the control was built from.
	Schema() domain.CustomFieldSchema

	// Coerce converts a raw edit, as decoded from JSON, into the value type
	// of the field. It never panics; unusable input yields the unset value.
	Coerce(raw any) any

	// IsEmpty reports whether value fails a required check.
	IsEmpty(value any) bool

	// Render describes the control for the client.
	Render(value any, errMsg string, disabled bool) RenderedField

	sealed()
}

// RenderedField is the JSON descriptor of a rendered control.
type RenderedField struct {
	Key              string           `json:"key"`
	Label            string           `json:"label"`
	InputType        domain.InputType `json:"inputType"`
	Required         bool             `json:"required"`
	Options          []string         `json:"options,omitempty"`
	Value            any              `json:"value"`
	Error            string           `json:"error,omitempty"`
	Disabled         bool             `json:"disabled,omitempty"`
	ShowInFilters    bool             `json:"showInFilters"`
	ShowInHighlights bool             `json:"showInHighlights"`
	Order            int              `json:"order"`
}

// New returns the control variant for schema.InputType.
func New(schema domain.CustomFieldSchema) (Control, error) {
	b := base{schema: schema}
	switch schema.InputType {
	case domain.InputText:
		return TextControl{b}, nil
	case domain.InputNumber:
		return NumberControl{b}, nil
	case domain.InputSelect:
		return SelectControl{b}, nil
	case domain.InputMultiSelect:
		return MultiSelectControl{b}, nil
	case domain.InputBoolean:
		return BooleanControl{b}, nil
	case domain.InputDate:
		return DateControl{b}, nil
	default:
		return nil, fmt.Errorf("%w %q for field %q", ErrUnknownInputType, schema.InputType, schema.Key)
	}
}

// Edit applies a raw change to the current value of the field described by
// schema and returns the new typed value. For multi-select fields raw may
// be a SelectionChange, which adds or removes one option from current.
func Edit(schema domain.CustomFieldSchema, current, raw any) (any, error) {
	c, err := New(schema)
	if err != nil {
		return nil, err
	}

	if change, ok := raw.(SelectionChange); ok {
		ms, isMulti := c.(MultiSelectControl)
		if !isMulti {
			return nil, fmt.Errorf("field %q: selection change on %s field", schema.Key, schema.InputType)
		}
		return ms.Apply(current, change), nil
	}

	return c.Coerce(raw), nil
}

type base struct {
	schema domain.CustomFieldSchema
}

func (b base) Schema() domain.CustomFieldSchema { return b.schema }

func (base) sealed() {}

func (b base) hasOption(v string) bool {
	return slices.Contains(b.schema.Options, v)
}

func render(c Control, value any, errMsg string, disabled bool) RenderedField {
	s := c.Schema()
	rf := RenderedField{
		Key:              s.Key,
		Label:            s.Label,
		InputType:        s.InputType,
		Required:         s.Required,
		Value:            c.Coerce(value),
		Error:            errMsg,
		Disabled:         disabled,
		ShowInFilters:    s.ShowInFilters,
		ShowInHighlights: s.ShowInHighlights,
		Order:            s.Order,
	}
	if s.InputType.HasOptions() {
		rf.Options = slices.Clone(s.Options)
		if rf.Options == nil {
			rf.Options = []string{}
		}
	}
	return rf
}
