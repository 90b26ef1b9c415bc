package domain

import (
	"fmt"
	"strings"

	"github.com/utafrali/catalog-admin/pkg/slug"
	"github.com/utafrali/catalog-admin/pkg/validator"
)

// InputType is the kind of control a custom field renders as.
type InputType string

// Supported input types.
const (
	InputText        InputType = "text"
	InputNumber      InputType = "number"
	InputSelect      InputType = "select"
	InputMultiSelect InputType = "multi-select"
	InputBoolean     InputType = "boolean"
	InputDate        InputType = "date"
)

// InputTypes returns every supported input type in display order.
func InputTypes() []InputType {
	return []InputType{InputText, InputNumber, InputSelect, InputMultiSelect, InputBoolean, InputDate}
}

// ParseInputType converts s into an InputType.
func ParseInputType(s string) (InputType, error) {
	t := InputType(strings.TrimSpace(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown input type %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported input types.
func (t InputType) Valid() bool {
	for _, v := range InputTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether values of t are chosen from a fixed list.
func (t InputType) HasOptions() bool {
	return t == InputSelect || t == InputMultiSelect
}

// CustomFieldSchema describes one admin-defined product attribute attached
// to a category.
type CustomFieldSchema struct {
	Key              string    `json:"key"`
	Label            string    `json:"label"`
	InputType        InputType `json:"inputType"`
	Options          []string  `json:"options,omitempty"`
	Required         bool      `json:"required"`
	ShowInFilters    bool      `json:"showInFilters"`
	ShowInHighlights bool      `json:"showInHighlights"`
	Order            int       `json:"order"`
}

// Validate checks a single schema entry and returns field-level messages
// keyed by the schema attribute ("key", "label", "inputType", "options").
func (f CustomFieldSchema) Validate() map[string]string {
	errs := make(map[string]string)

	switch {
	case strings.TrimSpace(f.Key) == "":
		errs["key"] = "Field key is required"
	case !validator.IsFieldKey(f.Key):
		errs["key"] = "Field key may only contain lowercase letters, digits and underscores"
	}
	if strings.TrimSpace(f.Label) == "" {
		errs["label"] = "Field label is required"
	}
	if !f.InputType.Valid() {
		errs["inputType"] = fmt.Sprintf("Unknown input type %q", f.InputType)
	} else if f.InputType.HasOptions() && len(f.Options) == 0 {
		errs["options"] = "At least one option is required"
	}

	return errs
}

// DeriveFieldKey builds a storage key from a display label: lowercase, runs
// of non-alphanumerics collapsed to one underscore.
//
//	DeriveFieldKey("Screen Size (in)") == "screen_size_in"
func DeriveFieldKey(label string) string {
	return slug.Key(label)
}

// ValidateFieldSchemas validates every entry and checks key uniqueness among
// siblings. Errors are keyed "customFields[i].<attr>".
func ValidateFieldSchemas(fields []CustomFieldSchema) map[string]string {
	errs := make(map[string]string)
	seen := make(map[string]int, len(fields))

	for i, f := range fields {
		for attr, msg := range f.Validate() {
			errs[fieldErrorKey(i, attr)] = msg
		}
		if f.Key == "" {
			continue
		}
		if first, dup := seen[f.Key]; dup {
			errs[fieldErrorKey(i, "key")] = fmt.Sprintf("Field key %q is already used by field %d", f.Key, first+1)
			continue
		}
		seen[f.Key] = i
	}

	return errs
}

func fieldErrorKey(i int, attr string) string {
	return fmt.Sprintf("customFields[%d].%s", i, attr)
}
