// Package specform renders the specification section of the product form
// from the selected category's field schema.
package specform

import (
	"log/slog"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/field"
)

// NoFieldsNotice is shown when the category defines no custom fields.
const NoFieldsNotice = "no custom fields"

// Form is the rendered specification section.
type Form struct {
	CategoryID string                `json:"categoryId,omitempty"`
	Empty      bool                  `json:"empty"`
	Notice     string                `json:"notice,omitempty"`
	Fields     []field.RenderedField `json:"fields"`
}

// Render builds one control per schema field, ordered by Order. Errors are
// looked up under spec_<key>. Fields with an unknown input type are skipped.
func Render(category *domain.Category, values domain.Specifications, errs map[string]string, logger *slog.Logger) Form {
	return render(category, values, errs, false, logger)
}

// Preview renders the category's fields disabled, with no values.
func Preview(category *domain.Category, logger *slog.Logger) Form {
	return render(category, nil, nil, true, logger)
}

func render(category *domain.Category, values domain.Specifications, errs map[string]string, disabled bool, logger *slog.Logger) Form {
	fields := category.SortedFields()
	if len(fields) == 0 {
		form := Form{Empty: true, Notice: NoFieldsNotice, Fields: []field.RenderedField{}}
		if category != nil {
			form.CategoryID = category.ID
		}
		return form
	}

	form := Form{CategoryID: category.ID, Fields: make([]field.RenderedField, 0, len(fields))}
	for _, s := range fields {
		c, err := field.New(s)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping custom field",
					slog.String("category_id", category.ID),
					slog.String("field_key", s.Key),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		form.Fields = append(form.Fields, c.Render(values[s.Key], errs[domain.SpecErrorKey(s.Key)], disabled))
	}
	return form
}

// Collect coerces raw edits against the category schema. Keys without a
// schema entry are carried through as given.
func Collect(category *domain.Category, raw map[string]any) domain.Specifications {
	out := make(domain.Specifications, len(raw))
	for k, v := range raw {
		s, ok := category.Field(k)
		if !ok {
			out[k] = v
			continue
		}
		c, err := field.New(s)
		if err != nil {
			out[k] = v
			continue
		}
		out[k] = c.Coerce(v)
	}
	return out
}
