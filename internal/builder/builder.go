// Package builder edits the custom field schema of a category.
package builder

import (
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/field"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
	"github.com/utafrali/catalog-admin/pkg/slug"
)

var (
	// ErrFieldNotFound is returned for an unknown entry ID.
	ErrFieldNotFound = errors.New("custom field not found")
	// ErrAtBoundary is returned when moving the first entry up or the last
	// entry down.
	ErrAtBoundary = errors.New("custom field cannot move further")
)

// Entry is one field under construction. TempID identifies it within the
// builder and is never saved.
type Entry struct {
	TempID    string                   `json:"id"`
	Schema    domain.CustomFieldSchema `json:"schema"`
	KeyEdited bool                     `json:"keyEdited"`
}

// Builder is the ordered list of fields being authored for a category. The
// list position is authoritative. Order values on entries may have gaps or
// duplicates while editing; Schema renumbers them to list position.
type Builder struct {
	CategoryID string  `json:"categoryId,omitempty"`
	Entries    []Entry `json:"entries"`
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{Entries: []Entry{}}
}

// FromSchema seeds a builder from a saved schema, sorted by order.
func FromSchema(fields []domain.CustomFieldSchema) *Builder {
	b := New()
	cat := domain.Category{CustomFields: fields}
	for _, f := range cat.SortedFields() {
		f.Options = slices.Clone(f.Options)
		b.Entries = append(b.Entries, Entry{TempID: uuid.NewString(), Schema: f, KeyEdited: true})
	}
	return b
}

// Add appends a text field and returns its ID.
func (b *Builder) Add() string {
	id := uuid.NewString()
	b.Entries = append(b.Entries, Entry{
		TempID: id,
		Schema: domain.CustomFieldSchema{
			InputType: domain.InputText,
			Order:     len(b.Entries) + 1,
		},
	})
	return id
}

// Remove deletes the entry. Remaining order values are left as they are.
func (b *Builder) Remove(id string) error {
	i, err := b.index(id)
	if err != nil {
		return err
	}
	b.Entries = slices.Delete(b.Entries, i, i+1)
	return nil
}

// CanMoveUp reports whether the entry has a predecessor.
func (b *Builder) CanMoveUp(id string) bool {
	i, err := b.index(id)
	return err == nil && i > 0
}

// CanMoveDown reports whether the entry has a successor.
func (b *Builder) CanMoveDown(id string) bool {
	i, err := b.index(id)
	return err == nil && i < len(b.Entries)-1
}

// MoveUp swaps the entry with its predecessor.
func (b *Builder) MoveUp(id string) error {
	i, err := b.index(id)
	if err != nil {
		return err
	}
	if i == 0 {
		return ErrAtBoundary
	}
	b.swap(i, i-1)
	return nil
}

// MoveDown swaps the entry with its successor.
func (b *Builder) MoveDown(id string) error {
	i, err := b.index(id)
	if err != nil {
		return err
	}
	if i == len(b.Entries)-1 {
		return ErrAtBoundary
	}
	b.swap(i, i+1)
	return nil
}

// swap exchanges positions and order values.
func (b *Builder) swap(i, j int) {
	oi, oj := b.Entries[i].Schema.Order, b.Entries[j].Schema.Order
	b.Entries[i], b.Entries[j] = b.Entries[j], b.Entries[i]
	b.Entries[i].Schema.Order, b.Entries[j].Schema.Order = oi, oj
}

// SetLabel updates the label. Until the key is edited directly it follows
// the label.
func (b *Builder) SetLabel(id, label string) error {
	e, err := b.entry(id)
	if err != nil {
		return err
	}
	e.Schema.Label = label
	if !e.KeyEdited {
		e.Schema.Key = domain.DeriveFieldKey(label)
	}
	return nil
}

// SetKey sets the key directly. The key is normalized; an empty result
// hands the key back to label derivation.
func (b *Builder) SetKey(id, key string) error {
	e, err := b.entry(id)
	if err != nil {
		return err
	}
	e.Schema.Key = slug.Key(key)
	e.KeyEdited = e.Schema.Key != ""
	if !e.KeyEdited {
		e.Schema.Key = domain.DeriveFieldKey(e.Schema.Label)
	}
	return nil
}

// SetInputType changes the input kind. Options are kept so switching back
// and forth does not lose them.
func (b *Builder) SetInputType(id string, t domain.InputType) error {
	if !t.Valid() {
		return apperrors.InvalidInput("unknown input type " + string(t))
	}
	e, err := b.entry(id)
	if err != nil {
		return err
	}
	e.Schema.InputType = t
	return nil
}

// SetFlags sets the required and visibility flags.
func (b *Builder) SetFlags(id string, required, showInFilters, showInHighlights bool) error {
	e, err := b.entry(id)
	if err != nil {
		return err
	}
	e.Schema.Required = required
	e.Schema.ShowInFilters = showInFilters
	e.Schema.ShowInHighlights = showInHighlights
	return nil
}

// SetOptions parses a comma separated option list.
func (b *Builder) SetOptions(id, csv string) error {
	e, err := b.entry(id)
	if err != nil {
		return err
	}
	e.Schema.Options = ParseOptions(csv)
	return nil
}

// ParseOptions splits on commas, trims, and drops blanks.
func ParseOptions(csv string) []string {
	out := []string{}
	for _, part := range strings.Split(csv, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Schema returns the fields in list order without validating them. Order is
// rewritten to the 1-based list position, so sorting the saved schema by
// order reproduces the list.
func (b *Builder) Schema() []domain.CustomFieldSchema {
	out := make([]domain.CustomFieldSchema, 0, len(b.Entries))
	for i, e := range b.Entries {
		s := e.Schema
		s.Order = i + 1
		if !s.InputType.HasOptions() {
			s.Options = nil
		}
		out = append(out, s)
	}
	return out
}

// Build validates the schema and returns it ready to save.
func (b *Builder) Build() ([]domain.CustomFieldSchema, error) {
	fields := b.Schema()
	if errs := domain.ValidateFieldSchemas(fields); len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}
	return fields, nil
}

// PreviewField is a disabled rendering of one entry.
type PreviewField struct {
	ID string `json:"id"`
	field.RenderedField
}

// Preview renders every entry read-only, in list order and with the order
// values Build would save. Entries whose input type has no control are left
// out.
func (b *Builder) Preview() []PreviewField {
	schema := b.Schema()
	out := make([]PreviewField, 0, len(schema))
	for i, s := range schema {
		c, err := field.New(s)
		if err != nil {
			continue
		}
		out = append(out, PreviewField{ID: b.Entries[i].TempID, RenderedField: c.Render(nil, "", true)})
	}
	return out
}

func (b *Builder) index(id string) (int, error) {
	i := slices.IndexFunc(b.Entries, func(e Entry) bool { return e.TempID == id })
	if i < 0 {
		return -1, ErrFieldNotFound
	}
	return i, nil
}

func (b *Builder) entry(id string) (*Entry, error) {
	i, err := b.index(id)
	if err != nil {
		return nil, err
	}
	return &b.Entries[i], nil
}
