package productform

import (
	"log/slog"

	"github.com/utafrali/catalog-admin/internal/domain"
	"github.com/utafrali/catalog-admin/internal/specform"
)

// Form modes.
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// Snapshot is what the client sees of a form: the draft, its state and the
// specification section rendered from the selected category.
type Snapshot struct {
	Mode        string              `json:"mode"`
	ProductID   string              `json:"productId,omitempty"`
	Draft       domain.ProductDraft `json:"draft"`
	SlugEdited  bool                `json:"slugEdited"`
	TagInput    string              `json:"tagInput"`
	State       State               `json:"state"`
	Busy        bool                `json:"busy"`
	Errors      map[string]string   `json:"errors,omitempty"`
	SubmitError string              `json:"submitError,omitempty"`
	Specs       specform.Form       `json:"specs"`
}

// Snapshot renders the form for the client.
func (f *Form) Snapshot(logger *slog.Logger) Snapshot {
	mode := ModeCreate
	if f.IsEdit() {
		mode = ModeEdit
	}
	draft := f.Draft
	draft.Specifications = f.Draft.Specifications.Clone()

	return Snapshot{
		Mode:        mode,
		ProductID:   f.ProductID,
		Draft:       draft,
		SlugEdited:  f.SlugEdited,
		TagInput:    f.TagInput,
		State:       f.State,
		Busy:        f.State == StateSubmitting,
		Errors:      f.Errors,
		SubmitError: f.SubmitError,
		Specs:       specform.Render(f.Category, f.Draft.Specifications, f.Errors, logger),
	}
}
