package field

import (
	"slices"
	"strings"
)

// MultiSelectControl holds a set of options in the order they were picked.
type MultiSelectControl struct{ base }

// SelectionChange adds or removes a single option of a multi-select field.
type SelectionChange struct {
	Add    string `json:"add,omitempty"`
	Remove string `json:"remove,omitempty"`
}

// Coerce keeps the first occurrence of each known option, in input order.
// A lone string counts as a one-element selection.
func (c MultiSelectControl) Coerce(raw any) any {
	var in []string
	switch v := raw.(type) {
	case []string:
		in = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				in = append(in, s)
			}
		}
	case string:
		if strings.TrimSpace(v) != "" {
			in = []string{v}
		}
	}

	out := make([]string, 0, len(in))
	for _, s := range in {
		if c.hasOption(s) {
			out = AddSelection(out, s)
		}
	}
	return out
}

func (c MultiSelectControl) IsEmpty(value any) bool {
	return len(c.Coerce(value).([]string)) == 0
}

func (c MultiSelectControl) Render(value any, errMsg string, disabled bool) RenderedField {
	return render(c, value, errMsg, disabled)
}

// Apply adds or removes one option. Adding an unknown option is ignored.
func (c MultiSelectControl) Apply(current any, change SelectionChange) []string {
	selected := c.Coerce(current).([]string)
	if change.Add != "" && c.hasOption(change.Add) {
		selected = AddSelection(selected, change.Add)
	}
	if change.Remove != "" {
		selected = RemoveSelection(selected, change.Remove)
	}
	return selected
}

// AddSelection appends v unless already selected. The input slice is not
// modified.
func AddSelection(selected []string, v string) []string {
	if slices.Contains(selected, v) {
		return selected
	}
	out := make([]string, len(selected), len(selected)+1)
	copy(out, selected)
	return append(out, v)
}

// RemoveSelection drops v if selected. The input slice is not modified.
func RemoveSelection(selected []string, v string) []string {
	i := slices.Index(selected, v)
	if i < 0 {
		return selected
	}
	out := make([]string, 0, len(selected)-1)
	out = append(out, selected[:i]...)
	return append(out, selected[i+1:]...)
}
