package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Specifications holds a product's category-scoped attribute values keyed by
// CustomFieldSchema.Key. Value types follow the field's input type: string
// for text, select and date, float64 for number, bool for boolean and
// []string for multi-select.
//
// The canonical wire shape is a JSON object. Older backend responses carry
// an array of {"name","value"} pairs, which UnmarshalJSON also accepts.
type Specifications map[string]any

type legacySpecification struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// MarshalJSON always emits the key to value object form.
func (s Specifications) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(s))
}

// UnmarshalJSON accepts either the object form or the legacy pair array.
func (s *Specifications) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = Specifications{}
		return nil
	}

	if trimmed[0] == '[' {
		var pairs []legacySpecification
		if err := json.Unmarshal(trimmed, &pairs); err != nil {
			return fmt.Errorf("decode specification pairs: %w", err)
		}
		out := make(Specifications, len(pairs))
		for _, p := range pairs {
			if p.Name == "" {
				continue
			}
			out[p.Name] = normalizeJSONValue(p.Value)
		}
		*s = out
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return fmt.Errorf("decode specifications: %w", err)
	}
	out := make(Specifications, len(m))
	for k, v := range m {
		out[k] = normalizeJSONValue(v)
	}
	*s = out
	return nil
}

// Clone returns a copy that shares no slices with s.
func (s Specifications) Clone() Specifications {
	out := make(Specifications, len(s))
	for k, v := range s {
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out[k] = v
	}
	return out
}

// Keys returns the keys in sorted order.
func (s Specifications) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// normalizeJSONValue turns decoded string arrays back into []string so
// multi-select values have one representation in memory.
func normalizeJSONValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		str, ok := item.(string)
		if !ok {
			return v
		}
		out = append(out, str)
	}
	return out
}
