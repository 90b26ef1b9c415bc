package field

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// TextControl is a free-text input. Values are strings.
type TextControl struct{ base }

func (c TextControl) Coerce(raw any) any {
	s, _ := stringOf(raw)
	return s
}

func (c TextControl) IsEmpty(value any) bool {
	s, _ := value.(string)
	return strings.TrimSpace(s) == ""
}

func (c TextControl) Render(value any, errMsg string, disabled bool) RenderedField {
	return render(c, value, errMsg, disabled)
}

// NumberControl is a numeric input. Values are float64; nil means unset.
type NumberControl struct{ base }

func (c NumberControl) Coerce(raw any) any {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func (c NumberControl) IsEmpty(value any) bool {
	return c.Coerce(value) == nil
}

func (c NumberControl) Render(value any, errMsg string, disabled bool) RenderedField {
	return render(c, value, errMsg, disabled)
}

// BooleanControl is a toggle. Values are always a strict bool.
type BooleanControl struct{ base }

func (c BooleanControl) Coerce(raw any) any {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true
		}
		return false
	case float64:
		return v == 1
	case int:
		return v == 1
	default:
		return false
	}
}

// IsEmpty is always false: an untouched toggle is a valid false.
func (c BooleanControl) IsEmpty(any) bool {
	return false
}

func (c BooleanControl) Render(value any, errMsg string, disabled bool) RenderedField {
	return render(c, value, errMsg, disabled)
}

// SelectControl picks one value from the schema options. The unset value is
// the empty string, which is never a valid option.
type SelectControl struct{ base }

func (c SelectControl) Coerce(raw any) any {
	s, ok := stringOf(raw)
	if !ok || !c.hasOption(s) {
		return ""
	}
	return s
}

func (c SelectControl) IsEmpty(value any) bool {
	return c.Coerce(value) == ""
}

func (c SelectControl) Render(value any, errMsg string, disabled bool) RenderedField {
	return render(c, value, errMsg, disabled)
}

// DateControl holds a calendar date formatted YYYY-MM-DD, without a
// time zone. Invalid input yields "".
type DateControl struct{ base }

func (c DateControl) Coerce(raw any) any {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(time.DateOnly)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return ""
		}
		if d, err := time.Parse(time.DateOnly, s); err == nil {
			return d.Format(time.DateOnly)
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			// Keep the calendar date as written, ignoring the offset.
			return s[:len(time.DateOnly)]
		}
		return ""
	default:
		return ""
	}
}

func (c DateControl) IsEmpty(value any) bool {
	return c.Coerce(value) == ""
}

func (c DateControl) Render(value any, errMsg string, disabled bool) RenderedField {
	return render(c, value, errMsg, disabled)
}

// stringOf formats scalar JSON values as text. ok is false for nil and
// non-scalar values.
func stringOf(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case []string:
		return strings.Join(v, ", "), true
	default:
		return "", false
	}
}
