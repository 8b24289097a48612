package fields

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Path addresses a value inside decoded JSON (map[string]any trees).
// Each element is a map key; the payload shapes we read never index arrays.
type Path []string

// P builds a Path from a dotted string, e.g. P("message.call.id").
func P(dotted string) Path {
	if dotted == "" {
		return nil
	}
	return Path(strings.Split(dotted, "."))
}

func (p Path) String() string { return strings.Join(p, ".") }

// Lookup walks m along p. It returns false if any hop is missing or not an object,
// or if the final value is JSON null.
func Lookup(m map[string]any, p Path) (any, bool) {
	if m == nil || len(p) == 0 {
		return nil, false
	}
	var cur any = m
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[key]
		if !ok {
			return nil, false
		}
		cur = v
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// FirstString returns the first non-blank string found along paths, trimmed.
// Numbers are formatted so a phone number sent as a JSON number still matches.
func FirstString(m map[string]any, paths ...Path) string {
	s, _ := FirstStringPath(m, paths...)
	return s
}

// FirstStringPath is FirstString that also reports which path matched.
func FirstStringPath(m map[string]any, paths ...Path) (string, Path) {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s, p
		}
	}
	return "", nil
}

// FirstMap returns the first object found along paths. A JSON-encoded object
// stored as a string (some platforms send tool arguments that way) is decoded.
func FirstMap(m map[string]any, paths ...Path) map[string]any {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			return t
		case string:
			var out map[string]any
			if err := json.Unmarshal([]byte(t), &out); err == nil && out != nil {
				return out
			}
		}
	}
	return nil
}

// FirstSlice returns the first array found along paths.
func FirstSlice(m map[string]any, paths ...Path) []any {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		if s, ok := v.([]any); ok {
			return s
		}
	}
	return nil
}

// FirstNumber returns the first numeric value found along paths.
// Numeric strings are accepted.
func FirstNumber(m map[string]any, paths ...Path) (float64, bool) {
	for _, p := range paths {
		v, ok := Lookup(m, p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t, true
		case int:
			return float64(t), true
		case int64:
			return float64(t), true
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Any reports whether at least one of paths resolves to a non-blank scalar.
// Objects and arrays do not count.
func Any(m map[string]any, paths ...Path) bool {
	for _, p := range paths {
		if v, ok := Lookup(m, p); ok && stringify(v) != "" {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
