// ABOUTME: Typed accessors over the untyped parameter map handed to handlers.
// ABOUTME: Understands json.Number so integer inputs survive JSON decoding.

package packs

import (
	"encoding/json"
	"math"
	"strconv"
)

// Params is the decoded arguments object of a tool call. Handlers read it
// only after validation, so accessors fall back to zero values rather than
// reporting type errors.
type Params map[string]any

// Has reports whether name is present with a non-nil value.
func (p Params) Has(name string) bool {
	v, ok := p[name]
	return ok && v != nil
}

// String returns the string value of name, or "".
func (p Params) String(name string) string {
	return p.StringOr(name, "")
}

// StringOr returns the string value of name, or def when absent.
func (p Params) StringOr(name, def string) string {
	if s, ok := p[name].(string); ok {
		return s
	}
	return def
}

// Int returns the integer value of name, or 0.
func (p Params) Int(name string) int64 {
	return p.IntOr(name, 0)
}

// IntOr returns the integer value of name, or def when absent or not integral.
func (p Params) IntOr(name string, def int64) int64 {
	if n, ok := toInt(p[name]); ok {
		return n
	}
	return def
}

// Bool returns the boolean value of name, or false.
func (p Params) Bool(name string) bool {
	return p.BoolOr(name, false)
}

// BoolOr returns the boolean value of name, or def when absent.
func (p Params) BoolOr(name string, def bool) bool {
	if b, ok := p[name].(bool); ok {
		return b
	}
	return def
}

// Slice returns the array value of name, or nil.
func (p Params) Slice(name string) []any {
	if s, ok := p[name].([]any); ok {
		return s
	}
	return nil
}

// Map returns the object value of name, or nil.
func (p Params) Map(name string) map[string]any {
	if m, ok := p[name].(map[string]any); ok {
		return m
	}
	return nil
}

// Ints returns the integral elements of the array value of name. Elements
// that are not integers are skipped.
func (p Params) Ints(name string) []int64 {
	raw := p.Slice(name)
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		if n, ok := toInt(v); ok {
			out = append(out, n)
		}
	}
	return out
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
