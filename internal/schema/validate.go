// ABOUTME: Validation engine evaluating a Schema against untyped tool parameters.
// ABOUTME: Every field is checked; within a field the first failing rule wins.

package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Report maps field names to a human-readable error. An empty Report means
// the parameters are valid.
type Report map[string]string

// Valid reports whether no field failed.
func (r Report) Valid() bool { return len(r) == 0 }

// Validate checks params against s. A field that is absent or nil is an error
// only if it is required; otherwise its rules are skipped. Present fields run
// their rules in declared order and record only the first failure.
func Validate(params map[string]any, s Schema) Report {
	report := Report{}
	for _, f := range s.fields {
		value, present := params[f.Name]
		if !present || value == nil {
			if f.IsRequired() {
				report[f.Name] = fmt.Sprintf("Field '%s' is required", f.Name)
			}
			continue
		}
		for _, r := range f.Rules {
			if msg, ok := check(r, value); !ok {
				report[f.Name] = f.Name + " " + msg
				break
			}
		}
	}
	return report
}

// check applies one rule. Required and Optional were resolved by the caller
// and always pass here.
func check(r Rule, v any) (string, bool) {
	switch r.kind {
	case KindRequired, KindOptional:
		return "", true
	case KindType:
		return checkType(r.typ, v)
	case KindMin:
		n, ok := measure(v)
		if !ok || n < r.bound {
			return "must be at least " + formatBound(r.bound), false
		}
		return "", true
	case KindMax:
		n, ok := measure(v)
		if !ok || n > r.bound {
			return "must be at most " + formatBound(r.bound), false
		}
		return "", true
	case KindMinLength:
		s, ok := v.(string)
		if !ok || float64(utf8.RuneCountInString(s)) < r.bound {
			return "must be at least " + formatBound(r.bound) + " characters", false
		}
		return "", true
	case KindMaxLength:
		s, ok := v.(string)
		if !ok || float64(utf8.RuneCountInString(s)) > r.bound {
			return "must be at most " + formatBound(r.bound) + " characters", false
		}
		return "", true
	case KindOneOf:
		s, ok := v.(string)
		if ok {
			for _, allowed := range r.set {
				if s == allowed {
					return "", true
				}
			}
		}
		return "must be one of: " + strings.Join(r.set, ", "), false
	case KindNotEmpty:
		if isEmpty(v) {
			return "must not be empty", false
		}
		return "", true
	default:
		return fmt.Sprintf("has unknown rule %s", r.kind), false
	}
}

func checkType(t ValueType, v any) (string, bool) {
	switch t {
	case String:
		_, ok := v.(string)
		return "must be a string", ok
	case Int:
		return "must be an integer", isInteger(v)
	case Float:
		_, ok := toNumber(v)
		return "must be a float", ok
	case Bool:
		_, ok := v.(bool)
		return "must be a boolean", ok
	case Array:
		k := reflect.ValueOf(v).Kind()
		return "must be an array", k == reflect.Slice || k == reflect.Array || k == reflect.Map
	case Email:
		s, ok := v.(string)
		if !ok {
			return "must be a valid email", false
		}
		addr, err := mail.ParseAddress(s)
		return "must be a valid email", err == nil && addr.Address == s
	case URL:
		s, ok := v.(string)
		if !ok {
			return "must be a valid URL", false
		}
		u, err := url.Parse(s)
		return "must be a valid URL", err == nil && u.Scheme != "" && u.Host != ""
	default:
		return fmt.Sprintf("has unknown type %q", string(t)), false
	}
}

// toNumber converts Go and JSON-decoded numerics to float64.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// isInteger accepts Go integers, whole float64 values (encoding/json decodes
// every number as float64) and json.Number values without a fraction.
func isInteger(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Int64()
		return err == nil
	case float64:
		return !math.IsInf(n, 0) && n == math.Trunc(n)
	case float32:
		f := float64(n)
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// measure returns the comparable magnitude of v: the value of a number, or
// the length of a string, slice or map.
func measure(v any) (float64, bool) {
	if n, ok := toNumber(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		return float64(utf8.RuneCountInString(s)), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return float64(rv.Len()), true
	default:
		return 0, false
	}
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return !x
	}
	if n, ok := toNumber(v); ok {
		return n == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}

func formatBound(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
