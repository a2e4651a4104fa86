// ABOUTME: Closed set of parameter validation rules and the Schema built from them.
// ABOUTME: Schemas are declared once at tool registration and never mutated.

package schema

import "fmt"

// RuleKind enumerates the rule variants. The set is closed: Validate and
// Compile switch over every kind.
type RuleKind int

const (
	KindRequired RuleKind = iota + 1
	KindOptional
	KindType
	KindMin
	KindMax
	KindMinLength
	KindMaxLength
	KindOneOf
	KindNotEmpty
)

func (k RuleKind) String() string {
	switch k {
	case KindRequired:
		return "required"
	case KindOptional:
		return "optional"
	case KindType:
		return "type"
	case KindMin:
		return "min"
	case KindMax:
		return "max"
	case KindMinLength:
		return "minLength"
	case KindMaxLength:
		return "maxLength"
	case KindOneOf:
		return "oneOf"
	case KindNotEmpty:
		return "notEmpty"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// ValueType is the argument of a TypeIs rule.
type ValueType string

const (
	String ValueType = "string"
	Int    ValueType = "int"
	Float  ValueType = "float"
	Bool   ValueType = "bool"
	Array  ValueType = "array"
	Email  ValueType = "email"
	URL    ValueType = "url"
)

// Rule is a single validation rule. Construct rules with the functions below;
// the zero Rule is invalid.
type Rule struct {
	kind  RuleKind
	typ   ValueType
	bound float64
	set   []string
}

// Required marks a field that must be present and non-null.
func Required() Rule { return Rule{kind: KindRequired} }

// Optional marks a field that may be omitted. Fields without Required are
// optional anyway; Optional documents intent.
func Optional() Rule { return Rule{kind: KindOptional} }

// TypeIs requires the value to be of the given type.
func TypeIs(t ValueType) Rule { return Rule{kind: KindType, typ: t} }

// Min bounds a number, or the length of a string or array, from below (inclusive).
func Min(n float64) Rule { return Rule{kind: KindMin, bound: n} }

// Max bounds a number, or the length of a string or array, from above (inclusive).
func Max(n float64) Rule { return Rule{kind: KindMax, bound: n} }

// MinLength bounds the character length of a string from below (inclusive).
func MinLength(n int) Rule { return Rule{kind: KindMinLength, bound: float64(n)} }

// MaxLength bounds the character length of a string from above (inclusive).
func MaxLength(n int) Rule { return Rule{kind: KindMaxLength, bound: float64(n)} }

// OneOf requires exact, case-sensitive membership in values.
func OneOf(values ...string) Rule {
	set := make([]string, len(values))
	copy(set, values)
	return Rule{kind: KindOneOf, set: set}
}

// NotEmpty rejects empty strings, arrays and maps, zero numbers and false.
func NotEmpty() Rule { return Rule{kind: KindNotEmpty} }

// Kind reports the rule variant.
func (r Rule) Kind() RuleKind { return r.kind }

// Type reports the type argument of a TypeIs rule.
func (r Rule) Type() ValueType { return r.typ }

// Bound reports the numeric argument of Min, Max, MinLength and MaxLength.
func (r Rule) Bound() float64 { return r.bound }

// Values returns a copy of the OneOf set.
func (r Rule) Values() []string {
	out := make([]string, len(r.set))
	copy(out, r.set)
	return out
}

// Field pairs a parameter name with its ordered rules.
type Field struct {
	Name  string
	Rules []Rule
}

// F declares a field.
func F(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

// IsRequired reports whether the field carries a Required rule.
func (f Field) IsRequired() bool {
	return f.has(KindRequired)
}

func (f Field) has(kind RuleKind) bool {
	for _, r := range f.Rules {
		if r.kind == kind {
			return true
		}
	}
	return false
}

// Schema is an ordered set of uniquely named fields.
type Schema struct {
	fields []Field
}

// New builds a Schema. It panics on a duplicate field name, a field that is
// both Required and Optional, or a zero Rule: all are declaration bugs.
func New(fields ...Field) Schema {
	seen := make(map[string]struct{}, len(fields))
	out := make([]Field, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			panic("schema: field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
		if f.has(KindRequired) && f.has(KindOptional) {
			panic(fmt.Sprintf("schema: field %q is both required and optional", f.Name))
		}
		rules := make([]Rule, len(f.Rules))
		for j, r := range f.Rules {
			if r.kind == 0 {
				panic(fmt.Sprintf("schema: field %q has a zero rule", f.Name))
			}
			rules[j] = r
		}
		out[i] = Field{Name: f.Name, Rules: rules}
	}
	return Schema{fields: out}
}

// Fields returns the fields in declaration order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.fields) }

// Has reports whether name is a declared field.
func (s Schema) Has(name string) bool {
	for _, f := range s.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
