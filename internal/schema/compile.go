// ABOUTME: Projects a Schema into the JSON Schema document advertised to MCP clients.
// ABOUTME: Advertisement only; validation never consults the compiled document.

package schema

import "encoding/json"

// Property describes one advertised parameter.
type Property struct {
	Type string `json:"type"`
}

// InputSchema is the client-facing input schema of a tool.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Compile derives the input schema. Required lists, in declaration order,
// every field with a Required rule. A field's type defaults to "string" and
// each int, bool, array or string TypeIs rule overwrites it, so the last one
// declared wins. Float, email and url rules leave the type unchanged.
func Compile(s Schema) InputSchema {
	doc := InputSchema{
		Type:       "object",
		Properties: make(map[string]Property, len(s.fields)),
	}
	for _, f := range s.fields {
		if f.IsRequired() {
			doc.Required = append(doc.Required, f.Name)
		}
		doc.Properties[f.Name] = Property{Type: advertisedType(f.Rules)}
	}
	return doc
}

func advertisedType(rules []Rule) string {
	typ := "string"
	for _, r := range rules {
		if r.kind != KindType {
			continue
		}
		switch r.typ {
		case Int:
			typ = "integer"
		case Bool:
			typ = "boolean"
		case Array:
			typ = "array"
		case String:
			typ = "string"
		case Float, Email, URL:
		}
	}
	return typ
}

// JSON returns the document encoded as JSON.
func (d InputSchema) JSON() json.RawMessage {
	// Only strings and maps of strings: Marshal cannot fail.
	b, _ := json.Marshal(d)
	return b
}
