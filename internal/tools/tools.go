// Package tools defines the static catalog of assistant-callable operations
// and their risk classification.
package tools

import "encoding/json"

// CatalogVersion identifies the current tool table. Bump it whenever a tool
// is added, removed or has its parameters changed.
const CatalogVersion = "2026.10.1"

// Tier is the blast-radius classification of a tool.
type Tier string

const (
	TierRead      Tier = "read"
	TierWriteLow  Tier = "write_low"
	TierWriteHigh Tier = "write_high"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierRead, TierWriteLow, TierWriteHigh:
		return true
	}
	return false
}

// Property is one JSON-schema property. Object-typed properties (array items)
// carry their own Properties and Required, and must set AdditionalProperties
// to false.
type Property struct {
	Type                 string              `json:"type"`
	Description          string              `json:"description,omitempty"`
	Enum                 []string            `json:"enum,omitempty"`
	Minimum              *float64            `json:"minimum,omitempty"`
	Items                *Property           `json:"items,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

// Schema is a strict object schema: named fields only, no additional
// properties.
type Schema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

// Describer renders a human-readable confirmation sentence for a call.
type Describer func(args map[string]interface{}) string

// Descriptor is one catalog entry.
type Descriptor struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Parameters  Schema    `json:"parameters"`
	Tier        Tier      `json:"tier"`
	Describe    Describer `json:"-"`
}

// ParametersJSON returns the parameter schema as JSON.
func (d Descriptor) ParametersJSON() json.RawMessage {
	b, _ := json.Marshal(d.Parameters)
	return b
}

// object builds a strict object schema.
func object(props map[string]Property, required ...string) Schema {
	return Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}

// strictItem builds a closed object schema for array items.
func strictItem(props map[string]Property, required ...string) *Property {
	closed := false
	return &Property{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &closed,
	}
}

func str(desc string) Property { return Property{Type: "string", Description: desc} }
func integer(desc string) Property { return Property{Type: "integer", Description: desc} }
func number(desc string) Property { return Property{Type: "number", Description: desc} }
func enum(desc string, vals []string) Property { return Property{Type: "string", Description: desc, Enum: vals} }

func id(desc string) Property {
	one := 1.0
	return Property{Type: "integer", Description: desc, Minimum: &one}
}

func cloneProperty(p Property) Property {
	out := p
	if p.Enum != nil {
		out.Enum = append([]string(nil), p.Enum...)
	}
	if p.Minimum != nil {
		m := *p.Minimum
		out.Minimum = &m
	}
	if p.Items != nil {
		items := cloneProperty(*p.Items)
		out.Items = &items
	}
	if p.Properties != nil {
		out.Properties = cloneProperties(p.Properties)
	}
	if p.Required != nil {
		out.Required = append([]string(nil), p.Required...)
	}
	if p.AdditionalProperties != nil {
		ap := *p.AdditionalProperties
		out.AdditionalProperties = &ap
	}
	return out
}

func cloneProperties(in map[string]Property) map[string]Property {
	out := make(map[string]Property, len(in))
	for k, v := range in {
		out[k] = cloneProperty(v)
	}
	return out
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Parameters.Properties = cloneProperties(d.Parameters.Properties)
	if d.Parameters.Required != nil {
		out.Parameters.Required = append([]string(nil), d.Parameters.Required...)
	}
	return out
}
