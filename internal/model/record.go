package model

import "sort"

// RawRecord is one entity as it appears in the input document
type RawRecord struct {
	Model      string        `json:"model"`      // Category label (e.g., "person")
	Properties []RawProperty `json:"properties"` // Typed key/value triples, in document order
}

// RawProperty is a single typed property of a raw record.
// Value holds nil, string, json.Number or bool when decoded from JSON.
type RawProperty struct {
	Slug  string `json:"slug"`
	Type  string `json:"type"` // "string", "integer" or "boolean"
	Value any    `json:"value"`
}

// Record is a normalized entity: every property value coerced to its declared type
type Record struct {
	Model      string
	Properties map[string]Value
	Order      []string // Slugs in first-occurrence order; optional
}

// Slugs returns the record's slugs, in Order when it covers every property
// and sorted otherwise
func (r Record) Slugs() []string {
	if len(r.Order) == len(r.Properties) {
		return r.Order
	}
	slugs := make([]string, 0, len(r.Properties))
	for slug := range r.Properties {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Get returns the coerced value for slug and whether the record carries it
func (r Record) Get(slug string) (Value, bool) {
	v, ok := r.Properties[slug]
	return v, ok
}

// PropertyFilter maps a slug to the string forms of its acceptable values
type PropertyFilter map[string][]string

// PropertyType is the declared type of a raw property
type PropertyType int

const (
	TypeString PropertyType = iota + 1
	TypeInteger
	TypeBoolean
)

// ParsePropertyType maps a type tag to its PropertyType.
// The second result is false for tags outside the three supported types.
func ParsePropertyType(tag string) (PropertyType, bool) {
	switch tag {
	case "string":
		return TypeString, true
	case "integer":
		return TypeInteger, true
	case "boolean":
		return TypeBoolean, true
	default:
		return 0, false
	}
}

func (t PropertyType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}
