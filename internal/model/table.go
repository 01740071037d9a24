package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ValueCount is the number of records carrying a given value for a slug
type ValueCount struct {
	Value Value
	Count int
}

// MarshalJSON encodes the pair as a two-element array: [value, count]
func (vc ValueCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{vc.Value.Interface(), vc.Count})
}

// MarshalYAML encodes the pair as a {value, count} mapping
func (vc ValueCount) MarshalYAML() (interface{}, error) {
	return struct {
		Value any `yaml:"value"`
		Count int `yaml:"count"`
	}{vc.Value.Interface(), vc.Count}, nil
}

// Table maps each slug to its value counts, sorted by count descending.
// Slugs are kept in the order they were first added.
type Table struct {
	slugs  []string
	counts map[string][]ValueCount
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{counts: make(map[string][]ValueCount)}
}

// Set stores the counts for slug, appending slug to the order if it is new
func (t *Table) Set(slug string, counts []ValueCount) {
	if _, exists := t.counts[slug]; !exists {
		t.slugs = append(t.slugs, slug)
	}
	t.counts[slug] = counts
}

// Get returns the counts for slug
func (t *Table) Get(slug string) ([]ValueCount, bool) {
	counts, ok := t.counts[slug]
	return counts, ok
}

// Slugs returns the slugs in first-seen order
func (t *Table) Slugs() []string {
	out := make([]string, len(t.slugs))
	copy(out, t.slugs)
	return out
}

// Len returns the number of slugs in the table
func (t *Table) Len() int {
	return len(t.slugs)
}


// Top returns a copy of the table keeping at most n entries per slug.
// n <= 0 keeps everything.
func (t *Table) Top(n int) *Table {
	out := NewTable()
	for _, slug := range t.slugs {
		counts := t.counts[slug]
		if n > 0 && len(counts) > n {
			counts = counts[:n]
		}
		out.Set(slug, counts)
	}
	return out
}

// MarshalJSON encodes the table as an object whose keys follow slug order
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, slug := range t.slugs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(slug)
		if err != nil {
			return nil, fmt.Errorf("marshal slug %q: %w", slug, err)
		}
		counts, err := json.Marshal(t.counts[slug])
		if err != nil {
			return nil, fmt.Errorf("marshal counts for %q: %w", slug, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(counts)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the table as a mapping whose keys follow slug order
func (t *Table) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, slug := range t.slugs {
		var counts yaml.Node
		if err := counts.Encode(t.counts[slug]); err != nil {
			return nil, fmt.Errorf("encode counts for %q: %w", slug, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: slug},
			&counts,
		)
	}
	return node, nil
}
