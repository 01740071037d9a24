// Package filter selects normalized records by model and property values.
package filter

import (
	"github.com/ppiankov/entagg/internal/model"
)

// Filter matches records against a model allow-list and property constraints.
// Property constraints are AND-combined; values within one constraint are
// OR-combined. An empty allow-list and an empty constraint set match everything.
type Filter struct {
	models map[string]bool
	props  map[string]map[string]bool
}

// New creates a Filter, pre-building lookup sets for models and values
func New(models []string, props model.PropertyFilter) *Filter {
	f := &Filter{
		models: toSet(models),
		props:  make(map[string]map[string]bool, len(props)),
	}
	for slug, values := range props {
		f.props[slug] = toSet(values)
	}
	return f
}

// Match reports whether rec passes both the model and property conditions
func (f *Filter) Match(rec model.Record) bool {
	return f.matchModel(rec) && f.matchProperties(rec)
}

func (f *Filter) matchModel(rec model.Record) bool {
	return len(f.models) == 0 || f.models[rec.Model]
}

func (f *Filter) matchProperties(rec model.Record) bool {
	for slug, accepted := range f.props {
		v, ok := rec.Get(slug)
		if !ok {
			// Absent slugs never match, whatever the null literal is
			return false
		}
		if !accepted[v.String()] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether the filter accepts every record
func (f *Filter) IsEmpty() bool {
	return len(f.models) == 0 && len(f.props) == 0
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
