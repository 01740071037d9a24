// Package aggregate counts distinct property values across normalized records.
package aggregate

import (
	"sort"

	"github.com/ppiankov/entagg/internal/model"
)

// Aggregator accumulates per-slug value counts.
// Slugs and values are remembered in first-seen order so that Table can
// break count ties deterministically.
type Aggregator struct {
	slugs   []string
	tallies map[string]*tally
	records int
}

// tally holds the counts for a single slug
type tally struct {
	order  []model.Value
	counts map[model.Value]int
}

// New creates an empty Aggregator
func New() *Aggregator {
	return &Aggregator{tallies: make(map[string]*tally)}
}

// Add counts every property of rec
func (a *Aggregator) Add(rec model.Record) {
	a.records++
	for _, slug := range rec.Slugs() {
		v := rec.Properties[slug]
		t, ok := a.tallies[slug]
		if !ok {
			t = &tally{counts: make(map[model.Value]int)}
			a.tallies[slug] = t
			a.slugs = append(a.slugs, slug)
		}
		if _, seen := t.counts[v]; !seen {
			t.order = append(t.order, v)
		}
		t.counts[v]++
	}
}

// Len returns the number of records added
func (a *Aggregator) Len() int {
	return a.records
}

// Table returns the counts for every slug, sorted by count descending.
// Equal counts keep the order in which their values were first seen.
func (a *Aggregator) Table() *model.Table {
	table := model.NewTable()
	for _, slug := range a.slugs {
		t := a.tallies[slug]
		counts := make([]model.ValueCount, len(t.order))
		for i, v := range t.order {
			counts[i] = model.ValueCount{Value: v, Count: t.counts[v]}
		}
		sort.SliceStable(counts, func(i, j int) bool {
			return counts[i].Count > counts[j].Count
		})
		table.Set(slug, counts)
	}
	return table
}
