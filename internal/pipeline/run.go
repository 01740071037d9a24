package pipeline

import (
	"fmt"

	"github.com/ppiankov/entagg/internal/aggregate"
	"github.com/ppiankov/entagg/internal/coerce"
	"github.com/ppiankov/entagg/internal/filter"
	"github.com/ppiankov/entagg/internal/model"
	"github.com/ppiankov/entagg/internal/source"
)

// Source produces raw records one at a time, eagerly or lazily
type Source = source.Records

// Options tunes a pipeline run
type Options struct {
	Coercion model.CoercionConfig
}

// Result is the outcome of a pipeline run
type Result struct {
	Table   *model.Table
	Read    int // Records consumed from the source
	Matched int // Records that passed the filter
}

// Run parses propertySpecs, then normalizes, filters and aggregates every
// record of src. Malformed specs fail before src is touched. Any error
// aborts the run without a partial result.
func Run(src Source, models []string, propertySpecs []string, opts Options) (*Result, error) {
	props, err := filter.ParseProperties(propertySpecs)
	if err != nil {
		return nil, err
	}
	return run(src, filter.New(models, props), opts)
}

func run(src Source, f *filter.Filter, opts Options) (*Result, error) {
	coercer := coerce.New(opts.Coercion)
	agg := aggregate.New()

	unfiltered := f.IsEmpty()
	read := 0
	for raw, err := range src {
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}

		rec, err := coercer.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", read, err)
		}
		read++

		if unfiltered || f.Match(rec) {
			agg.Add(rec)
		}
	}

	return &Result{
		Table:   agg.Table(),
		Read:    read,
		Matched: agg.Len(),
	}, nil
}
