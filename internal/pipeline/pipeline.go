// Package pipeline runs the normalize, filter and aggregate stages over a
// record source and wires loading and rendering around them.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ppiankov/entagg/internal/cache"
	"github.com/ppiankov/entagg/internal/filter"
	"github.com/ppiankov/entagg/internal/logging"
	"github.com/ppiankov/entagg/internal/model"
	"github.com/ppiankov/entagg/internal/source"
)

// Pipeline loads input documents and aggregates them
type Pipeline struct {
	fetcher *Fetcher
	cache   cache.Cache // nil when caching is disabled
	logger  *slog.Logger
	config  *model.Config
}

// NewPipeline creates a new pipeline with the given configuration.
// A nil logger discards all output.
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{
		fetcher: NewFetcher(cfg.HTTP),
		cache:   cache.New(cfg.Cache),
		logger:  logger,
		config:  cfg,
	}
}

// Request describes one aggregation
type Request struct {
	Input       string   // File path or http(s) URL
	RecordsPath string   // Dot-separated keys to the record array
	Stream      bool     // Decode incrementally instead of loading the whole document
	Models      []string // Model allow-list (empty = all)
	Properties  []string // Filter specs, key:value1,value2
}

// RequestFromConfig builds a Request from the input section of the config
func RequestFromConfig(cfg *model.Config, models, properties []string) Request {
	return Request{
		Input:       cfg.Input.Path,
		RecordsPath: cfg.Input.RecordsPath,
		Stream:      cfg.Input.Stream,
		Models:      models,
		Properties:  properties,
	}
}

// Aggregate loads req.Input and runs the pipeline over it.
// Filter specs are validated before any input is read.
func (p *Pipeline) Aggregate(ctx context.Context, req Request) (*Result, error) {
	props, err := filter.ParseProperties(req.Properties)
	if err != nil {
		return nil, err
	}
	f := filter.New(req.Models, props)

	start := time.Now()
	src, closeSrc, err := p.open(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", req.Input, err)
	}
	defer func() { _ = closeSrc() }()

	result, err := run(src, f, Options{Coercion: p.config.Coercion})
	if err != nil {
		p.evict(req)
		return nil, err
	}

	p.logger.Debug("aggregation complete",
		slog.String("input", req.Input),
		slog.Bool("stream", req.Stream),
		slog.Int("records_read", result.Read),
		slog.Int("records_matched", result.Matched),
		slog.Int("slugs", result.Table.Len()),
		slog.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// open returns a record source for req and a function releasing it
func (p *Pipeline) open(ctx context.Context, req Request) (Source, func() error, error) {
	noop := func() error { return nil }

	if req.Stream {
		var (
			r   io.ReadCloser
			err error
		)
		if IsURL(req.Input) {
			r, err = p.fetcher.Open(ctx, req.Input)
		} else {
			r, err = os.Open(req.Input)
		}
		if err != nil {
			return nil, noop, err
		}
		return source.Stream(r, req.RecordsPath), r.Close, nil
	}

	data, err := p.readDocument(ctx, req.Input)
	if err != nil {
		return nil, noop, err
	}
	return source.Load(data, req.RecordsPath), noop, nil
}

// readDocument reads a local file, or fetches a URL through the cache
func (p *Pipeline) readDocument(ctx context.Context, input string) ([]byte, error) {
	if !IsURL(input) {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	var key string
	if p.cache != nil {
		key = cache.Key(input)
		if data, found := p.cache.Get(key); found {
			p.logger.Debug("cache hit", slog.String("url", input))
			return data, nil
		}
	}

	p.logger.Debug("fetching document", slog.String("url", input))
	result, err := p.fetcher.Fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("fetched document",
		slog.String("final_url", result.FinalURL),
		slog.Int("status", result.Meta.StatusCode),
		slog.String("content_type", result.Meta.ContentType),
		slog.String("etag", result.Meta.ETag),
		slog.String("last_modified", result.Meta.LastModified),
		slog.Int("bytes", len(result.Body)),
	)

	if p.cache != nil {
		if err := p.cache.Set(key, result.Body, 0); err != nil {
			p.logger.Warn("cache write failed", slog.String("url", input), slog.Any("error", err))
		}
	}

	return result.Body, nil
}

// evict drops the cached copy of a fetched document that failed to
// aggregate, so the next run fetches it again
func (p *Pipeline) evict(req Request) {
	if p.cache == nil || req.Stream || !IsURL(req.Input) {
		return
	}
	if err := p.cache.Delete(cache.Key(req.Input)); err != nil {
		p.logger.Warn("cache eviction failed", slog.String("url", req.Input), slog.Any("error", err))
		return
	}
	p.logger.Debug("evicted cached document", slog.String("url", req.Input))
}

// ClearCache removes every cached document
func (p *Pipeline) ClearCache() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Clear()
}
