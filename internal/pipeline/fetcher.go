package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/entagg/internal/model"
	"github.com/ppiankov/entagg/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids fetching the input URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrTooLarge is returned when a document exceeds the configured body limit
var ErrTooLarge = errors.New("document exceeds max body bytes")

// Fetcher fetches JSON documents from URLs
type Fetcher struct {
	httpClient *http.Client
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	limiter    *util.HostLimiter   // nil when unlimited
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:   util.NewHostLimiter(cfg.RateLimit, cfg.RateBurst),
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, f.httpClient)
	}
	return f
}

// FetchResult contains the fetched document and metadata
type FetchResult struct {
	Body     []byte
	Meta     FetchMeta
	FinalURL string
}

// FetchMeta contains HTTP metadata from fetching the document
type FetchMeta struct {
	StatusCode   int    `json:"status_code"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
}

// Fetch retrieves the whole document at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := f.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Body: body,
		Meta: FetchMeta{
			StatusCode:   resp.StatusCode,
			ContentType:  resp.Header.Get("Content-Type"),
			LastModified: resp.Header.Get("Last-Modified"),
			ETag:         resp.Header.Get("ETag"),
		},
		FinalURL: resp.Request.URL.String(),
	}, nil
}

// Open starts fetching rawURL and returns the response body for
// incremental reading. The caller must close it. Reading more than the
// configured body limit fails with ErrTooLarge.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return &limitedBody{body: resp.Body, left: f.maxBytes, max: f.maxBytes}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if f.robots != nil {
		allowed, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrDisallowed)
		}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, */*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}

// readBody reads at most maxBytes, failing rather than truncating the document
func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("read body: %w (%d)", ErrTooLarge, f.maxBytes)
	}
	return body, nil
}

// limitedBody fails with ErrTooLarge once more than max bytes arrive
type limitedBody struct {
	body io.ReadCloser
	left int64
	max  int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.left <= 0 {
		// One more byte tells a body of exactly max bytes from a larger one
		var extra [1]byte
		n, err := io.ReadFull(b.body, extra[:])
		if n > 0 {
			return 0, fmt.Errorf("read body: %w (%d)", ErrTooLarge, b.max)
		}
		return 0, err
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.body.Read(p)
	b.left -= int64(n)
	return n, err
}

func (b *limitedBody) Close() error {
	return b.body.Close()
}

// IsURL reports whether input names an http(s) resource rather than a local file
func IsURL(input string) bool {
	lower := strings.ToLower(input)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
