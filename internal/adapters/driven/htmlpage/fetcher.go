// Package htmlpage captures pages from their static HTML. It backs the
// default SnapshotSource, where visibility comes from inline styles only,
// and the markdown PageDigester.
package htmlpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration // Default: 30s.
	MaxBytes  int64         // Default: 5MB.
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "pagechat/1.0"
	}
}

// Page is a fetched HTML document.
type Page struct {
	// URL is the final URL after redirects.
	URL  string
	Body []byte
}

// Fetcher performs GET requests for HTML pages.
type Fetcher struct {
	client *http.Client
	cfg    Config
}

// NewFetcher creates a fetcher.
func NewFetcher(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		cfg: cfg,
	}
}

// Fetch retrieves pageURL. Non-2xx statuses and non-HTML bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Page{URL: resp.Request.URL.String(), Body: body}, nil
}
