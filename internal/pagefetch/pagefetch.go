// Package pagefetch retrieves dashboard pages so their links can be scanned.
package pagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"navcheck/internal/logging"
)

const (
	defaultMaxBytes = 2 << 20 // 2MB
	defaultLimit    = 4
	userAgent       = "Mozilla/5.0 (compatible; navcheck/1.0)"
)

// Fetcher downloads HTML pages.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// New returns a fetcher whose client gives up after timeout.
func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: defaultMaxBytes,
	}
}

// Page is one fetched document.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// Result pairs a requested URL with its page or the error that prevented it.
type Result struct {
	URL  string
	Page Page
	Err  error
}

// Fetch retrieves url. Non-200 responses are errors.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if url == "" {
		return Page{}, fmt.Errorf("url is required")
	}
	logging.FetchDebug("Fetching %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read response: %w", err)
	}

	logging.Fetch("Fetched %s (%d bytes)", url, len(body))
	return Page{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(body),
	}, nil
}

// FetchAll fetches urls with at most limit requests in flight. Results are
// in input order; one page failing does not stop the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, limit int) []Result {
	if limit <= 0 {
		limit = defaultLimit
	}
	results := make([]Result, len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, u := range urls {
		eg.Go(func() error {
			page, err := f.Fetch(egCtx, u)
			results[i] = Result{URL: u, Page: page, Err: err}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}
