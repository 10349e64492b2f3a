// Package webpage turns a saved link into a short text summary that
// can ride along in prompt context.
package webpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultMaxBody   = 512 * 1024
	defaultNoteRunes = 200
)

// Summary is what a page tells us about itself.
type Summary struct {
	Title       string
	Description string
}

// Fetcher retrieves pages and extracts their summaries.
type Fetcher struct {
	client  *http.Client
	maxBody int64
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithClient sets a custom HTTP client
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithMaxBodySize caps how many bytes of a page are read
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// NewFetcher creates a page fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		maxBody: defaultMaxBody,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Summarize fetches pageURL and extracts its title and description.
// Preference order is Open Graph metadata, then standard meta tags,
// then the first substantial paragraph.
func (f *Fetcher) Summarize(ctx context.Context, pageURL string) (*Summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	summary := &Summary{
		Title:       pageTitle(doc),
		Description: pageDescription(doc),
	}
	return summary, nil
}

func pageTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := collapse(content); title != "" {
			return title
		}
	}
	return collapse(doc.Find("title").First().Text())
}

func pageDescription(doc *goquery.Document) string {
	for _, selector := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
		if content, ok := doc.Find(selector).Attr("content"); ok {
			if desc := collapse(content); desc != "" {
				return desc
			}
		}
	}

	var desc string
	doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := collapse(s.Text())
		if len(text) >= 60 {
			desc = text
			return false
		}
		return true
	})
	return desc
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
