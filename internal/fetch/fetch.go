// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves paginated forum pages and decodes them from the
// site's legacy windows-1251 encoding to UTF-8. It is the engine's input
// collaborator: it hands decoded page text downstream and owns nothing of
// the extraction logic.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/pdiddy/genharvest/pkg/types"
)

// Handler consumes fetched pages during a walk. Keep reports whether a page
// should be fetched at all; pages it declines count as skipped. Page
// receives the decoded text of one page.
type Handler interface {
	Keep(page int) bool
	Page(page int, text string) error
}

// HandlerFunc adapts a function to a Handler that keeps every page.
type HandlerFunc func(page int, text string) error

// Keep always reports true.
func (HandlerFunc) Keep(int) bool { return true }

// Page calls the underlying function.
func (f HandlerFunc) Page(page int, text string) error { return f(page, text) }

// Summary holds the outcome of a page walk.
type Summary struct {
	Fetched int
	Skipped int
	Failed  int
}

// Total returns the number of pages processed.
func (s Summary) Total() int { return s.Fetched + s.Skipped + s.Failed }

// HasFailures reports whether any pages failed.
func (s Summary) HasFailures() bool { return s.Failed > 0 }

// Pager fetches forum pages sequentially.
type Pager struct {
	Client *http.Client
	Config types.FetchConfig
}

// NewPager builds a Pager with a timeout-configured client and defaults
// filled in for unset config fields.
func NewPager(cfg types.FetchConfig) *Pager {
	if cfg.BaseURL == "" {
		cfg.BaseURL = types.DefaultBaseURL
	}
	if cfg.TotalPages <= 0 {
		cfg.TotalPages = types.DefaultTotalPages
	}
	if cfg.OffsetStride <= 0 {
		cfg.OffsetStride = types.DefaultOffsetStride
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = types.DefaultPageDelay
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = types.DefaultErrorBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultHTTPTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = types.DefaultUserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = types.DefaultAcceptLanguage
	}
	return &Pager{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
	}
}

// PageURL returns the URL for a 1-based page number. The forum paginates
// by record offset, not page number.
func (p *Pager) PageURL(page int) string {
	offset := (page - 1) * p.Config.OffsetStride
	return fmt.Sprintf(p.Config.BaseURL, offset)
}

// FetchPage retrieves one page and returns its text decoded from
// windows-1251 to UTF-8.
func (p *Pager) FetchPage(ctx context.Context, page int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.PageURL(page), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)
	req.Header.Set("Accept-Language", p.Config.AcceptLanguage)

	resp, err := DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page %d returned HTTP %d", page, resp.StatusCode)
	}

	decoded := transform.NewReader(resp.Body, charmap.Windows1251.NewDecoder())
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("decoding page %d: %w", page, err)
	}
	return string(data), nil
}

// FetchAll walks pages 1..TotalPages in order, invoking the handler for
// each fetched page. A failed fetch is reported, counted, and followed by a
// longer backoff before the walk continues; one bad page never aborts the
// run. Progress goes to w: FetchAll writes an unterminated per-page prefix
// before fetching, and the handler is expected to finish the line with its
// own outcome note.
func (p *Pager) FetchAll(ctx context.Context, h Handler, w io.Writer) (Summary, error) {
	var summary Summary

	for page := 1; page <= p.Config.TotalPages; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if !h.Keep(page) {
			fmt.Fprintf(w, "skipped page %d/%d\n", page, p.Config.TotalPages)
			summary.Skipped++
			continue
		}

		fmt.Fprintf(w, "page %d/%d (offset=%d)... ",
			page, p.Config.TotalPages, (page-1)*p.Config.OffsetStride)

		text, err := p.FetchPage(ctx, page)
		if err != nil {
			fmt.Fprintf(w, "failed: %v\n", err)
			summary.Failed++
			if err := sleep(ctx, p.Config.ErrorBackoff); err != nil {
				return summary, err
			}
			continue
		}

		if err := h.Page(page, text); err != nil {
			return summary, fmt.Errorf("handling page %d: %w", page, err)
		}
		summary.Fetched++

		if page < p.Config.TotalPages {
			if err := sleep(ctx, p.Config.PageDelay); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
