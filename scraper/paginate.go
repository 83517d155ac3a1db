package scraper

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/pevans/newsdocs/paper"
)

// Page is one list page: its entries and the URL of the page after it.
// An empty Next ends pagination.
type Page struct {
	Entries []paper.Entry
	Next    string
}

// PageFunc fetches and parses the list page at url.
type PageFunc func(ctx context.Context, url string) (Page, error)

// Pagination walks list pages in order, newest first. With a Year set,
// entries from later years are skipped and the walk stops at the first
// page that fails to fetch, has no entries, or holds an entry from an
// earlier year or with no date; entries before that point are kept.
// Without a Year only the first two stop conditions apply.
type Pagination struct {
	Year     int
	MaxPages int
	Logger   *slog.Logger
}

// Walk starts at start and follows Page.Next. A failure on the very first
// page is returned; later failures just end the walk.
func (p Pagination) Walk(ctx context.Context, start string, fetch PageFunc) ([]paper.Entry, error) {
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var year string
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}

	var entries []paper.Entry
	url := start
	for i := 0; i < maxPages && url != ""; i++ {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		page, err := fetch(ctx, url)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			logger.Warn("pagination stopped on fetch failure", "url", url, "page", i, "error", err)
			return entries, nil
		}

		if len(page.Entries) == 0 {
			logger.Debug("pagination stopped on empty page", "url", url, "page", i)
			return entries, nil
		}

		for _, e := range page.Entries {
			if year != "" {
				y := paper.Year(e.PubTime)
				if y != "" && y > year {
					continue
				}
				if y != year {
					logger.Debug("pagination stopped at year boundary", "url", url, "page", i, "pubtime", e.PubTime)
					return entries, nil
				}
			}
			entries = append(entries, e)
		}

		url = page.Next
	}

	return entries, nil
}
