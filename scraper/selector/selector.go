// Package selector implements a site variant driven entirely by CSS
// selectors from the configuration file, for sites without a dedicated
// scraper. Lists come from HTML pages or from an RSS/Atom feed.
package selector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/paper"
	"github.com/pevans/newsdocs/scraper"
)

var _ scraper.Site = (*Site)(nil)

// Site is a selector-configured scraper.
type Site struct {
	info    scraper.Info
	config  scraper.ScraperConfig
	fetcher *scraper.Fetcher
	logger  *slog.Logger
}

// New validates config and creates the scraper.
func New(info scraper.Info, config scraper.ScraperConfig, fetcher *scraper.Fetcher, logger *slog.Logger) (*Site, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scraper config for %s: %w", info.Name, err)
	}

	return &Site{
		info:    info,
		config:  config,
		fetcher: fetcher,
		logger:  logger,
	}, nil
}

func (s *Site) Name() string   { return s.info.Name }
func (s *Site) NameCN() string { return s.info.NameCN }

// List returns entries from every configured URL.
func (s *Site) List(ctx context.Context) ([]paper.Entry, error) {
	var entries []paper.Entry
	for _, url := range s.info.URLs {
		var (
			found []paper.Entry
			err   error
		)
		if s.config.DiscoveryMode == scraper.ModeFeed {
			found, err = s.feed(ctx, url)
		} else {
			found, err = s.list(ctx, url)
		}
		if err != nil {
			s.logger.Error("failed to fetch list", "url", url, "error", err)
			continue
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

func (s *Site) list(ctx context.Context, start string) ([]paper.Entry, error) {
	pagination := scraper.Pagination{
		Year:     s.info.Year,
		MaxPages: s.config.ListConfig.MaxPages,
		Logger:   s.logger,
	}
	if s.info.MaxPages > 0 {
		pagination.MaxPages = s.info.MaxPages
	}

	return pagination.Walk(ctx, start, func(ctx context.Context, url string) (scraper.Page, error) {
		doc, err := s.fetcher.Document(ctx, url)
		if err != nil {
			return scraper.Page{}, err
		}
		return ParseList(doc, url, s.config), nil
	})
}

// ParseList extracts entries and the next page link from a list page.
func ParseList(doc *goquery.Document, pageURL string, config scraper.ScraperConfig) scraper.Page {
	lc := config.ListConfig

	category := config.Category
	if lc.CategorySelector != "" {
		if c := scraper.Clean(doc.Find(lc.CategorySelector).First().Text()); c != "" {
			category = c
		}
	}

	var page scraper.Page
	doc.Find(lc.ArticleSelector).Each(func(_ int, item *goquery.Selection) {
		link := pick(item, lc.LinkSelector, "a")
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		title := scraper.Clean(pick(item, lc.TitleSelector, "a").Text())
		if t, ok := link.Attr("title"); ok && title == "" {
			title = scraper.Clean(t)
		}

		pubTime := paper.FindDate(item.Text())
		if lc.DateSelector != "" {
			pubTime = strings.TrimSpace(item.Find(lc.DateSelector).First().Text())
		}

		page.Entries = append(page.Entries, paper.Entry{
			Category: category,
			Title:    title,
			PubTime:  pubTime,
			Href:     scraper.Resolve(pageURL, href),
		})
	})

	if lc.PaginationSelector != "" {
		if next, ok := doc.Find(lc.PaginationSelector).First().Attr("href"); ok {
			page.Next = scraper.Resolve(pageURL, next)
		}
	}
	return page
}

// pick returns the first match of selector under item. An item that is
// itself the wanted element is returned when nothing below it matches.
func pick(item *goquery.Selection, selector, fallback string) *goquery.Selection {
	if selector == "" {
		selector = fallback
	}
	if found := item.Find(selector).First(); found.Length() > 0 {
		return found
	}
	if item.Is(selector) {
		return item
	}
	return item.Find(selector)
}

func (s *Site) feed(ctx context.Context, url string) ([]paper.Entry, error) {
	data, _, err := s.fetcher.Bytes(ctx, url)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Fetch(url, fmt.Errorf("failed to parse feed: %w", err))
	}

	category := s.config.Category
	if category == "" {
		category = feed.Title
	}
	return FeedEntries(feed, category), nil
}

// FeedEntries converts feed items to list entries. The item's first
// category wins over the fallback.
func FeedEntries(feed *gofeed.Feed, category string) []paper.Entry {
	entries := make([]paper.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entry := paper.Entry{
			Category: category,
			Title:    item.Title,
			Href:     item.Link,
		}
		if len(item.Categories) > 0 && item.Categories[0] != "" {
			entry.Category = item.Categories[0]
		}

		switch {
		case item.PublishedParsed != nil:
			entry.PubTime = item.PublishedParsed.Format(time.DateTime)
		case item.UpdatedParsed != nil:
			entry.PubTime = item.UpdatedParsed.Format(time.DateTime)
		default:
			entry.PubTime = item.Published
		}

		entries = append(entries, entry)
	}
	return entries
}

// Detail returns the configured paragraphs of an article page, with the
// subtitle first when one is configured.
func (s *Site) Detail(ctx context.Context, url string) (*goquery.Selection, error) {
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return nil, err
	}
	return Body(doc, url, s.config.ArticleConfig)
}

// Body selects the body paragraphs of an article.
func Body(doc *goquery.Document, url string, config scraper.ArticleConfig) (*goquery.Selection, error) {
	ps := doc.Find(config.ContentSelector).First().Find(config.ParagraphSelector)
	if config.SubtitleSelector != "" {
		if sub := doc.Find(config.SubtitleSelector).First(); sub.Length() > 0 {
			ps = sub.AddSelection(ps)
		}
	}

	if ps.Length() == 0 {
		return nil, errs.NoContent(url)
	}
	return ps, nil
}

// ExtractParagraphs emits one paragraph per element, one run per child,
// bold where the page marks strong emphasis.
func (s *Site) ExtractParagraphs(body *goquery.Selection) []paper.Paragraph {
	return scraper.RunParagraphs(body)
}
