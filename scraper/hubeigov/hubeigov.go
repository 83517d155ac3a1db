// Package hubeigov scrapes policy documents from the Hubei provincial
// government site.
package hubeigov

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/paper"
	"github.com/pevans/newsdocs/scraper"
)

// AttachmentCategory is the category whose entries link a related policy
// document next to the interpretation.
const AttachmentCategory = "政策解读库"

var (
	_ scraper.Site              = (*Site)(nil)
	_ scraper.AttachmentFetcher = (*Site)(nil)
)

// Site is the Hubei government scraper. Each configured URL is one
// category list page.
type Site struct {
	info    scraper.Info
	fetcher *scraper.Fetcher
	logger  *slog.Logger
}

// New creates the scraper.
func New(info scraper.Info, fetcher *scraper.Fetcher, logger *slog.Logger) *Site {
	return &Site{
		info:    info,
		fetcher: fetcher,
		logger:  logger,
	}
}

func (s *Site) Name() string   { return s.info.Name }
func (s *Site) NameCN() string { return s.info.NameCN }

// List returns the entries of every category page. In year mode each
// category is paged through index_N.shtml until the year runs out.
func (s *Site) List(ctx context.Context) ([]paper.Entry, error) {
	var entries []paper.Entry
	for _, url := range s.info.URLs {
		if s.info.Year == 0 {
			page, err := s.page(ctx, url, 0)
			if err != nil {
				s.logger.Error("failed to fetch list", "url", url, "error", err)
				continue
			}
			entries = append(entries, page.Entries...)
			continue
		}

		i := 0
		pagination := s.info.Pagination()
		pagination.Logger = s.logger
		found, err := pagination.Walk(ctx, url, func(ctx context.Context, pageURL string) (scraper.Page, error) {
			i++
			return s.page(ctx, pageURL, i)
		})
		if err != nil {
			s.logger.Error("failed to fetch list", "url", url, "error", err)
			continue
		}
		entries = append(entries, found...)
	}

	return entries, nil
}

// page fetches one list page. next is the index of the page after it.
func (s *Site) page(ctx context.Context, url string, next int) (scraper.Page, error) {
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return scraper.Page{}, err
	}

	page := scraper.Page{Entries: ParseList(doc, url)}
	if next > 0 {
		page.Next = scraper.Resolve(url, fmt.Sprintf("index_%d.shtml", next))
	}
	return page, nil
}

// ParseList extracts list entries from a category page. The category is
// the first link of the breadcrumb bar. Entries are <li> items or, on the
// newer layout, div.right blocks; a second link in an entry points to its
// attachment page.
func ParseList(doc *goquery.Document, pageURL string) []paper.Entry {
	category := scraper.Clean(doc.Find("div.hbgov-index-bar a").First().Text())

	main := doc.Find("div.hbgov-bfc-block").First()
	if main.Length() == 0 {
		return nil
	}

	items, dateTag := main.Find("li"), "span"
	if items.Length() == 0 {
		items, dateTag = main.Find("div.right"), "div"
	}

	var entries []paper.Entry
	items.Each(func(_ int, item *goquery.Selection) {
		links := item.Find("a")
		if links.Length() == 0 {
			return
		}

		first := links.First()
		href, _ := first.Attr("href")
		entry := paper.Entry{
			Category: category,
			Title:    strings.TrimSpace(first.Text()),
			PubTime:  strings.TrimSpace(item.Find(dateTag).First().Text()),
			Href:     scraper.Resolve(pageURL, href),
		}
		if links.Length() >= 2 {
			if attachment, ok := links.Eq(1).Attr("href"); ok {
				entry.AttachmentHref = scraper.Resolve(pageURL, attachment)
			}
		}
		entries = append(entries, entry)
	})
	return entries
}

// Detail returns the paragraphs of an article page.
func (s *Site) Detail(ctx context.Context, url string) (*goquery.Selection, error) {
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return nil, err
	}
	return body(doc, url)
}

func body(doc *goquery.Document, url string) (*goquery.Selection, error) {
	content := doc.Find("div.hbgov-article-content").First()
	if content.Length() == 0 {
		content = doc.Find("div.text_record").First()
	}

	ps := content.Find("p")
	if ps.Length() == 0 {
		return nil, errs.NoContent(url)
	}
	return ps, nil
}

// HasAttachment reports whether entries of category carry attachments.
func (s *Site) HasAttachment(category string) bool {
	return strings.Contains(category, AttachmentCategory)
}

// Attachment fetches the related document page linked from an
// interpretation entry.
func (s *Site) Attachment(ctx context.Context, url string) (string, *goquery.Selection, error) {
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return "", nil, err
	}

	title := strings.TrimSpace(doc.Find("div.hbgov-article-title h1").First().Text())
	ps, err := body(doc, url)
	if err != nil {
		return "", nil, err
	}
	return title, ps, nil
}

// ExtractParagraphs emits one paragraph per <p>, one run per child node,
// with <strong> runs in bold. Right-aligned signature lines are dropped.
func (s *Site) ExtractParagraphs(body *goquery.Selection) []paper.Paragraph {
	return scraper.RunParagraphs(body)
}
