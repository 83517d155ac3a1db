// Package renmin scrapes People's Daily Online channel pages, including
// the Japanese edition.
package renmin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/paper"
	"github.com/pevans/newsdocs/scraper"
)

// indentMarker is the pair of ideographic spaces the site uses to indent
// paragraphs.
const indentMarker = "　　"

const unknownCategory = "Unknown"

var _ scraper.Site = (*Site)(nil)

type layout int

const (
	channelLayout layout = iota
	japaneseLayout
)

// Site scrapes a People's Daily channel page.
type Site struct {
	info    scraper.Info
	fetcher *scraper.Fetcher
	logger  *slog.Logger
	layout  layout
}

// New creates a scraper for the Chinese channel layout.
func New(info scraper.Info, fetcher *scraper.Fetcher, logger *slog.Logger) *Site {
	return &Site{info: info, fetcher: fetcher, logger: logger, layout: channelLayout}
}

// NewJapanese creates a scraper for the Japanese edition. Year mode is not
// available there; the latest list page is always used.
func NewJapanese(info scraper.Info, fetcher *scraper.Fetcher, logger *slog.Logger) *Site {
	return &Site{info: info, fetcher: fetcher, logger: logger, layout: japaneseLayout}
}

func (s *Site) Name() string   { return s.info.Name }
func (s *Site) NameCN() string { return s.info.NameCN }

// List returns the entries of every configured channel page.
func (s *Site) List(ctx context.Context) ([]paper.Entry, error) {
	var entries []paper.Entry
	for _, url := range s.info.URLs {
		doc, err := s.fetcher.Document(ctx, url)
		if err != nil {
			s.logger.Error("failed to fetch list", "url", url, "error", err)
			continue
		}

		base := scraper.Root(url)
		switch {
		case s.layout == japaneseLayout:
			entries = append(entries, ParseJapaneseList(doc, base)...)
		case s.info.Year > 0:
			entries = append(entries, s.yearList(ctx, doc, url, base)...)
		default:
			entries = append(entries, ParseList(doc, base)...)
		}
	}
	return entries, nil
}

// Categories returns the category names from the channel header, in the
// order of the list blocks below it.
func Categories(doc *goquery.Document) []string {
	var categories []string
	doc.Find("div.header").First().Find("div.item").First().Find("span").Each(func(_ int, span *goquery.Selection) {
		categories = append(categories, strings.TrimSpace(span.Find("a").First().Text()))
	})
	return categories
}

func categoryAt(categories []string, i int) string {
	if i < len(categories) {
		return categories[i]
	}
	return unknownCategory
}

// ParseList extracts the entries of every category block on a channel
// page. Relative links resolve against base.
func ParseList(doc *goquery.Document, base string) []paper.Entry {
	categories := Categories(doc)

	var entries []paper.Entry
	blocks(doc).Each(func(i int, block *goquery.Selection) {
		entries = append(entries, parseItems(block, categoryAt(categories, i), base)...)
	})
	return entries
}

func blocks(doc *goquery.Document) *goquery.Selection {
	return doc.Find("div.leftItem").First().Find("div.item")
}

func parseItems(block *goquery.Selection, category, base string) []paper.Entry {
	var entries []paper.Entry
	block.Find("li").Each(func(_ int, li *goquery.Selection) {
		entries = append(entries, parseItem(li, category, base))
	})
	return entries
}

func parseItem(li *goquery.Selection, category, base string) paper.Entry {
	pubTime := strings.TrimSpace(li.Find("i").First().Text())
	if pubTime == "" {
		pubTime = paper.FindDate(li.Text())
	}

	entry := paper.Entry{Category: category, PubTime: pubTime}
	if a := li.Find("a").First(); a.Length() > 0 {
		entry.Title = strings.ReplaceAll(strings.TrimSpace(a.Text()), "（"+category+"）", "")
		href, _ := a.Attr("href")
		entry.Href = scraper.Resolve(base, href)
	}
	return entry
}

// yearList follows each category block's "more" link and pages through
// the category archive with its 下一页 link.
func (s *Site) yearList(ctx context.Context, doc *goquery.Document, pageURL, base string) []paper.Entry {
	categories := Categories(doc)
	pagination := s.info.Pagination()
	pagination.Logger = s.logger

	var entries []paper.Entry
	blocks(doc).Each(func(i int, block *goquery.Selection) {
		category := categoryAt(categories, i)
		more, ok := block.Find("h3 a").First().Attr("href")
		if !ok || strings.TrimSpace(more) == "" {
			s.logger.Warn("category has no archive link", "category", category)
			return
		}

		found, err := pagination.Walk(ctx, scraper.Resolve(pageURL, strings.TrimSpace(more)), func(ctx context.Context, url string) (scraper.Page, error) {
			page, err := s.fetcher.Document(ctx, url)
			if err != nil {
				return scraper.Page{}, err
			}
			return ParseArchivePage(page, url, category, base), nil
		})
		if err != nil {
			s.logger.Error("failed to fetch category archive", "category", category, "error", err)
			return
		}
		entries = append(entries, found...)
	})
	return entries
}

// ParseArchivePage extracts one page of a category archive and the link to
// the next page.
func ParseArchivePage(doc *goquery.Document, pageURL, category, base string) scraper.Page {
	page := scraper.Page{
		Entries: parseItems(blocks(doc).First(), category, base),
	}

	doc.Find(`td[align="right"] a`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) != "下一页" {
			return true
		}
		if href, ok := a.Attr("href"); ok {
			page.Next = scraper.Resolve(pageURL, href)
		}
		return false
	})
	return page
}

// ParseJapaneseList extracts entries from a Japanese edition list page.
// The whole page is one category.
func ParseJapaneseList(doc *goquery.Document, base string) []paper.Entry {
	left := doc.Find("div.left.fl").First()
	category := strings.TrimSpace(left.ChildrenFiltered("h3.tit").First().Text())

	var entries []paper.Entry
	left.Find("div.list.clearfix").Each(func(_ int, item *goquery.Selection) {
		href, _ := item.Find("a").First().Attr("href")
		entries = append(entries, paper.Entry{
			Category: category,
			Title:    strings.TrimSpace(item.Find("h3.tit").First().Text()),
			PubTime:  paper.FindDate(item.Find("span.time").First().Text()),
			Href:     scraper.Resolve(base, href),
		})
	})
	return entries
}

// Detail returns the paragraphs of an article. Only direct <p> children
// holding a single string are used; when there are none every non-empty
// single-string <p> below the content block is used instead. The Japanese
// edition puts its subtitle first.
func (s *Site) Detail(ctx context.Context, url string) (*goquery.Selection, error) {
	doc, err := s.fetcher.Document(ctx, url)
	if err != nil {
		return nil, err
	}

	var content, subtitle *goquery.Selection
	if s.layout == japaneseLayout {
		content = doc.Find("div.j-d2txt").First()
		subtitle = doc.Find("h2.sub").First()
	} else {
		content = doc.Find("div.rm_txt_con").First()
	}

	ps := content.ChildrenFiltered("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
		_, ok := scraper.SingleString(p)
		return ok
	})
	if ps.Length() == 0 {
		ps = content.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
			text, ok := scraper.SingleString(p)
			return ok && strings.TrimSpace(text) != ""
		})
	}

	if subtitle != nil && subtitle.Length() > 0 {
		ps = subtitle.AddSelection(ps)
	}
	if ps.Length() == 0 {
		return nil, errs.NoContent(url)
	}
	return ps, nil
}

// ExtractParagraphs emits one plain paragraph per element from its first
// direct text node with the indent marker removed.
func (s *Site) ExtractParagraphs(body *goquery.Selection) []paper.Paragraph {
	var out []paper.Paragraph
	body.Each(func(_ int, p *goquery.Selection) {
		text, ok := scraper.OwnText(p)
		if !ok || text == "" {
			return
		}
		out = append(out, paper.PlainParagraph(strings.TrimSpace(strings.ReplaceAll(text, indentMarker, ""))))
	})
	return out
}
