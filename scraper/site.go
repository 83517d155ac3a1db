// Package scraper defines the capabilities a site variant implements and
// the shared HTTP fetching, pagination and extraction helpers they use.
package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/newsdocs/paper"
)

// ListFetcher produces the raw list entries of a site. Pagination is
// handled inside the implementation.
type ListFetcher interface {
	List(ctx context.Context) ([]paper.Entry, error)
}

// DetailFetcher fetches the ordered body nodes of one article.
type DetailFetcher interface {
	Detail(ctx context.Context, url string) (*goquery.Selection, error)
}

// ParagraphExtractor maps body nodes to paragraphs, dropping decorative
// lines.
type ParagraphExtractor interface {
	ExtractParagraphs(body *goquery.Selection) []paper.Paragraph
}

// AttachmentFetcher is implemented by sites whose entries can link an
// attachment page.
type AttachmentFetcher interface {
	HasAttachment(category string) bool
	Attachment(ctx context.Context, url string) (title string, body *goquery.Selection, err error)
}

// Site is everything the per-site driver needs.
type Site interface {
	Name() string
	NameCN() string
	ListFetcher
	DetailFetcher
	ParagraphExtractor
}

// Info is the configuration shared by every site variant.
type Info struct {
	Name     string
	NameCN   string
	URLs     []string
	Year     int // zero scrapes the latest list pages only
	MaxPages int
}

// Pagination returns the year pagination policy for the site.
func (i Info) Pagination() Pagination {
	return Pagination{Year: i.Year, MaxPages: i.MaxPages}
}
