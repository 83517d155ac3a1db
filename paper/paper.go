package paper

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// AttachmentMarker is appended to the category of attachment documents and
// to their file names.
const AttachmentMarker = "相关文件"

var (
	ErrEmptyCategory = errors.New("category is empty")
	ErrEmptyTitle    = errors.New("title is empty")
)

// Entry is a raw list entry as a site variant scraped it, before
// normalization.
type Entry struct {
	Category       string
	Title          string
	PubTime        string
	Href           string
	AttachmentHref string
}

// Record is one normalized article.
type Record struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	PublishTime   string `json:"publish_time"`
	SourceURL     string `json:"source_url"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// HasAttachment reports whether the record links to an attachment page.
func (r Record) HasAttachment() bool {
	return r.AttachmentURL != ""
}

// Date returns the normalized YYYY-MM-DD publish date, or "" if none.
func (r Record) Date() string {
	return NormalizeDate(r.PublishTime)
}

// Run is one span of paragraph text.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is a body paragraph made of runs.
type Paragraph struct {
	Runs []Run
}

// Text returns the concatenated text of all runs.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Empty reports whether the paragraph has no visible text.
func (p Paragraph) Empty() bool {
	return strings.TrimSpace(p.Text()) == ""
}

// PlainParagraph builds a single-run, non-bold paragraph.
func PlainParagraph(text string) Paragraph {
	return Paragraph{Runs: []Run{{Text: text}}}
}

// Normalize maps a raw entry onto a Record. Category and title have their
// whitespace collapsed and must be non-empty afterwards.
func Normalize(e Entry) (Record, error) {
	r := Record{
		Category:      collapse(e.Category),
		Title:         collapse(e.Title),
		PublishTime:   strings.TrimSpace(e.PubTime),
		SourceURL:     strings.TrimSpace(e.Href),
		AttachmentURL: strings.TrimSpace(e.AttachmentHref),
	}

	if r.Category == "" {
		return Record{}, fmt.Errorf("failed to normalize %q: %w", e.Title, ErrEmptyCategory)
	}
	if r.Title == "" {
		return Record{}, fmt.Errorf("failed to normalize entry in %q: %w", r.Category, ErrEmptyTitle)
	}

	return r, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	isoDate = regexp.MustCompile(`^\s*(\d{4})-(\d{2})-(\d{2})`)
	cnDate  = regexp.MustCompile(`^\s*(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	slashed = regexp.MustCompile(`^\s*(\d{4})/(\d{1,2})/(\d{1,2})`)
	anyDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// NormalizeDate returns the leading date of s as YYYY-MM-DD. It accepts
// "2024-01-02 10:00", "2024年1月2日" and "2024/1/2". Anything else yields
// "".
func NormalizeDate(s string) string {
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	for _, re := range []*regexp.Regexp{cnDate, slashed} {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1] + "-" + pad(m[2]) + "-" + pad(m[3])
		}
	}
	return ""
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// FindDate returns the first YYYY-MM-DD found anywhere in s.
func FindDate(s string) string {
	return anyDate.FindString(s)
}

// Year returns the four digit year of a publish time, or "".
func Year(pubTime string) string {
	d := NormalizeDate(pubTime)
	if d == "" {
		return ""
	}
	return d[:4]
}

// IsNoise reports whether a record is one of the infographic items that
// only repeat an interpretation already scraped as text.
func IsNoise(r Record) bool {
	return r.Category == "政策解读库" && strings.HasPrefix(r.Title, "图解")
}

// Digest renders the line-per-article summary sent in notifications.
func Digest(records []Record) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.Category+"-"+r.Title)
	}
	return strings.Join(lines, "\n")
}
