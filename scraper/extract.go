package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pevans/newsdocs/paper"
)

// RightAligned reports whether an element is styled as right-aligned,
// which these sites use for signatures and dates under the body.
func RightAligned(s *goquery.Selection) bool {
	style, _ := s.Attr("style")
	return strings.Contains(strings.ReplaceAll(style, " ", ""), "text-align:right")
}

// RunParagraphs extracts one paragraph per element with one run per child
// node. <strong> and <b> children become bold runs; right-aligned elements
// are skipped.
func RunParagraphs(body *goquery.Selection) []paper.Paragraph {
	var out []paper.Paragraph
	body.Each(func(_ int, p *goquery.Selection) {
		if RightAligned(p) {
			return
		}

		var para paper.Paragraph
		p.Contents().Each(func(_ int, c *goquery.Selection) {
			node := c.Get(0)
			if node.Type == html.CommentNode {
				return
			}
			bold := node.Type == html.ElementNode && (node.Data == "strong" || node.Data == "b")
			para.Runs = append(para.Runs, paper.Run{
				Text: strings.TrimSpace(c.Text()),
				Bold: bold,
			})
		})
		out = append(out, para)
	})
	return out
}

// OwnText returns the first text node directly under the element, or ""
// and false if it has none.
func OwnText(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	for c := s.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			return c.Data, true
		}
	}
	return "", false
}

// SingleString returns the text of an element whose only content is one
// string, possibly wrapped in single-child tags.
func SingleString(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	n := s.Get(0)
	for {
		c := n.FirstChild
		if c == nil || c.NextSibling != nil {
			return "", false
		}
		if c.Type == html.TextNode {
			return c.Data, true
		}
		n = c
	}
}

// Clean collapses whitespace.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
