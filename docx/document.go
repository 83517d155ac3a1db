// Package docx builds, reads and concatenates WordprocessingML documents.
// Bodies are kept as raw top-level XML fragments so that appending one
// document to another preserves its formatting untouched. Packages are
// written without relationships, so documents carrying images or links
// (anything referenced by r:id) cannot be merged faithfully.
package docx

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

const (
	wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relNS  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// A4 page size in twentieths of a point.
const (
	a4Width  = 11906
	a4Height = 16838
)

// Alignment is a paragraph justification value.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "both"
)

// Run is a span of text sharing one set of character properties. Size is
// in points; zero keeps the default size.
type Run struct {
	Text string
	Bold bool
	Font string
	Size float64
}

// Paragraph is a block of runs. FirstLineIndent is in points.
type Paragraph struct {
	Align           Alignment
	FirstLineIndent float64
	Runs            []Run
}

// Document is an in-memory document body.
type Document struct {
	body [][]byte
	ns   map[string]string
}

// New returns an empty A4 document.
func New() *Document {
	return &Document{
		ns: map[string]string{"w": wordNS, "r": relNS},
	}
}

// Len returns the number of top-level body elements.
func (d *Document) Len() int {
	return len(d.body)
}

// AddParagraph appends a paragraph to the body.
func (d *Document) AddParagraph(p Paragraph) {
	d.body = append(d.body, p.xml())
}

// AddEmptyParagraph appends a paragraph with no content, used as a plain
// separator between merged documents.
func (d *Document) AddEmptyParagraph() {
	d.body = append(d.body, []byte("<w:p/>"))
}

// AddPageBreak appends a paragraph holding a single page break.
func (d *Document) AddPageBreak() {
	d.body = append(d.body, []byte(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`))
}

// Append copies every body element of other onto the end of d.
func (d *Document) Append(other *Document) {
	for _, frag := range other.body {
		d.body = append(d.body, bytes.Clone(frag))
	}
	for prefix, uri := range other.ns {
		if _, ok := d.ns[prefix]; !ok {
			d.ns[prefix] = uri
		}
	}
}

func (p Paragraph) xml() []byte {
	var b bytes.Buffer
	b.WriteString("<w:p>")

	if p.Align != "" || p.FirstLineIndent > 0 {
		b.WriteString("<w:pPr>")
		if p.FirstLineIndent > 0 {
			fmt.Fprintf(&b, `<w:ind w:firstLine="%d"/>`, twips(p.FirstLineIndent))
		}
		if p.Align != "" {
			fmt.Fprintf(&b, `<w:jc w:val="%s"/>`, p.Align)
		}
		b.WriteString("</w:pPr>")
	}

	for _, r := range p.Runs {
		r.writeXML(&b)
	}

	b.WriteString("</w:p>")
	return b.Bytes()
}

func (r Run) writeXML(b *bytes.Buffer) {
	b.WriteString("<w:r>")
	if r.Font != "" || r.Bold || r.Size > 0 {
		b.WriteString("<w:rPr>")
		if r.Font != "" {
			font := escape(r.Font)
			fmt.Fprintf(b, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s"/>`, font, font, font)
		}
		if r.Bold {
			b.WriteString("<w:b/>")
		}
		if r.Size > 0 {
			half := strconv.Itoa(int(r.Size * 2))
			b.WriteString(`<w:sz w:val="` + half + `"/><w:szCs w:val="` + half + `"/>`)
		}
		b.WriteString("</w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	b.WriteString(escape(r.Text))
	b.WriteString("</w:t></w:r>")
}

func twips(points float64) int {
	return int(points * 20)
}

// namespaces returns the xmlns declarations in a stable order.
func (d *Document) namespaces() string {
	var b bytes.Buffer
	for _, prefix := range slices.Sorted(maps.Keys(d.ns)) {
		fmt.Fprintf(&b, ` xmlns:%s="%s"`, prefix, escape(d.ns[prefix]))
	}
	return b.String()
}
