package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoDocumentPart is returned when a package has no word/document.xml.
var ErrNoDocumentPart = errors.New("missing word/document.xml")

const documentPart = "word/document.xml"

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

// WriteTo writes the document as a .docx package.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypes)},
		{"_rels/.rels", []byte(packageRels)},
		{"word/_rels/document.xml.rels", []byte(documentRels)},
		{documentPart, d.documentXML()},
	}

	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return cw.n, fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return cw.n, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("failed to finish package: %w", err)
	}
	return cw.n, nil
}

// Save writes the document to path, replacing any existing file.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	if _, err := d.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Document) documentXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString("<w:document")
	b.WriteString(d.namespaces())
	b.WriteString("><w:body>")
	for _, frag := range d.body {
		b.Write(frag)
	}
	fmt.Fprintf(&b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/>`, a4Width, a4Height)
	b.WriteString(`<w:pgMar w:top="1440" w:right="1800" w:bottom="1440" w:left="1800" w:header="851" w:footer="992" w:gutter="0"/>`)
	b.WriteString("</w:sectPr></w:body></w:document>")
	return b.Bytes()
}

// Open reads a .docx file from disk.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Parse(bytes.NewReader(data), int64(len(data)))
}

// Parse reads a .docx package. Every top-level body element except the
// section properties is kept verbatim.
func Parse(r io.ReaderAt, size int64) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open package: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", documentPart, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", documentPart, err)
		}

		return parseDocumentXML(data)
	}

	return nil, ErrNoDocumentPart
}

func parseDocumentXML(data []byte) (*Document, error) {
	doc := New()
	dec := xml.NewDecoder(bytes.NewReader(data))

	depth := 0
	inBody := false
	skip := false
	var start int64

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1:
				for _, attr := range t.Attr {
					if attr.Name.Space == "xmlns" {
						doc.ns[attr.Name.Local] = attr.Value
					}
				}
			case depth == 2 && t.Name.Local == "body":
				inBody = true
			case depth == 3 && inBody:
				start = offset
				skip = t.Name.Local == "sectPr"
			}
		case xml.EndElement:
			switch {
			case depth == 3 && inBody && !skip:
				doc.body = append(doc.body, bytes.Clone(data[start:dec.InputOffset()]))
			case depth == 2 && inBody:
				inBody = false
			}
			depth--
		}
	}

	return doc, nil
}

// Paragraphs returns the text of every paragraph in body order, including
// paragraphs nested in tables.
func (d *Document) Paragraphs() []string {
	var out []string
	_ = d.walk(func(tok xml.Token, text *strings.Builder) {
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				text.Reset()
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				out = append(out, text.String())
			}
		}
	})
	return out
}

// Text returns the whole body text with paragraphs separated by newlines.
func (d *Document) Text() string {
	return strings.Join(d.Paragraphs(), "\n")
}

// PageBreaks counts explicit page breaks in the body.
func (d *Document) PageBreaks() int {
	n := 0
	_ = d.walk(func(tok xml.Token, _ *strings.Builder) {
		t, ok := tok.(xml.StartElement)
		if !ok || t.Name.Local != "br" {
			return
		}
		for _, attr := range t.Attr {
			if attr.Name.Local == "type" && attr.Value == "page" {
				n++
			}
		}
	})
	return n
}

// walk decodes the body fragments inside a synthetic root that declares
// the document namespaces. Character data is only reported inside w:t.
func (d *Document) walk(visit func(xml.Token, *strings.Builder)) error {
	var b bytes.Buffer
	b.WriteString("<root" + d.namespaces() + ">")
	for _, frag := range d.body {
		b.Write(frag)
	}
	b.WriteString("</root>")

	dec := xml.NewDecoder(&b)
	var text strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if !inText {
				continue
			}
		}
		visit(tok, &text)
	}
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
