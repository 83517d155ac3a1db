package library

import (
	"github.com/pevans/newsdocs/docx"
	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/paper"
)

const (
	categoryFont = "楷体"
	headingFont  = "黑体"
	bodyFont     = "宋体"

	titleSize = 16
	// Two characters of 11pt text.
	firstLineIndent = 22
)

// Render turns a record and its body paragraphs into an A4 document: a
// category, title and date block followed by justified body text. Blank
// paragraphs are dropped; a body with no text at all is a RenderFailure.
func Render(r paper.Record, paragraphs []paper.Paragraph) (*docx.Document, error) {
	doc := docx.New()

	doc.AddParagraph(docx.Paragraph{
		Align: docx.AlignLeft,
		Runs:  []docx.Run{{Text: r.Category, Font: categoryFont}},
	})
	doc.AddParagraph(docx.Paragraph{
		Align: docx.AlignCenter,
		Runs:  []docx.Run{{Text: r.Title, Font: headingFont, Size: titleSize}},
	})
	doc.AddParagraph(docx.Paragraph{
		Align: docx.AlignCenter,
		Runs:  []docx.Run{{Text: r.PublishTime, Font: headingFont}},
	})

	written := 0
	for _, p := range paragraphs {
		if p.Empty() {
			continue
		}

		runs := make([]docx.Run, 0, len(p.Runs))
		for _, run := range p.Runs {
			runs = append(runs, docx.Run{Text: run.Text, Bold: run.Bold, Font: bodyFont})
		}

		doc.AddParagraph(docx.Paragraph{
			Align:           docx.AlignJustify,
			FirstLineIndent: firstLineIndent,
			Runs:            runs,
		})
		written++
	}

	if written == 0 {
		return nil, errs.Render(r.Title, errs.NoContent("body"))
	}

	return doc, nil
}
