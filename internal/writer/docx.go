package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCX writes a Word document with one Heading-styled paragraph per section.
type DOCX struct {
	Field MarkdownField
}

func (DOCX) Extension() string { return "docx" }

func (d DOCX) Write(w io.Writer, doc *doctree.Document) error {
	f := docx.New().WithDefaultTheme()
	f.AddParagraph().Style("Title").AddText(doc.Title).Size("40").Bold()

	md := Markdown{Field: d.Field}
	for _, s := range doc.Contents {
		level := min(max(s.Level, 1), 9)
		f.AddParagraph().Style(fmt.Sprintf("Heading%d", level)).AddText(s.Title).Bold()
		for _, p := range md.paragraphs(s) {
			f.AddParagraph().AddText(strings.TrimSpace(p))
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
