package parser

import (
	"bytes"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDOCXParser_HeadingStyles(t *testing.T) {
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().Style("Title").AddText("A Study of Things")
	d.AddParagraph().Style("Heading1").AddText("1 Introduction")
	d.AddParagraph().AddText("Body paragraph with several words in it.")
	d.AddParagraph().Style("Heading2").AddText("1.1 Scope")
	d.AddParagraph().AddText("More words about the scope of this work.")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	p := &DOCXParser{}
	doc, err := p.Parse(&buf, "study.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "A Study of Things" {
		t.Errorf("expected title from Title style, got %q", doc.Title)
	}
	if len(doc.Bookmarks) != 2 {
		t.Fatalf("expected 2 bookmarks, got %d", len(doc.Bookmarks))
	}
	if doc.Bookmarks[1].Level != 2 || doc.Bookmarks[1].Page != 2 {
		t.Errorf("unexpected second bookmark %+v", doc.Bookmarks[1])
	}
	if got := doc.Pages[0].Coarse[1].Text; got != "Body paragraph with several words in it." {
		t.Errorf("unexpected body block %q", got)
	}
}

func TestDOCXHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"Heading7":  0,
		"Normal":    0,
		"Heading":   0,
	}
	for style, want := range tests {
		para := &docx.Paragraph{}
		para.Style(style)
		if got := docxHeadingLevel(para); got != want {
			t.Errorf("style %q: expected %d, got %d", style, want, got)
		}
	}
}
