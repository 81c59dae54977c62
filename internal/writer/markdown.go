package writer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/papergest/internal/doctree"
)

// MarkdownField selects which section text a Markdown writer emits.
type MarkdownField string

const (
	FieldTexts       MarkdownField = "texts"
	FieldSummary     MarkdownField = "summary"
	FieldTranslation MarkdownField = "translation"
)

// Markdown writes "# Title" followed by one heading per section. The zero
// value emits the section texts.
type Markdown struct {
	Field MarkdownField
}

func (Markdown) Extension() string { return "md" }

func (m Markdown) Write(w io.Writer, doc *doctree.Document) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n\n", escapeMarkdown(doc.Title))
	for _, s := range doc.Contents {
		level := max(s.Level, 1)
		fmt.Fprintf(bw, "%s %s\n\n", strings.Repeat("#", level), escapeMarkdown(s.Title))
		for _, p := range m.paragraphs(s) {
			fmt.Fprintf(bw, "%s\n\n", escapeMarkdown(p))
		}
	}
	return bw.Flush()
}

func (m Markdown) paragraphs(s doctree.Section) []string {
	var text string
	switch m.Field {
	case FieldSummary:
		text = s.Summary
	case FieldTranslation:
		text = s.Translation
	default:
		return s.Texts
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []string{text}
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "#", `\#`)
}
