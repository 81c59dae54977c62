package writer

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/yuin/goldmark"
)

// HTML renders the Markdown form of the document with goldmark.
type HTML struct {
	Field MarkdownField
}

func (HTML) Extension() string { return "html" }

func (h HTML) Write(w io.Writer, doc *doctree.Document) error {
	var md bytes.Buffer
	if err := (Markdown{Field: h.Field}).Write(&md, doc); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(doc.Title)); err != nil {
		return err
	}
	if err := goldmark.Convert(md.Bytes(), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
