package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/papergest/internal/blocks"
	pdflib "github.com/ledongthuc/pdf"
)

// defaultPageTop is the upper edge of a US Letter page, used when a page
// has no usable media box.
const defaultPageTop = 792.0

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
	Layout            *LayoutConfig
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*blocks.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "papergest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cfg := DefaultLayout()
	if p.Layout != nil {
		cfg = *p.Layout
	}

	doc, err := readPDF(tmpPath, cfg)
	if (err != nil || !hasText(doc)) && p.FallbackPdftotext {
		fb, fbErr := extractPdftotext(tmpPath)
		switch {
		case fbErr == nil:
			if doc != nil {
				// Keep what the Go reader resolved; pdftotext has no outline.
				fb.Bookmarks = doc.Bookmarks
				if fb.Title == "" {
					fb.Title = doc.Title
				}
			}
			return fb, nil
		case err != nil:
			err = fmt.Errorf("%w (fallback: %v)", err, fbErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}
	return doc, nil
}

func readPDF(path string, cfg LayoutConfig) (doc *blocks.Document, err error) {
	// The reader panics on some malformed files and content streams.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("pdf reader: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc = &blocks.Document{
		Title: strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text()),
	}
	fonts := newFontTable()
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.AddPage(blocks.PageData{})
			continue
		}
		content := page.Content()
		doc.AddPage(layoutPage(content.Text, pageTop(page), fonts, cfg))
	}
	doc.Bookmarks = readBookmarks(reader)
	return doc, nil
}

func pageTop(page pdflib.Page) float64 {
	box := page.MediaBox()
	if box.Len() == 4 {
		if top := box.Index(3).Float64(); top > 0 {
			return top
		}
	}
	return defaultPageTop
}

func hasText(doc *blocks.Document) bool {
	if doc == nil {
		return false
	}
	for _, p := range doc.Pages {
		if len(p.Coarse) > 0 {
			return true
		}
	}
	return false
}

func extractPdftotext(path string) (*blocks.Document, error) {
	cmd := exec.Command("pdftotext", "-bbox-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return parseBBoxLayout(bytes.NewReader(out))
}
