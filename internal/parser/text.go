package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/papergest/internal/blocks"
)

// TextParser handles plain text files. Form feeds separate pages and blank
// lines separate blocks. Plain text has no font data, so every block loads
// without size information.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*blocks.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &blocks.Document{}
	var page blocks.PageData
	var current strings.Builder
	y := 0.0

	flushBlock := func() {
		if current.Len() == 0 {
			return
		}
		text := current.String()
		h := float64(strings.Count(text, "\n")+1) * 12
		page.Coarse = append(page.Coarse, blocks.CoarseBlock{X0: 0, Y0: y, X1: 612, Y1: y + h, Text: text})
		y += h + 6
		current.Reset()
	}
	flushPage := func() {
		flushBlock()
		doc.AddPage(page)
		page = blocks.PageData{}
		y = 0
	}

	for scanner.Scan() {
		line := scanner.Text()
		for {
			before, after, found := strings.Cut(line, "\f")
			p.addLine(&current, before, flushBlock)
			if !found {
				break
			}
			flushPage()
			line = after
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flushPage()

	return doc, nil
}

func (p *TextParser) addLine(current *strings.Builder, line string, flushBlock func()) {
	if strings.TrimSpace(line) == "" {
		flushBlock()
		return
	}
	if current.Len() > 0 {
		current.WriteString("\n")
	}
	current.WriteString(line)
}
