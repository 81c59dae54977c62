package parser

import (
	"strings"

	"github.com/dgallion1/papergest/internal/blocks"
)

// Synthetic layout for inputs that carry structure but no geometry.
const (
	flowLeft     = 72.0
	flowWidth    = 468.0
	flowBodySize = 10.0
	flowLeading  = 1.2
)

var flowHeadingSizes = [...]float64{20, 16, 14, 12, 11, 10.5}

func flowHeadingSize(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > len(flowHeadingSizes) {
		level = len(flowHeadingSizes)
	}
	return flowHeadingSizes[level-1]
}

// flowBuilder lays structured content out as pages of blocks. Each heading
// opens a new page and is recorded as a bookmark, so the bookmark strategy
// resolves it directly.
type flowBuilder struct {
	doc  blocks.Document
	page blocks.PageData
	y    float64
}

func newFlowBuilder(title string) *flowBuilder {
	return &flowBuilder{doc: blocks.Document{Title: title}, y: flowLeft}
}

func (b *flowBuilder) heading(level int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(b.page.Coarse) > 0 {
		b.breakPage()
	}
	b.doc.Bookmarks = append(b.doc.Bookmarks, blocks.Bookmark{
		Level: level,
		Title: text,
		Page:  len(b.doc.Pages) + 1,
	})
	b.add(text, flowHeadingSize(level), blocks.FlagBold)
}

func (b *flowBuilder) paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.add(text, flowBodySize, 0)
}

func (b *flowBuilder) add(text string, size float64, flags int) {
	lines := strings.Split(text, "\n")
	height := float64(len(lines)) * size * flowLeading
	x0, y0, x1, y1 := flowLeft, b.y, flowLeft+flowWidth, b.y+height

	fine := blocks.FineBlock{X0: x0, Y0: y0, X1: x1, Y1: y1}
	for _, l := range lines {
		fine.Lines = append(fine.Lines, blocks.Line{
			Spans: []blocks.Span{{Text: l, Size: size, Flags: flags}},
		})
	}
	b.page.Coarse = append(b.page.Coarse, blocks.CoarseBlock{X0: x0, Y0: y0, X1: x1, Y1: y1, Text: text})
	b.page.Fine = append(b.page.Fine, fine)
	b.y = y1 + size*0.5
}

func (b *flowBuilder) breakPage() {
	b.doc.AddPage(b.page)
	b.page = blocks.PageData{}
	b.y = flowLeft
}

func (b *flowBuilder) finish() *blocks.Document {
	if len(b.page.Coarse) > 0 || len(b.doc.Pages) == 0 {
		b.breakPage()
	}
	doc := b.doc
	return &doc
}
