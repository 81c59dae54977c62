package parser

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/papergest/internal/blocks"
	pdflib "github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// LayoutConfig holds the grouping thresholds, expressed as multiples of the
// font size.
type LayoutConfig struct {
	RowTolerance   float64 // baseline distance still on the same row
	WordGap        float64 // horizontal gap that inserts a space
	ColumnGap      float64 // horizontal gap that splits a row into two lines
	MaxLineSpacing float64 // vertical gap that still joins a line to a block
}

// DefaultLayout suits single and two-column papers.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		RowTolerance:   0.5,
		WordGap:        0.25,
		ColumnGap:      2.5,
		MaxLineSpacing: 0.5,
	}
}

type glyph struct {
	text   string
	font   string
	size   float64
	x0, x1 float64
	base   float64 // baseline, top-left origin
	seq    int
}

type layoutLine struct {
	x0, y0, x1, y1 float64
	spans          []blocks.Span
	seq            int
}

func (l *layoutLine) size() float64 { return l.spans[0].Size }
func (l *layoutLine) bold() bool    { return l.spans[0].Flags&blocks.FlagBold != 0 }

func (l *layoutLine) text() string {
	var sb strings.Builder
	for _, s := range l.spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

type layoutBlock struct {
	x0, y0, x1, y1 float64
	lines          []*layoutLine
	seq            int
}

// fontTable assigns document-wide ids to font names.
type fontTable struct {
	ids map[string]int
}

func newFontTable() *fontTable {
	return &fontTable{ids: make(map[string]int)}
}

func (t *fontTable) id(name string) int {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := len(t.ids)
	t.ids[name] = id
	return id
}

// fontFlags derives span flags from a PostScript font name.
func fontFlags(name string) int {
	n := strings.ToLower(name)
	flags := 0
	switch {
	case strings.Contains(n, "bold"), strings.Contains(n, "black"), strings.Contains(n, "heavy"),
		strings.Contains(n, "medi"), strings.HasPrefix(n, "cmbx"):
		flags |= blocks.FlagBold
	}
	if strings.Contains(n, "italic") || strings.Contains(n, "oblique") || strings.HasPrefix(n, "cmti") {
		flags |= blocks.FlagItalic
	}
	switch {
	case strings.Contains(n, "mono"), strings.Contains(n, "courier"), strings.Contains(n, "consol"),
		strings.HasPrefix(n, "cmtt"):
		flags |= blocks.FlagMonospace
	}
	if (strings.Contains(n, "times") || strings.Contains(n, "serif") || strings.HasPrefix(n, "cmr")) &&
		!strings.Contains(n, "sans") {
		flags |= blocks.FlagSerif
	}
	return flags
}

func roundSize(s float64) float64 {
	return math.Round(s*100) / 100
}

// layoutPage groups the glyphs of one page into blocks. pageTop is the upper
// edge of the media box and flips PDF coordinates to a top-left origin.
func layoutPage(texts []pdflib.Text, pageTop float64, fonts *fontTable, cfg LayoutConfig) blocks.PageData {
	glyphs := toGlyphs(texts, pageTop)
	if len(glyphs) == 0 {
		return blocks.PageData{}
	}

	var lines []*layoutLine
	for _, row := range groupRows(glyphs, cfg) {
		for _, seg := range splitColumns(row, cfg) {
			lines = append(lines, buildLine(seg, fonts, cfg))
		}
	}

	blks := groupBlocks(lines, cfg)
	slices.SortStableFunc(blks, func(a, b *layoutBlock) int { return a.seq - b.seq })

	page := blocks.PageData{
		Coarse: make([]blocks.CoarseBlock, len(blks)),
		Fine:   make([]blocks.FineBlock, len(blks)),
	}
	for i, b := range blks {
		texts := make([]string, len(b.lines))
		fine := blocks.FineBlock{X0: b.x0, Y0: b.y0, X1: b.x1, Y1: b.y1}
		for j, l := range b.lines {
			texts[j] = l.text()
			fine.Lines = append(fine.Lines, blocks.Line{Spans: l.spans})
		}
		page.Coarse[i] = blocks.CoarseBlock{X0: b.x0, Y0: b.y0, X1: b.x1, Y1: b.y1, Text: strings.Join(texts, "\n")}
		page.Fine[i] = fine
	}
	return page
}

func toGlyphs(texts []pdflib.Text, pageTop float64) []glyph {
	out := make([]glyph, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		s := norm.NFKC.String(t.S)
		size := math.Abs(t.FontSize)
		if size == 0 {
			size = 1
		}
		w := t.W
		if w <= 0 {
			w = size * 0.5 * float64(utf8.RuneCountInString(s))
		}
		out = append(out, glyph{
			text: s,
			font: t.Font,
			size: roundSize(size),
			x0:   t.X,
			x1:   t.X + w,
			base: pageTop - t.Y,
			seq:  i,
		})
	}
	return out
}

// groupRows clusters glyphs by baseline, top to bottom, each row sorted
// left to right.
func groupRows(glyphs []glyph, cfg LayoutConfig) [][]glyph {
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b glyph) int {
		switch {
		case a.base < b.base:
			return -1
		case a.base > b.base:
			return 1
		}
		return 0
	})

	var rows [][]glyph
	var rowBase, rowSize float64
	for _, g := range sorted {
		n := len(rows)
		if n > 0 && math.Abs(g.base-rowBase) <= cfg.RowTolerance*math.Min(g.size, rowSize) {
			rows[n-1] = append(rows[n-1], g)
			continue
		}
		rows = append(rows, []glyph{g})
		rowBase, rowSize = g.base, g.size
	}
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b glyph) int {
			switch {
			case a.x0 < b.x0:
				return -1
			case a.x0 > b.x0:
				return 1
			}
			return 0
		})
	}
	return rows
}

// splitColumns breaks a row wherever the horizontal gap is wide enough to be
// a column gutter.
func splitColumns(row []glyph, cfg LayoutConfig) [][]glyph {
	var segs [][]glyph
	start := 0
	for i := 1; i < len(row); i++ {
		gap := row[i].x0 - row[i-1].x1
		if gap > cfg.ColumnGap*math.Max(row[i].size, row[i-1].size) {
			segs = append(segs, row[start:i])
			start = i
		}
	}
	return append(segs, row[start:])
}

func buildLine(seg []glyph, fonts *fontTable, cfg LayoutConfig) *layoutLine {
	l := &layoutLine{x0: seg[0].x0, x1: seg[0].x1, seq: seg[0].seq}
	top, bottom := seg[0].base-seg[0].size, seg[0].base+seg[0].size*0.2

	var cur *blocks.Span
	var sb strings.Builder
	flush := func() {
		if cur != nil {
			cur.Text = sb.String()
			l.spans = append(l.spans, *cur)
			sb.Reset()
		}
	}

	for i, g := range seg {
		if i > 0 {
			prev := seg[i-1]
			if g.x0-prev.x1 > cfg.WordGap*math.Min(g.size, prev.size) {
				sb.WriteByte(' ')
			}
		}
		if cur == nil || cur.Size != g.size || cur.Font != fonts.id(g.font) {
			flush()
			cur = &blocks.Span{Size: g.size, Flags: fontFlags(g.font), Font: fonts.id(g.font)}
		}
		sb.WriteString(g.text)

		l.x0 = math.Min(l.x0, g.x0)
		l.x1 = math.Max(l.x1, g.x1)
		top = math.Min(top, g.base-g.size)
		bottom = math.Max(bottom, g.base+g.size*0.2)
		if g.seq < l.seq {
			l.seq = g.seq
		}
	}
	flush()
	l.y0, l.y1 = top, bottom
	return l
}

// groupBlocks joins each line to the block directly above it when they
// overlap horizontally, sit close enough vertically and share a style.
func groupBlocks(lines []*layoutLine, cfg LayoutConfig) []*layoutBlock {
	slices.SortStableFunc(lines, func(a, b *layoutLine) int {
		switch {
		case a.y0 < b.y0:
			return -1
		case a.y0 > b.y0:
			return 1
		case a.x0 < b.x0:
			return -1
		case a.x0 > b.x0:
			return 1
		}
		return 0
	})

	var out []*layoutBlock
	for _, l := range lines {
		var best *layoutBlock
		bestGap := math.Inf(1)
		for _, b := range out {
			last := b.lines[len(b.lines)-1]
			if math.Min(last.x1, l.x1)-math.Max(last.x0, l.x0) <= 0 {
				continue
			}
			if math.Abs(last.size()-l.size()) >= 0.5 || last.bold() != l.bold() {
				continue
			}
			gap := l.y0 - last.y1
			if gap < -0.5*l.size() || gap > cfg.MaxLineSpacing*l.size() {
				continue
			}
			if math.Abs(gap) < bestGap {
				best, bestGap = b, math.Abs(gap)
			}
		}
		if best == nil {
			out = append(out, &layoutBlock{x0: l.x0, y0: l.y0, x1: l.x1, y1: l.y1, lines: []*layoutLine{l}, seq: l.seq})
			continue
		}
		best.lines = append(best.lines, l)
		best.x0 = math.Min(best.x0, l.x0)
		best.y0 = math.Min(best.y0, l.y0)
		best.x1 = math.Max(best.x1, l.x1)
		best.y1 = math.Max(best.y1, l.y1)
		if l.seq < best.seq {
			best.seq = l.seq
		}
	}
	return out
}
