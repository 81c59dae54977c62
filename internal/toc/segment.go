package toc

import "github.com/dgallion1/papergest/internal/doctree"

// Truncate keeps entries up to and including the first terminal one. When
// there is none, a sentinel pointing past the end of the last page is
// appended so the final section runs to the end of the document. The
// returned slice always ends with the boundary entry.
func Truncate(entries []doctree.OutlineEntry, pageCount int) []doctree.OutlineEntry {
	out := make([]doctree.OutlineEntry, 0, len(entries)+1)
	for _, e := range entries {
		out = append(out, e)
		if e.Terminal {
			return out
		}
	}
	last := pageCount - 1
	if last < 0 {
		last = 0
	}
	return append(out, doctree.OutlineEntry{Page: last, Block: doctree.NoBlock})
}

// Segment assigns filtered text to each entry of a truncated outline. The
// last entry only bounds its predecessor and is not returned.
func Segment(pages []doctree.Page, bounded []doctree.OutlineEntry) []doctree.Section {
	if len(bounded) < 2 {
		return nil
	}
	sections := make([]doctree.Section, 0, len(bounded)-1)
	for i, e := range bounded[:len(bounded)-1] {
		next := bounded[i+1]
		sections = append(sections, doctree.Section{
			OutlineEntry: e,
			Texts:        FilterTexts(spanTexts(pages, e, next)),
		})
	}
	return sections
}

// spanTexts collects block text from (start.Page, start.Block) inclusive to
// (end.Page, end.Block) exclusive. An end without a block includes its
// whole page.
func spanTexts(pages []doctree.Page, start, end doctree.OutlineEntry) []string {
	texts := []string{}
	for p := start.Page; p <= end.Page && p < len(pages); p++ {
		if p < 0 {
			continue
		}
		page := pages[p]
		if p == end.Page && end.HasBlock() {
			page = page[:clamp(end.Block, len(page))]
		}
		if p == start.Page && start.HasBlock() {
			page = page[clamp(start.Block, len(page)):]
		}
		for _, b := range page {
			texts = append(texts, b.Text)
		}
	}
	return texts
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
