package toc

import (
	"regexp"
	"strings"

	"github.com/dgallion1/papergest/internal/doctree"
)

const (
	abstractKeyword = "Abstract"
	terminalKeyword = "References"
)

var (
	abstractRe = regexp.MustCompile(`(?i)` + abstractKeyword)
	terminalRe = regexp.MustCompile(`(?i)` + terminalKeyword)
)

// Augment injects the leading Abstract entry and the terminal References
// entry. The input slice is not modified.
func Augment(pages []doctree.Page, entries []doctree.OutlineEntry) []doctree.OutlineEntry {
	entries = InjectAbstract(pages, entries)
	return InjectTerminal(pages, entries)
}

// InjectAbstract prepends a level-1 entry for the Abstract block of page 0
// unless an entry with the same title already exists.
func InjectAbstract(pages []doctree.Page, entries []doctree.OutlineEntry) []doctree.OutlineEntry {
	if len(pages) == 0 {
		return entries
	}
	idx, b, ok := Locate(pages[0], abstractKeyword)
	if !ok {
		return entries
	}
	title := trimToKeyword(abstractRe, b.Text)
	for _, e := range entries {
		if e.Title == title {
			return entries
		}
	}

	out := make([]doctree.OutlineEntry, 0, len(entries)+1)
	out = append(out, doctree.OutlineEntry{
		Level:         1,
		Title:         title,
		Page:          0,
		Block:         idx,
		Size:          b.Size,
		TitleLineText: b.LineText,
	})
	return append(out, entries...)
}

// InjectTerminal marks or creates the entry that closes the main content.
// An existing "References" entry (any case) is marked in place. Otherwise
// the first page whose References block has the font size of an existing
// entry gets a new terminal entry at its ordered position.
func InjectTerminal(pages []doctree.Page, entries []doctree.OutlineEntry) []doctree.OutlineEntry {
	for i, e := range entries {
		if strings.EqualFold(e.Title, terminalKeyword) {
			out := cloneEntries(entries)
			out[i].Terminal = true
			return out
		}
	}

	for p, page := range pages {
		idx, b, ok := Locate(page, terminalKeyword)
		if !ok || !hasSize(entries, b.Size) {
			continue
		}
		pos := 0
		for _, e := range entries {
			if before(e, p, idx) {
				pos++
			}
		}
		out := make([]doctree.OutlineEntry, 0, len(entries)+1)
		out = append(out, entries[:pos]...)
		out = append(out, doctree.OutlineEntry{
			Level:         1,
			Title:         trimToKeyword(terminalRe, b.Text),
			Page:          p,
			Block:         idx,
			Size:          b.Size,
			TitleLineText: b.LineText,
			Terminal:      true,
		})
		return append(out, entries[pos:]...)
	}
	return entries
}

func hasSize(entries []doctree.OutlineEntry, size *float64) bool {
	for _, e := range entries {
		if doctree.SameSize(e.Size, size) {
			return true
		}
	}
	return false
}

// trimToKeyword returns the first case-insensitive match of re in text,
// or text itself when there is none.
func trimToKeyword(re *regexp.Regexp, text string) string {
	if m := re.FindString(text); m != "" {
		return m
	}
	return text
}

func cloneEntries(entries []doctree.OutlineEntry) []doctree.OutlineEntry {
	out := make([]doctree.OutlineEntry, len(entries))
	copy(out, entries)
	return out
}
