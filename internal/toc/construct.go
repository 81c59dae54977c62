package toc

import (
	"strings"

	"github.com/dgallion1/papergest/internal/blocks"
	"github.com/dgallion1/papergest/internal/doctree"
)

// UntitledDocument is used when no block can supply a title.
const UntitledDocument = "Untitled"

// Result is a constructed document plus how its outline was obtained.
type Result struct {
	Document *doctree.Document
	Strategy Strategy
	Outline  []doctree.OutlineEntry // augmented, before truncation
}

// Construct runs outline inference and segmentation over loaded pages.
func Construct(pages []doctree.Page, bookmarks []blocks.Bookmark, metaTitle string) Result {
	title := ResolveTitle(pages, metaTitle)

	outline, strategy := BuildOutline(pages, bookmarks)
	outline = Augment(pages, outline)

	bounded := Truncate(outline, len(pages))
	if len(bounded) < 2 {
		// Nothing opens a section before the boundary: one section covers
		// the whole document.
		whole := doctree.OutlineEntry{Level: 1, Title: title, Page: 0, Block: 0}
		bounded = append([]doctree.OutlineEntry{whole}, bounded...)
	}

	return Result{
		Document: &doctree.Document{
			Title:    title,
			Contents: Segment(pages, bounded),
		},
		Strategy: strategy,
		Outline:  outline,
	}
}

// ResolveTitle picks the document title: metadata first, then the
// largest-font block in the first half of page 0, then the first non-empty
// block on page 0.
func ResolveTitle(pages []doctree.Page, metaTitle string) string {
	if t := cleanTitle(metaTitle); t != "" {
		return t
	}
	if len(pages) == 0 {
		return UntitledDocument
	}
	first := pages[0]

	half := first[:len(first)/2]
	best := -1
	for i, b := range half {
		if b.Size == nil {
			continue
		}
		if best < 0 || *b.Size > *half[best].Size {
			best = i
		}
	}
	if best >= 0 {
		if t := cleanTitle(half[best].Text); t != "" {
			return t
		}
	}

	for _, b := range first {
		if t := cleanTitle(b.Text); t != "" {
			return t
		}
	}
	return UntitledDocument
}

func cleanTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
