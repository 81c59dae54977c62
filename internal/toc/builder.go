package toc

import (
	"slices"
	"strings"

	"github.com/dgallion1/papergest/internal/blocks"
	"github.com/dgallion1/papergest/internal/doctree"
)

// Strategy names the way an outline was obtained.
type Strategy string

const (
	StrategyBookmark Strategy = "bookmark"
	StrategyPattern  Strategy = "pattern"
	StrategyNone     Strategy = "none"
)

type outlineStrategy struct {
	name  Strategy
	build func(pages []doctree.Page, bookmarks []blocks.Bookmark) []doctree.OutlineEntry
}

var outlineStrategies = []outlineStrategy{
	{StrategyBookmark, fromBookmarks},
	{StrategyPattern, fromPattern},
}

// BuildOutline returns the outline from the first strategy that yields any
// entries. The pattern strategy only runs when no bookmark resolved.
func BuildOutline(pages []doctree.Page, bookmarks []blocks.Bookmark) ([]doctree.OutlineEntry, Strategy) {
	for _, s := range outlineStrategies {
		if entries := s.build(pages, bookmarks); len(entries) > 0 {
			return entries, s.name
		}
	}
	return nil, StrategyNone
}

// fromBookmarks resolves each bookmark to a heading block on its page.
// Bookmarks that point outside the document or whose heading cannot be
// located are dropped.
func fromBookmarks(pages []doctree.Page, bookmarks []blocks.Bookmark) []doctree.OutlineEntry {
	var entries []doctree.OutlineEntry
	for _, bm := range bookmarks {
		p := bm.Page - 1
		if p < 0 || p >= len(pages) {
			continue
		}
		idx, b, ok := Locate(pages[p], bm.Title)
		if !ok {
			continue
		}
		level := bm.Level
		if level < 1 {
			level = 1
		}
		entries = append(entries, doctree.OutlineEntry{
			Level:         level,
			Title:         bm.Title,
			Page:          p,
			Block:         idx,
			Size:          b.Size,
			TitleLineText: b.LineText,
			NamedDest:     bm.NamedDest,
		})
	}
	slices.SortStableFunc(entries, comparePosition)
	return entries
}

// fromPattern treats every multi-word block that starts with a dotted
// number as a heading whose level is the number of groups.
func fromPattern(pages []doctree.Page, _ []blocks.Bookmark) []doctree.OutlineEntry {
	var entries []doctree.OutlineEntry
	for p, page := range pages {
		for i, b := range page {
			if len(strings.Split(b.Text, " ")) <= 1 {
				continue
			}
			level := HeadingLevel(b.Text)
			if level == 0 {
				continue
			}
			entries = append(entries, doctree.OutlineEntry{
				Level:         level,
				Title:         b.Text,
				Page:          p,
				Block:         i,
				Size:          b.Size,
				TitleLineText: b.LineText,
			})
		}
	}
	return entries
}

func comparePosition(a, b doctree.OutlineEntry) int {
	if a.Page != b.Page {
		return a.Page - b.Page
	}
	return a.Block - b.Block
}

// before reports whether e sits strictly before (page, block).
func before(e doctree.OutlineEntry, page, block int) bool {
	return e.Page < page || (e.Page == page && e.Block < block)
}
