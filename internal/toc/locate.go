// Package toc infers a document outline from positioned text blocks and
// segments the block stream into per-section prose.
package toc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/papergest/internal/doctree"
)

var (
	headNumberRe       = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*`)
	headNumberPrefixRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*\s+`)
)

// matchStage returns the indexes of candidate blocks for keyword.
type matchStage func(page doctree.Page, keyword string) []int

// locateStages run in order; the first stage with candidates wins.
var locateStages = []matchStage{
	matchExact,
	matchFolded,
	matchHeadNumber,
}

// Locate finds the block on page that best matches keyword. Within the
// winning stage the block with the shortest text is chosen, first one on
// ties.
func Locate(page doctree.Page, keyword string) (int, doctree.TextBlock, bool) {
	for _, stage := range locateStages {
		cands := stage(page, keyword)
		if len(cands) == 0 {
			continue
		}
		best := cands[0]
		bestLen := utf8.RuneCountInString(page[best].Text)
		for _, i := range cands[1:] {
			if n := utf8.RuneCountInString(page[i].Text); n < bestLen {
				best, bestLen = i, n
			}
		}
		return best, page[best], true
	}
	return -1, doctree.TextBlock{}, false
}

func matchExact(page doctree.Page, keyword string) []int {
	return collect(page, func(text string) bool {
		return strings.Contains(text, keyword)
	})
}

// matchFolded compares case-insensitively after dropping a leading
// "3.2.1 " style number from the keyword.
func matchFolded(page doctree.Page, keyword string) []int {
	alt := headNumberPrefixRe.ReplaceAllString(strings.ToLower(keyword), "")
	return collect(page, func(text string) bool {
		return strings.Contains(strings.ToLower(text), alt)
	})
}

func matchHeadNumber(page doctree.Page, keyword string) []int {
	num := HeadNumber(keyword)
	if num == "" {
		return nil
	}
	return collect(page, func(text string) bool {
		return strings.Contains(text, num)
	})
}

func collect(page doctree.Page, match func(string) bool) []int {
	var out []int
	for i, b := range page {
		if match(b.Text) {
			out = append(out, i)
		}
	}
	return out
}

// HeadNumber returns the leading dotted heading number of s ("2.3.1"), or
// "" when s does not start with one.
func HeadNumber(s string) string {
	return headNumberRe.FindString(s)
}

// HeadingLevel is the number of dot-separated groups in s's heading number,
// 0 when there is none.
func HeadingLevel(s string) int {
	num := HeadNumber(s)
	if num == "" {
		return 0
	}
	return strings.Count(num, ".") + 1
}
