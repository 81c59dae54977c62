package toc

import (
	"strings"
	"unicode"
)

// Predicate decides whether a text fragment is prose worth keeping.
type Predicate func(text string) bool

// Filters are applied in order; a fragment must pass all of them.
var Filters = []Predicate{
	MoreThanFiveWords,
	WordsAtLeastLines,
	MostlyNonDigit,
	NotCaption,
}

var captionPrefixes = []string{"Fig", "Figure", "Table", "TABLE"}

// MoreThanFiveWords drops short labels and captions.
func MoreThanFiveWords(text string) bool {
	return len(strings.Split(text, " ")) > 5
}

// WordsAtLeastLines drops columnar dumps where lines outnumber words.
func WordsAtLeastLines(text string) bool {
	return len(strings.Split(text, " ")) >= len(strings.Split(text, "\n"))
}

// MostlyNonDigit drops number-dominated fragments. Superscript and other
// non-decimal digits (category No) count as digits, so footnote marker runs
// are treated like numbers.
func MostlyNonDigit(text string) bool {
	var digits, others int
	for _, r := range text {
		if unicode.IsDigit(r) || unicode.Is(unicode.No, r) {
			digits++
		} else {
			others++
		}
	}
	return others > digits*2
}

// NotCaption drops figure and table captions.
func NotCaption(text string) bool {
	for _, p := range captionPrefixes {
		if strings.HasPrefix(text, p) {
			return false
		}
	}
	return true
}

// Keep reports whether text passes every filter.
func Keep(text string) bool {
	for _, f := range Filters {
		if !f(text) {
			return false
		}
	}
	return true
}

// FilterTexts returns the fragments of texts that pass every filter.
func FilterTexts(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if Keep(t) {
			out = append(out, t)
		}
	}
	return out
}
