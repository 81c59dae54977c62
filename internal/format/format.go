// Package format applies named text transforms to every section of a
// document.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/papergest/internal/doctree"
)

// Name identifies a transform.
type Name string

const (
	DelBreak        Name = "del_break"
	NeurIPSPreprint Name = "neurips_preprint"
	Dehyphenate     Name = "dehyphenate"
	SqueezeSpaces   Name = "squeeze_spaces"
)

var (
	pageNumberLineRe = regexp.MustCompile(`\n\d+\n`)
	hyphenBreakRe    = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
	spaceRunRe       = regexp.MustCompile(`[ \t]+`)
)

var transforms = map[Name]func(string) string{
	DelBreak: func(s string) string {
		return strings.ReplaceAll(s, "\n", " ")
	},
	NeurIPSPreprint: func(s string) string {
		return pageNumberLineRe.ReplaceAllString(s, "")
	},
	Dehyphenate: func(s string) string {
		return hyphenBreakRe.ReplaceAllString(s, "$1$2")
	},
	SqueezeSpaces: func(s string) string {
		return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
	},
}

// Names lists every known transform.
func Names() []Name {
	return []Name{DelBreak, NeurIPSPreprint, Dehyphenate, SqueezeSpaces}
}

// UnknownFormatterError is returned for a name with no transform.
type UnknownFormatterError struct {
	Name string
}

func (e *UnknownFormatterError) Error() string {
	return fmt.Sprintf("unknown formatter %q", e.Name)
}

// Pipeline is an ordered list of validated transforms.
type Pipeline []Name

// Parse builds a pipeline from a comma-separated list. Blank items are
// skipped.
func Parse(list string) (Pipeline, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	return New(strings.Split(list, ",")...)
}

// New validates names and returns them as a pipeline.
func New(names ...string) (Pipeline, error) {
	var p Pipeline
	for _, raw := range names {
		n := Name(strings.TrimSpace(raw))
		if n == "" {
			continue
		}
		if _, ok := transforms[n]; !ok {
			return nil, &UnknownFormatterError{Name: string(n)}
		}
		p = append(p, n)
	}
	return p, nil
}

// String renders the pipeline in the form Parse accepts.
func (p Pipeline) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = string(n)
	}
	return strings.Join(parts, ",")
}

// Text applies the pipeline to one fragment.
func (p Pipeline) Text(s string) string {
	for _, n := range p {
		s = transforms[n](s)
	}
	return s
}

// Apply returns a deep copy of doc with every section text transformed.
// doc itself is left unchanged.
func (p Pipeline) Apply(doc *doctree.Document) *doctree.Document {
	out := doc.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Contents {
		texts := out.Contents[i].Texts
		for j := range texts {
			texts[j] = p.Text(texts[j])
		}
	}
	return out
}
