package parser

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dgallion1/papergest/internal/blocks"
	"golang.org/x/net/html"
)

// parseBBoxLayout reads the XHTML written by `pdftotext -bbox-layout`.
// Each <block> becomes one block and each <line> one span whose size is
// the line height. The output carries no font names or outline.
func parseBBoxLayout(r io.Reader) (*blocks.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bbox layout: %w", err)
	}

	doc := &blocks.Document{Title: findElement(root, "title", textContent)}
	for _, page := range elements(root, "page") {
		var pd blocks.PageData
		for _, blk := range elements(page, "block") {
			x0, y0, x1, y1 := bbox(blk)
			fine := blocks.FineBlock{X0: x0, Y0: y0, X1: x1, Y1: y1}
			var texts []string
			for _, line := range elements(blk, "line") {
				var words []string
				for _, w := range elements(line, "word") {
					if t := textContent(w); t != "" {
						words = append(words, t)
					}
				}
				if len(words) == 0 {
					continue
				}
				text := strings.Join(words, " ")
				texts = append(texts, text)
				_, ly0, _, ly1 := bbox(line)
				fine.Lines = append(fine.Lines, blocks.Line{
					Spans: []blocks.Span{{Text: text, Size: math.Round((ly1-ly0)*100) / 100}},
				})
			}
			if len(texts) == 0 {
				continue
			}
			pd.Coarse = append(pd.Coarse, blocks.CoarseBlock{X0: x0, Y0: y0, X1: x1, Y1: y1, Text: strings.Join(texts, "\n")})
			pd.Fine = append(pd.Fine, fine)
		}
		doc.AddPage(pd)
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("parse bbox layout: no pages")
	}
	return doc, nil
}

// elements returns the descendants of n named tag, in document order,
// without descending into matches.
func elements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// bbox reads xMin/yMin/xMax/yMax; the HTML parser lowercases attribute names.
func bbox(n *html.Node) (x0, y0, x1, y1 float64) {
	num := func(key string) float64 {
		v, _ := strconv.ParseFloat(attr(n, key), 64)
		return v
	}
	return num("xmin"), num("ymin"), num("xmax"), num("ymax")
}
