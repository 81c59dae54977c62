package blocks

import (
	"errors"
	"fmt"

	"github.com/dgallion1/papergest/internal/doctree"
)

// ErrNoPages is returned when a source reports zero pages.
var ErrNoPages = errors.New("document has no pages")

// PageRangeError reports a page index outside the document.
type PageRangeError struct {
	Page  int
	Count int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page %d out of range (document has %d pages)", e.Page, e.Count)
}

// Load reads every page of src and returns one block sequence per page.
func Load(src Source) ([]doctree.Page, error) {
	n := src.PageCount()
	if n <= 0 {
		return nil, ErrNoPages
	}
	pages := make([]doctree.Page, n)
	for i := range n {
		coarse, err := src.CoarseBlocks(i)
		if err != nil {
			return nil, fmt.Errorf("coarse blocks page %d: %w", i, err)
		}
		fine, err := src.FineBlocks(i)
		if err != nil {
			return nil, fmt.Errorf("fine blocks page %d: %w", i, err)
		}
		pages[i] = LoadPage(coarse, fine)
	}
	return pages, nil
}

// LoadPage builds one TextBlock per coarse block, taking font attributes
// from the matching fine block. Equal-length lists match by index.
// Otherwise fine blocks without lines are dropped and the rest match by
// their exact (x0, y0) corner.
func LoadPage(coarse []CoarseBlock, fine []FineBlock) doctree.Page {
	page := make(doctree.Page, len(coarse))

	var byCorner map[[2]float64]FineBlock
	if len(coarse) != len(fine) {
		byCorner = make(map[[2]float64]FineBlock, len(fine))
		for _, f := range fine {
			if len(f.Lines) == 0 {
				continue
			}
			key := [2]float64{f.X0, f.Y0}
			// First block at a corner wins, as a linear scan would.
			if _, dup := byCorner[key]; !dup {
				byCorner[key] = f
			}
		}
	}

	for i, c := range coarse {
		tb := doctree.TextBlock{X0: c.X0, Y0: c.Y0, X1: c.X1, Y1: c.Y1, Text: c.Text}
		var (
			match FineBlock
			ok    bool
		)
		if byCorner == nil {
			match, ok = fine[i], true
		} else {
			match, ok = byCorner[[2]float64{c.X0, c.Y0}]
		}
		if ok {
			applyFont(&tb, match)
		}
		page[i] = tb
	}
	return page
}

// applyFont copies the first span of the first line into tb.
func applyFont(tb *doctree.TextBlock, f FineBlock) {
	if len(f.Lines) == 0 || len(f.Lines[0].Spans) == 0 {
		return
	}
	s := f.Lines[0].Spans[0]
	tb.Size = doctree.Ptr(s.Size)
	tb.Flags = doctree.Ptr(s.Flags)
	tb.Font = doctree.Ptr(s.Font)
	tb.LineText = doctree.Ptr(s.Text)
}
