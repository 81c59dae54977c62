// Package blocks normalizes the raw output of a page-extraction layer into
// uniform per-page text blocks.
package blocks

// Source is the page-extraction collaborator consumed by the loader.
// Page indexes are 0-based; bookmark page numbers are 1-based.
type Source interface {
	PageCount() int
	CoarseBlocks(page int) ([]CoarseBlock, error)
	FineBlocks(page int) ([]FineBlock, error)
	BookmarkOutline() ([]Bookmark, error)
	MetadataTitle() (string, bool)
}

// CoarseBlock is a block's bounding box and merged text.
type CoarseBlock struct {
	X0, Y0, X1, Y1 float64
	Text           string
}

// FineBlock is the hierarchical view of a block. Lines is nil for image or
// decorative blocks.
type FineBlock struct {
	X0, Y0, X1, Y1 float64
	Lines          []Line
}

// Line is one line of a fine block.
type Line struct {
	Spans []Span
}

// Span is a run of text sharing one font and size.
type Span struct {
	Text  string
	Size  float64
	Flags int
	Font  int
}

// Span flag bits, following the layout most PDF toolkits report.
const (
	FlagSuperscript = 1 << 0
	FlagItalic      = 1 << 1
	FlagSerif       = 1 << 2
	FlagMonospace   = 1 << 3
	FlagBold        = 1 << 4
)

// Bookmark is one entry of an embedded navigation outline.
type Bookmark struct {
	Level     int
	Title     string
	Page      int // 1-based
	NamedDest string
}

// PageData holds both block enumerations of one page.
type PageData struct {
	Coarse []CoarseBlock
	Fine   []FineBlock
}

// Document is an eagerly loaded Source. Parsers build one per input file.
type Document struct {
	Pages     []PageData
	Bookmarks []Bookmark
	Title     string
}

var _ Source = (*Document)(nil)

func (d *Document) PageCount() int { return len(d.Pages) }

func (d *Document) CoarseBlocks(page int) ([]CoarseBlock, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	return d.Pages[page].Coarse, nil
}

func (d *Document) FineBlocks(page int) ([]FineBlock, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	return d.Pages[page].Fine, nil
}

func (d *Document) BookmarkOutline() ([]Bookmark, error) {
	return d.Bookmarks, nil
}

func (d *Document) MetadataTitle() (string, bool) {
	if d.Title == "" {
		return "", false
	}
	return d.Title, true
}

// AddPage appends a page and returns its 0-based index.
func (d *Document) AddPage(p PageData) int {
	d.Pages = append(d.Pages, p)
	return len(d.Pages) - 1
}

func (d *Document) checkPage(page int) error {
	if page < 0 || page >= len(d.Pages) {
		return &PageRangeError{Page: page, Count: len(d.Pages)}
	}
	return nil
}
