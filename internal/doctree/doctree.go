package doctree

// NoBlock marks an OutlineEntry without a block index. Only the closing
// sentinel appended by the segmenter carries it.
const NoBlock = -1

// TextBlock is one positioned region of contiguous text on a page.
// Geometry is always present; font attributes are best-effort and nil when
// the extraction layer could not supply them.
type TextBlock struct {
	X0       float64  `json:"x0"`
	Y0       float64  `json:"y0"`
	X1       float64  `json:"x1"`
	Y1       float64  `json:"y1"`
	Text     string   `json:"text"`
	Size     *float64 `json:"size,omitempty"`
	Flags    *int     `json:"flags,omitempty"`
	Font     *int     `json:"font,omitempty"`
	LineText *string  `json:"line_text,omitempty"`
}

// Page is the ordered block sequence of one page, in layout order.
type Page []TextBlock

// OutlineEntry is one detected section header.
type OutlineEntry struct {
	Level         int      `json:"level"`
	Title         string   `json:"title"`
	Page          int      `json:"page"`
	Block         int      `json:"block"`
	Size          *float64 `json:"size,omitempty"`
	TitleLineText *string  `json:"title_line_text,omitempty"`
	Terminal      bool     `json:"terminal,omitempty"`
	NamedDest     string   `json:"nameddest,omitempty"`
}

// HasBlock reports whether the entry points at a concrete block.
func (e OutlineEntry) HasBlock() bool {
	return e.Block != NoBlock
}

// Section is an outline entry together with the prose assigned to it.
type Section struct {
	OutlineEntry
	Texts []string `json:"texts"`

	// Filled in by the summarizer, empty otherwise.
	Summary     string `json:"summary,omitempty"`
	Translation string `json:"translation,omitempty"`
}

// Document is the reconstructed outline of one input file.
type Document struct {
	Title    string    `json:"title"`
	Contents []Section `json:"contents"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Title:    d.Title,
		Contents: make([]Section, len(d.Contents)),
	}
	for i, s := range d.Contents {
		s.OutlineEntry = s.OutlineEntry.Clone()
		if s.Texts != nil {
			s.Texts = append([]string(nil), s.Texts...)
		}
		out.Contents[i] = s
	}
	return out
}

// Clone returns a copy of the entry that shares no pointers with e.
func (e OutlineEntry) Clone() OutlineEntry {
	e.Size = clonePtr(e.Size)
	e.TitleLineText = clonePtr(e.TitleLineText)
	return e
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SameSize reports whether both sizes are present and equal. Absent sizes
// never match anything, including another absent size.
func SameSize(a, b *float64) bool {
	return a != nil && b != nil && *a == *b
}
