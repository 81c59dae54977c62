package blocks

import (
	"errors"
	"testing"
)

func fine(x0, y0 float64, text string, size float64) FineBlock {
	return FineBlock{
		X0: x0, Y0: y0,
		Lines: []Line{{Spans: []Span{{Text: text, Size: size, Flags: FlagBold, Font: 2}}}},
	}
}

func TestLoadPage_MatchesByIndexWhenCountsAgree(t *testing.T) {
	coarse := []CoarseBlock{
		{X0: 10, Y0: 10, X1: 100, Y1: 20, Text: "Title"},
		{X0: 10, Y0: 30, X1: 100, Y1: 60, Text: "Body text"},
	}
	// Coordinates deliberately differ: index matching must ignore them.
	fines := []FineBlock{fine(0, 0, "Title", 18), fine(1, 1, "Body", 10)}

	page := LoadPage(coarse, fines)
	if len(page) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(page))
	}
	if page[0].Size == nil || *page[0].Size != 18 {
		t.Errorf("expected block 0 size 18, got %v", page[0].Size)
	}
	if page[1].LineText == nil || *page[1].LineText != "Body" {
		t.Errorf("expected block 1 line text %q, got %v", "Body", page[1].LineText)
	}
	if page[0].Flags == nil || *page[0].Flags != FlagBold {
		t.Errorf("expected bold flags, got %v", page[0].Flags)
	}
	if page[0].Font == nil || *page[0].Font != 2 {
		t.Errorf("expected font id 2, got %v", page[0].Font)
	}
}

func TestLoadPage_FallsBackToCoordinates(t *testing.T) {
	coarse := []CoarseBlock{
		{X0: 10, Y0: 10, Text: "Heading"},
		{X0: 10, Y0: 50, Text: "Unmatched paragraph"},
	}
	fines := []FineBlock{
		{X0: 0, Y0: 0}, // image block, no lines
		fine(10, 10, "Heading", 14),
		fine(99, 99, "Elsewhere", 9),
	}

	page := LoadPage(coarse, fines)
	if page[0].Size == nil || *page[0].Size != 14 {
		t.Errorf("expected coordinate match with size 14, got %v", page[0].Size)
	}
	if page[1].Size != nil || page[1].Flags != nil || page[1].Font != nil || page[1].LineText != nil {
		t.Errorf("expected absent font data for unmatched block, got %+v", page[1])
	}
	if page[1].Text != "Unmatched paragraph" {
		t.Errorf("expected text preserved, got %q", page[1].Text)
	}
}

func TestLoadPage_LinelessBlockAtSameIndexIsAbsent(t *testing.T) {
	coarse := []CoarseBlock{{Text: "a"}, {Text: "b"}}
	fines := []FineBlock{fine(0, 0, "a", 9), {}}

	page := LoadPage(coarse, fines)
	if page[1].Size != nil {
		t.Errorf("expected absent size for lineless block, got %v", *page[1].Size)
	}
}

func TestLoad_AllPages(t *testing.T) {
	doc := &Document{}
	doc.AddPage(PageData{Coarse: []CoarseBlock{{Text: "p0"}}})
	doc.AddPage(PageData{})
	doc.AddPage(PageData{Coarse: []CoarseBlock{{Text: "p2a"}, {Text: "p2b"}}})

	pages, err := Load(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if len(pages[1]) != 0 {
		t.Errorf("expected empty page 1, got %d blocks", len(pages[1]))
	}
	if pages[2][1].Text != "p2b" {
		t.Errorf("expected %q, got %q", "p2b", pages[2][1].Text)
	}
}

func TestLoad_NoPages(t *testing.T) {
	_, err := Load(&Document{})
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}

func TestDocument_PageRange(t *testing.T) {
	doc := &Document{}
	doc.AddPage(PageData{})
	_, err := doc.CoarseBlocks(3)
	var rangeErr *PageRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected PageRangeError, got %v", err)
	}
	if rangeErr.Page != 3 || rangeErr.Count != 1 {
		t.Errorf("expected page 3 of 1, got %d of %d", rangeErr.Page, rangeErr.Count)
	}
	if _, ok := doc.MetadataTitle(); ok {
		t.Error("expected no metadata title")
	}
}
