package writer

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/xuri/excelize/v2"
)

const outlineSheet = "Outline"

var xlsxHeaders = []any{"Level", "Title", "Page", "Block", "Size", "Terminal", "Texts", "Text"}

// XLSX writes one worksheet row per section.
type XLSX struct{}

func (XLSX) Extension() string { return "xlsx" }

func (XLSX) Write(w io.Writer, doc *doctree.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(outlineSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(outlineSheet)
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	if err := f.SetSheetRow(outlineSheet, "A1", &xlsxHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range doc.Contents {
		var size any = ""
		if s.Size != nil {
			size = *s.Size
		}
		row := []any{
			s.Level,
			s.Title,
			s.Page,
			s.Block,
			size,
			s.Terminal,
			len(s.Texts),
			truncateCell(strings.Join(s.Texts, "\n\n")),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(outlineSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(outlineSheet, "B", "B", 40)
	_ = f.SetColWidth(outlineSheet, "H", "H", 80)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// truncateCell keeps s within the spreadsheet cell limit.
func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= excelize.TotalCellChars {
		return s
	}
	r := []rune(s)
	return string(r[:excelize.TotalCellChars-1]) + "…"
}
