package writer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/fumiama/go-docx"
	"github.com/xuri/excelize/v2"
)

func sampleDoc() *doctree.Document {
	return &doctree.Document{
		Title: "Deep Nets #1",
		Contents: []doctree.Section{
			{
				OutlineEntry: doctree.OutlineEntry{Level: 1, Title: "Abstract", Page: 0, Block: 1, Size: doctree.Ptr(12.0)},
				Texts:        []string{"We propose a method <fast> & simple."},
				Summary:      "* fast\n* simple",
			},
			{
				OutlineEntry: doctree.OutlineEntry{Level: 2, Title: "1.1 Setup", Page: 1, Block: 0},
				Texts:        []string{"First paragraph of the setup.", "Second paragraph."},
			},
		},
	}
}

func TestForName(t *testing.T) {
	for _, name := range Names {
		w, err := ForName(name)
		if err != nil {
			t.Fatalf("ForName(%q): %v", name, err)
		}
		if w.Extension() != name {
			t.Errorf("expected extension %q, got %q", name, w.Extension())
		}
	}
	if _, err := ForName("pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestJSON_RoundTripsThroughSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSON{}).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "<fast> & simple") {
		t.Errorf("expected unescaped HTML characters, got %s", buf.String())
	}
	doc, err := DecodeDocument(buf.Bytes())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "Deep Nets #1" || len(doc.Contents) != 2 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Contents[0].Size == nil || *doc.Contents[0].Size != 12 {
		t.Errorf("expected size 12 preserved, got %v", doc.Contents[0].Size)
	}
	if doc.Contents[1].Size != nil {
		t.Errorf("expected absent size to stay absent")
	}
}

func TestValidateDocumentJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  any
	}{
		{"missing contents", map[string]any{"title": "x"}},
		{"level zero", map[string]any{"title": "x", "contents": []any{
			map[string]any{"level": 0, "title": "a", "page": 0, "block": 0, "texts": []string{}},
		}}},
		{"texts not strings", map[string]any{"title": "x", "contents": []any{
			map[string]any{"level": 1, "title": "a", "page": 0, "block": 0, "texts": []int{1}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _ := json.Marshal(tt.doc)
			if err := ValidateDocumentJSON(data); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := ValidateDocumentJSON([]byte("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := (Markdown{}).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "# Deep Nets \\#1\n\n" +
		"# Abstract\n\n" +
		"We propose a method <fast> & simple.\n\n" +
		"## 1.1 Setup\n\n" +
		"First paragraph of the setup.\n\n" +
		"Second paragraph.\n\n"
	if buf.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestMarkdown_SummaryField(t *testing.T) {
	var buf bytes.Buffer
	if err := (Markdown{Field: FieldSummary}).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "* fast\n* simple") {
		t.Errorf("expected summary bullets, got %q", out)
	}
	if strings.Contains(out, "First paragraph") {
		t.Errorf("expected texts omitted, got %q", out)
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := (HTML{}).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<title>Deep Nets #1</title>", "<h1>Abstract</h1>", "<h2>1.1 Setup</h2>", "<p>Second paragraph.</p>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := (DOCX{}).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("parse docx: %v", err)
	}
	var styles []string
	for _, item := range f.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		style := ""
		if para.Properties != nil && para.Properties.Style != nil {
			style = para.Properties.Style.Val
		}
		styles = append(styles, style)
	}
	want := []string{"Title", "Heading1", "", "Heading2", "", ""}
	if strings.Join(styles, ",") != strings.Join(want, ",") {
		t.Errorf("expected styles %v, got %v", want, styles)
	}
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := (XLSX{}).Write(&buf, sampleDoc()); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(outlineSheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Title" || rows[2][1] != "1.1 Setup" {
		t.Errorf("unexpected rows %v", rows)
	}
	if rows[2][6] != "2" {
		t.Errorf("expected text count 2, got %q", rows[2][6])
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		input, title, ext, want string
	}{
		{"/data/paper.pdf", "A: Study?", "json", "paper(A Study).json"},
		{"paper.pdf", `<>|"*`, "md", "paper.md"},
		{"dir/x.y.txt", " Plain ", "html", "x.y(Plain).html"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.input, tt.title, tt.ext); got != tt.want {
			t.Errorf("OutputName(%q, %q): expected %q, got %q", tt.input, tt.title, tt.want, got)
		}
	}
}
