package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/papergest/internal/blocks"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/parser"
	"github.com/dgallion1/papergest/internal/toc"
)

const paperText = `A Tiny Paper

Abstract

We study a small problem and report results across
several settings in this abstract paragraph.

1 Introduction

The introduction explains the motivation for the work
in more than five words.

Figure 1 shows the overall pipeline of the system here.

2 Method

The method section describes what we actually did.
` + "\f" + `References

[1] Some Author. A cited paper title goes here. 2020.
`

func TestConvert_PlainTextPaper(t *testing.T) {
	pipe, err := format.Parse("del_break")
	if err != nil {
		t.Fatalf("parse formatters: %v", err)
	}
	c := New(pipe, nil)
	res, err := c.Convert(context.Background(), strings.NewReader(paperText), "paper.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := res.Document

	if doc.Title != "A Tiny Paper" {
		t.Errorf("expected title %q, got %q", "A Tiny Paper", doc.Title)
	}
	if res.Strategy != toc.StrategyPattern {
		t.Errorf("expected pattern strategy, got %s", res.Strategy)
	}
	if res.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", res.Pages)
	}

	var got []string
	for _, s := range doc.Contents {
		got = append(got, s.Title)
	}
	want := []string{"Abstract", "1 Introduction", "2 Method"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected sections %v, got %v", want, got)
	}

	abstract := doc.Contents[0].Texts
	if len(abstract) != 1 || strings.Contains(abstract[0], "\n") {
		t.Errorf("expected one formatted abstract paragraph, got %q", abstract)
	}
	for _, txt := range doc.Contents[1].Texts {
		if strings.HasPrefix(txt, "Figure") {
			t.Errorf("expected caption filtered, got %q", txt)
		}
	}
	// Without font sizes the References heading cannot be confirmed, so
	// the last section runs to the end of the document.
	last := doc.Contents[2].Texts
	if len(last) != 2 {
		t.Errorf("expected method text plus reference entry, got %q", last)
	}
}

func TestConvert_MarkdownUsesBookmarks(t *testing.T) {
	md := "# Intro\n\nSome introductory words that make a sentence.\n\n# References\n\n- [1] cited\n"
	c := New(nil, nil)
	res, err := c.Convert(context.Background(), strings.NewReader(md), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != toc.StrategyBookmark {
		t.Errorf("expected bookmark strategy, got %s", res.Strategy)
	}
	if len(res.Document.Contents) != 1 || res.Document.Contents[0].Title != "Intro" {
		t.Fatalf("expected only the Intro section before References, got %+v", res.Document.Contents)
	}
}

func TestConvert_Unsupported(t *testing.T) {
	c := New(nil, nil)
	_, err := c.Convert(context.Background(), strings.NewReader("a,b"), "x.csv")
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.txt")
	if err := os.WriteFile(path, []byte(paperText), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := New(nil, nil).ConvertFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Document.Contents) != 3 {
		t.Errorf("expected 3 sections, got %d", len(res.Document.Contents))
	}
}

func TestFromSource_NoPages(t *testing.T) {
	_, err := New(nil, nil).FromSource(&blocks.Document{}, "empty.pdf")
	if !errors.Is(err, blocks.ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}
