// Package convert runs the single-document pipeline: parse, load blocks,
// construct the outline and apply formatters.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/papergest/internal/blocks"
	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/parser"
	"github.com/dgallion1/papergest/internal/toc"
)

// Converter turns one input file into a Document.
type Converter struct {
	Formatters format.Pipeline
	Parsers    parser.Options
	Log        *slog.Logger
}

// New returns a converter with the given formatters and default parsers.
func New(formatters format.Pipeline, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Converter{
		Formatters: formatters,
		Parsers:    parser.Options{PDFFallback: true},
		Log:        log,
	}
}

// Result is a converted document with details about how it was built.
type Result struct {
	Document *doctree.Document
	Strategy toc.Strategy
	Pages    int
}

// ConvertFile converts the file at path.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return c.Convert(ctx, f, filepath.Base(path))
}

// Convert reads r, choosing a parser from filename's extension.
func (c *Converter) Convert(ctx context.Context, r io.Reader, filename string) (*Result, error) {
	src, err := c.Parse(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	return c.FromSource(src, filename)
}

// Parse runs only the extraction stage.
func (c *Converter) Parse(ctx context.Context, r io.Reader, filename string) (blocks.Source, error) {
	p, err := c.Parsers.ForFile(filename)
	if err != nil {
		return nil, err
	}
	src, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return src, nil
}

// WithFormatters returns a copy of c that applies p instead.
func (c *Converter) WithFormatters(p format.Pipeline) *Converter {
	cp := *c
	cp.Formatters = p
	return &cp
}

// FromSource builds the document from an already opened page source.
func (c *Converter) FromSource(src blocks.Source, filename string) (*Result, error) {
	log := c.Log.With("file", filename)

	pages, err := blocks.Load(src)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	bookmarks, err := src.BookmarkOutline()
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	metaTitle, _ := src.MetadataTitle()
	log.Debug("loaded blocks", "pages", len(pages), "bookmarks", len(bookmarks))

	built := toc.Construct(pages, bookmarks, metaTitle)
	doc := c.Formatters.Apply(built.Document)

	log.Info("constructed document",
		"title", doc.Title,
		"strategy", built.Strategy,
		"outline_entries", len(built.Outline),
		"sections", len(doc.Contents),
	)
	return &Result{Document: doc, Strategy: built.Strategy, Pages: len(pages)}, nil
}
