// Package batch converts many files in parallel and writes the results
// to disk.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/dgallion1/papergest/internal/parser"
	"github.com/dgallion1/papergest/internal/summarize"
	"github.com/dgallion1/papergest/internal/toc"
	"github.com/dgallion1/papergest/internal/writer"
	"golang.org/x/sync/errgroup"
)

// Options controls one batch run.
type Options struct {
	// OutputDir receives every output file. Empty writes next to each input.
	OutputDir string
	Outputs   []writer.Writer
	Workers   int
	Summarize bool
	// SkipDone leaves inputs alone when their outputs already exist.
	SkipDone bool
	// Pause is waited after each summarized file except the last input to
	// stay under API rate limits. It holds the worker slot.
	Pause time.Duration
}

// FileResult describes what happened to one input.
type FileResult struct {
	Input    string
	Outputs  []string
	Strategy toc.Strategy
	Sections int
	Skipped  bool
	Err      error
}

// Report collects per-file results in input order.
type Report struct {
	Files []FileResult
}

// Failed returns the number of inputs that produced an error.
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Skipped returns the number of inputs left alone because their outputs
// already existed.
func (r *Report) Skipped() int {
	n := 0
	for _, f := range r.Files {
		if f.Skipped {
			n++
		}
	}
	return n
}

// Runner converts files with a shared converter and optional summarizer.
type Runner struct {
	conv *convert.Converter
	sum  *summarize.Summarizer
	log  *slog.Logger

	wait func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a Runner. sum may be nil when summaries are never
// requested.
func NewRunner(conv *convert.Converter, sum *summarize.Summarizer, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{conv: conv, sum: sum, log: log, wait: sleepCtx}
}

// Collect expands roots into the list of convertible files. Directories are
// walked recursively and files with unsupported extensions are skipped; a
// file named directly must have a supported extension. A path reached from
// more than one root is listed once.
func Collect(roots ...string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		key := filepath.Clean(path)
		if !seen[key] {
			seen[key] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			if !parser.IsSupportedExtension(root) {
				return nil, fmt.Errorf("%w: %s", parser.ErrUnsupported, filepath.Ext(root))
			}
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if parser.IsSupportedExtension(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}

// Run converts inputs with at most opts.Workers in flight. Per-file errors
// land in the report; the returned error is only set when the run itself
// could not proceed or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, inputs []string, opts Options) (*Report, error) {
	if opts.Summarize && r.sum == nil {
		return nil, errors.New("summarization requested but no summarizer configured")
	}
	if len(opts.Outputs) == 0 {
		opts.Outputs = []writer.Writer{writer.JSON{}, writer.Markdown{}}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	report := &Report{Files: make([]FileResult, len(inputs))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Files[i] = FileResult{Input: in, Err: err}
				return err
			}
			if opts.SkipDone {
				if outs, ok := r.existingOutputs(in, opts); ok {
					r.log.Info("skipping converted file", "file", in)
					report.Files[i] = FileResult{Input: in, Outputs: outs, Skipped: true}
					return nil
				}
			}
			report.Files[i] = r.runOne(gctx, in, opts)
			if opts.Summarize && opts.Pause > 0 && report.Files[i].Err == nil && i < len(inputs)-1 {
				r.log.Info("pausing for rate limits", "file", in, "seconds", opts.Pause.Seconds())
				if err := r.wait(gctx, opts.Pause); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, in string, opts Options) FileResult {
	log := r.log.With("file", in)
	res := FileResult{Input: in}

	conv, err := r.conv.ConvertFile(ctx, in)
	if err != nil {
		log.Warn("convert failed", "error", err)
		res.Err = err
		return res
	}
	res.Strategy = conv.Strategy
	res.Sections = len(conv.Document.Contents)
	doc := conv.Document

	if opts.Summarize {
		doc, err = r.sum.Summarize(ctx, doc)
		if err != nil {
			log.Warn("summarize failed", "error", err)
			res.Err = fmt.Errorf("summarize: %w", err)
			return res
		}
	}

	dir := outputDir(in, opts)
	for _, w := range opts.Outputs {
		path := filepath.Join(dir, writer.OutputName(in, doc.Title, w.Extension()))
		if err := writeFile(path, w, doc); err != nil {
			res.Err = err
			return res
		}
		res.Outputs = append(res.Outputs, path)
	}

	if opts.Summarize {
		for _, field := range extraFields(doc) {
			name := strings.TrimSuffix(writer.OutputName(in, doc.Title, "md"), ".md") + viewSuffix(field)
			path := filepath.Join(dir, name)
			if err := writeFile(path, writer.Markdown{Field: field}, doc); err != nil {
				res.Err = err
				return res
			}
			res.Outputs = append(res.Outputs, path)
		}
	}

	log.Info("converted", "strategy", res.Strategy, "sections", res.Sections, "outputs", len(res.Outputs))
	return res
}

func outputDir(in string, opts Options) string {
	if opts.OutputDir != "" {
		return opts.OutputDir
	}
	return filepath.Dir(in)
}

func viewSuffix(field writer.MarkdownField) string {
	return "_" + string(field) + ".md"
}

// existingOutputs reports whether every output a run would produce for in is
// already present. The document title is unknown before converting, so any
// "<base>(<title>)" name counts. When summarizing, the last view written
// (translation, or summary without a language) must exist too.
func (r *Runner) existingOutputs(in string, opts Options) ([]string, bool) {
	dir := outputDir(in, opts)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	var suffixes []string
	for _, w := range opts.Outputs {
		suffixes = append(suffixes, "."+w.Extension())
	}
	if opts.Summarize {
		last := writer.FieldSummary
		if r.sum != nil && r.sum.Language() != "" {
			last = writer.FieldTranslation
		}
		suffixes = append(suffixes, viewSuffix(last))
	}

	var found []string
	for _, suffix := range suffixes {
		name, ok := matchOutput(names, base, suffix)
		if !ok {
			return nil, false
		}
		found = append(found, filepath.Join(dir, name))
	}
	return found, true
}

// matchOutput finds "<base><suffix>" or "<base>(<anything>)<suffix>".
func matchOutput(names []string, base, suffix string) (string, bool) {
	for _, n := range names {
		if n == base+suffix {
			return n, true
		}
		if strings.HasPrefix(n, base+"(") && strings.HasSuffix(n, ")"+suffix) && len(n) >= len(base)+len(suffix)+2 {
			return n, true
		}
	}
	return "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// extraFields lists the summary views worth writing for doc.
func extraFields(doc *doctree.Document) []writer.MarkdownField {
	fields := []writer.MarkdownField{writer.FieldSummary}
	for _, s := range doc.Contents {
		if s.Translation != "" {
			return append(fields, writer.FieldTranslation)
		}
	}
	return fields
}

func writeFile(path string, w writer.Writer, doc *doctree.Document) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	if err := w.Write(f, doc); err != nil {
		return fmt.Errorf("write %s: %w", w.Extension(), err)
	}
	return nil
}
