package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/summarize"
)

// Worker processes a single document job.
type Worker struct {
	conv  *convert.Converter
	sum   *summarize.Summarizer
	store store.Store
	log   *slog.Logger
}

// NewWorker builds a worker. sum may be nil when summarization is not
// configured; jobs asking for it then fail.
func NewWorker(conv *convert.Converter, sum *summarize.Summarizer, st store.Store, log *slog.Logger) *Worker {
	return &Worker{
		conv:  conv,
		sum:   sum,
		store: st,
		log:   log,
	}
}

// Process runs the full conversion pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "file", job.Filename)
	defer job.releaseFileData()

	data := job.FileData()
	job.SetContentHash(ContentHashHex(data))
	key := CacheKey(job.ContentHash, job.Formatters, job.Summarize)

	// Phase 0: Cache lookup
	if e, err := w.store.Get(ctx, key); err == nil {
		log.Info("document already converted", "key", key)
		job.SetResult(e.Document.Title, Result{
			Key:      key,
			Strategy: e.Strategy,
			Pages:    e.Pages,
			Sections: len(e.Document.Contents),
		})
		job.SetStatus(StatusCached, "done")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn("cache lookup failed, proceeding", "error", err)
	}

	if job.Summarize && w.sum == nil {
		w.fail(job, "summarizing", errors.New("summarization is not configured"))
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	conv := w.conv.WithFormatters(job.Formatters)
	src, err := conv.Parse(ctx, bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		w.fail(job, "parsing", err)
		return
	}

	// Phase 2: Outline and segment
	job.SetStatus(StatusOutlining, "outlining")
	res, err := conv.FromSource(src, job.Filename)
	if err != nil {
		log.Error("outline failed", "error", err)
		w.fail(job, "outlining", err)
		return
	}
	doc := res.Document

	// Phase 3: Summarize
	if job.Summarize {
		job.SetStatus(StatusSummarizing, "summarizing")
		doc, err = w.sum.Summarize(ctx, doc)
		if err != nil {
			log.Error("summarize failed", "error", err)
			w.fail(job, "summarizing", err)
			return
		}
	}

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	entry := &store.Entry{Document: doc, Strategy: string(res.Strategy), Pages: res.Pages}
	if err := w.store.Put(ctx, key, entry); err != nil {
		log.Error("store failed", "error", err)
		w.fail(job, "storing", err)
		return
	}

	job.SetResult(doc.Title, Result{
		Key:      key,
		Strategy: string(res.Strategy),
		Pages:    res.Pages,
		Sections: len(doc.Contents),
	})
	job.SetStatus(StatusCompleted, "done")
	log.Info("job completed", "sections", len(doc.Contents), "strategy", res.Strategy)
}

func (w *Worker) fail(job *Job, phase string, err error) {
	job.AddError(fmt.Sprintf("%s: %s", phase, err))
	job.SetStatus(StatusFailed, phase)
}

// Document loads the stored result of a finished job.
func (w *Worker) Document(ctx context.Context, job *Job) (*doctree.Document, error) {
	snap := job.Snapshot()
	if snap.Result.Key == "" {
		return nil, store.ErrNotFound
	}
	e, err := w.store.Get(ctx, snap.Result.Key)
	if err != nil {
		return nil, err
	}
	return e.Document, nil
}
