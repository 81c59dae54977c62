package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/summarize"
)

const notes = "# Intro\n\nSome introductory words that make a full sentence.\n\n# Method\n\nWe describe the method in more than five words.\n"

type bulletLLM struct{ calls int }

func (b *bulletLLM) Complete(context.Context, string, string) (string, error) {
	b.calls++
	return "* point", nil
}

type countingStore struct {
	*store.MemoryStore
	puts int
}

func (c *countingStore) Put(ctx context.Context, key string, e *store.Entry) error {
	c.puts++
	return c.MemoryStore.Put(ctx, key, e)
}

func newTestWorker(sum *summarize.Summarizer) (*Worker, *countingStore) {
	st := &countingStore{MemoryStore: store.NewMemoryStore(0)}
	log := slog.New(slog.DiscardHandler)
	return NewWorker(convert.New(nil, log), sum, st, log), st
}

func TestWorker_ConvertsAndStores(t *testing.T) {
	w, st := newTestWorker(nil)
	job := NewJob("notes.md", []byte(notes), format.Pipeline{format.SqueezeSpaces}, false)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Errors)
	}
	if snap.Result.Strategy != "bookmark" || snap.Result.Sections != 2 || snap.Result.Pages != 2 {
		t.Errorf("unexpected result %+v", snap.Result)
	}
	if !strings.HasPrefix(snap.Result.Key, snap.ContentHash+":squeeze_spaces:false") {
		t.Errorf("unexpected key %q", snap.Result.Key)
	}
	if st.puts != 1 {
		t.Errorf("expected one store write, got %d", st.puts)
	}
	if job.FileData() != nil {
		t.Error("expected file data released")
	}

	doc, err := w.Document(context.Background(), job)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Contents[1].Title != "Method" {
		t.Errorf("expected Method section, got %q", doc.Contents[1].Title)
	}
}

func TestWorker_CacheHit(t *testing.T) {
	w, st := newTestWorker(nil)
	first := NewJob("notes.md", []byte(notes), nil, false)
	w.Process(context.Background(), first)

	second := NewJob("copy.md", []byte(notes), nil, false)
	w.Process(context.Background(), second)

	if s := second.Snapshot(); s.Status != StatusCached || s.Result != first.Snapshot().Result {
		t.Errorf("expected cached result identical to the first run, got %+v", s.Result)
	}
	if st.puts != 1 {
		t.Errorf("expected no second store write, got %d", st.puts)
	}

	other := NewJob("notes.md", []byte(notes), format.Pipeline{format.DelBreak}, false)
	w.Process(context.Background(), other)
	if s := other.Snapshot(); s.Status != StatusCompleted {
		t.Errorf("expected different formatters to convert again, got %s", s.Status)
	}
}

func TestWorker_Summarize(t *testing.T) {
	llm := &bulletLLM{}
	cfg := summarize.DefaultConfig()
	cfg.Language = ""
	w, _ := newTestWorker(summarize.New(llm, cfg, nil))
	job := NewJob("notes.md", []byte(notes), nil, true)

	w.Process(context.Background(), job)

	if s := job.Snapshot(); s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", s.Status, s.Errors)
	}
	doc, _ := w.Document(context.Background(), job)
	if doc.Contents[0].Summary != "* point" {
		t.Errorf("expected summary, got %q", doc.Contents[0].Summary)
	}
	if llm.calls != 2 {
		t.Errorf("expected one call per section, got %d", llm.calls)
	}
}

func TestWorker_SummarizeNotConfigured(t *testing.T) {
	w, _ := newTestWorker(nil)
	job := NewJob("notes.md", []byte(notes), nil, true)
	w.Process(context.Background(), job)
	if s := job.Snapshot(); s.Status != StatusFailed || len(s.Errors) != 1 {
		t.Errorf("expected failure with one error, got %+v", s)
	}
}

func TestWorker_UnsupportedFile(t *testing.T) {
	w, _ := newTestWorker(nil)
	job := NewJob("data.csv", []byte("a,b"), nil, false)
	w.Process(context.Background(), job)
	s := job.Snapshot()
	if s.Status != StatusFailed || s.Phase != "parsing" {
		t.Errorf("expected parsing failure, got %s/%s", s.Status, s.Phase)
	}
	if _, err := w.Document(context.Background(), job); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for failed job, got %v", err)
	}
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := job.Snapshot(); s.Status.Done() {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestrator_SubmitAndStop(t *testing.T) {
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	w, _ := newTestWorker(nil)
	o := NewOrchestrator(cfg, w, slog.New(slog.DiscardHandler))
	o.Start(context.Background())

	job := NewJob("notes.md", []byte(notes), nil, false)
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := o.GetJob(job.ID); got != job {
		t.Fatal("expected job registered")
	}
	if s := waitDone(t, job); s.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", s.Status)
	}
	doc, err := o.Document(context.Background(), job)
	if err != nil || len(doc.Contents) != 2 {
		t.Fatalf("expected stored document, got %v, %v", doc, err)
	}

	o.Stop()
	o.Stop()
	if err := o.Submit(NewJob("x.md", nil, nil, false)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Defaults()
	cfg.MaxQueueSize = 1
	w, _ := newTestWorker(nil)
	o := NewOrchestrator(cfg, w, slog.New(slog.DiscardHandler))
	// Not started: nothing drains the queue.

	if err := o.Submit(NewJob("a.md", nil, nil, false)); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second := NewJob("b.md", nil, nil, false)
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if s := second.Snapshot(); s.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", s.Status)
	}
}
