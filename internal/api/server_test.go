package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/pipeline"
	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/summarize"
)

const testKey = "secret"

const notes = "# Intro\n\nSome introductory words that make a full sentence.\n\n# Method\n\nWe describe the method in more than five words.\n"

type bulletLLM struct{}

func (bulletLLM) Complete(context.Context, string, string) (string, error) { return "* point", nil }

func newTestServer(t *testing.T, withSummarizer bool) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.APIKey = testKey
	cfg.MaxUploadBytes = 1 << 20
	log := slog.New(slog.DiscardHandler)

	conv := convert.New(nil, log)
	var sum *summarize.Summarizer
	if withSummarizer {
		sc := summarize.DefaultConfig()
		sc.Language = ""
		sum = summarize.New(bulletLLM{}, sc, log)
	}
	orch := pipeline.NewOrchestrator(cfg, pipeline.NewWorker(conv, sum, store.NewMemoryStore(0), log), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	s, err := NewServer(orch, conv, sum, log, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile(fileField, name)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth_Public(t *testing.T) {
	s := newTestServer(t, false)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("expected 200 ok, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, false)
	tests := []struct {
		name, header string
	}{
		{"missing", ""},
		{"wrong key", "Bearer nope"},
		{"wrong scheme", "Basic " + testKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/jobs/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestConvert_JSON(t *testing.T) {
	s := newTestServer(t, false)
	body, ct := multipartBody(t, map[string]string{"formatters": "del_break"}, "file", map[string]string{"notes.md": notes})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Outline-Strategy"); got != "bookmark" {
		t.Errorf("expected bookmark strategy header, got %q", got)
	}
	doc := decode[struct {
		Title    string `json:"title"`
		Contents []struct {
			Title string   `json:"title"`
			Texts []string `json:"texts"`
		} `json:"contents"`
	}](t, rec)
	if len(doc.Contents) != 2 || doc.Contents[0].Title != "Intro" {
		t.Errorf("unexpected document %+v", doc)
	}
}

func TestConvert_Markdown(t *testing.T) {
	s := newTestServer(t, false)
	body, ct := multipartBody(t, map[string]string{"output": "md"}, "file", map[string]string{"notes.md": notes})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "# Method\n") {
		t.Errorf("expected markdown heading, got %q", rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".md") {
		t.Errorf("expected attachment name, got %q", cd)
	}
}

func TestConvert_BadRequests(t *testing.T) {
	s := newTestServer(t, false)
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
		want   int
	}{
		{"unknown formatter", map[string]string{"formatters": "bogus"}, map[string]string{"a.md": notes}, http.StatusBadRequest},
		{"unknown output", map[string]string{"output": "pdf"}, map[string]string{"a.md": notes}, http.StatusBadRequest},
		{"unsupported file", nil, map[string]string{"a.csv": "x,y"}, http.StatusBadRequest},
		{"no file", nil, nil, http.StatusBadRequest},
		{"summarize sync", map[string]string{"summarize": "true"}, map[string]string{"a.md": notes}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, "file", tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
			req.Header.Set("Content-Type", ct)
			if rec := do(s, req); rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestConvert_TooLarge(t *testing.T) {
	s := newTestServer(t, false)
	s.cfg.MaxUploadBytes = 10
	body, ct := multipartBody(t, nil, "file", map[string]string{"a.md": notes})
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(s, req); rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("expected size rejection, got %d", rec.Code)
	}
}

func waitJob(t *testing.T, s *Server, id string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: %d %s", rec.Code, rec.Body.String())
		}
		snap := decode[pipeline.JobSnapshot](t, rec)
		if snap.Status.Done() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return pipeline.JobSnapshot{}
}

func TestJobs_Lifecycle(t *testing.T) {
	s := newTestServer(t, true)
	body, ct := multipartBody(t, map[string]string{"summarize": "true"}, "file", map[string]string{"notes.md": notes})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode[map[string]any](t, rec)
	id, _ := accepted["job_id"].(string)
	if id == "" || accepted["poll_url"] != "/api/jobs/"+id {
		t.Fatalf("unexpected accept body %v", accepted)
	}

	snap := waitJob(t, s, id)
	if snap.Status != pipeline.StatusCompleted || !snap.Summarize {
		t.Fatalf("expected completed summarized job, got %+v", snap)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id+"/document", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"summary": "* point"`) {
		t.Errorf("expected summary in document, got %s", rec.Body.String())
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id+"/document?output=xlsx", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Type"), "spreadsheetml") {
		t.Errorf("expected xlsx output, got %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestJobs_SummarizeWithoutSummarizer(t *testing.T) {
	s := newTestServer(t, false)
	body, ct := multipartBody(t, map[string]string{"summarize": "true"}, "file", map[string]string{"notes.md": notes})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", ct)
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestJobs_NotFound(t *testing.T) {
	s := newTestServer(t, false)
	for _, path := range []string{"/api/jobs/missing", "/api/jobs/missing/document"} {
		if rec := do(s, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestJobs_Batch(t *testing.T) {
	s := newTestServer(t, false)
	body, ct := multipartBody(t, nil, "files", map[string]string{
		"a.md":  notes,
		"b.txt": "1 Intro\n\nplain text body with enough words here\n",
		"c.csv": "x",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/batch", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		Jobs []map[string]any `json:"jobs"`
	}](t, rec)
	if len(resp.Jobs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Jobs))
	}
	accepted, rejected := 0, 0
	for _, j := range resp.Jobs {
		if _, ok := j["error"]; ok {
			rejected++
			continue
		}
		accepted++
		waitJob(t, s, j["job_id"].(string))
	}
	if accepted != 2 || rejected != 1 {
		t.Errorf("expected 2 accepted and 1 rejected, got %d and %d", accepted, rejected)
	}
}

func TestFormat(t *testing.T) {
	s := newTestServer(t, false)
	payload := `{"formatters":"del_break","document":{"title":"T","contents":[` +
		`{"level":1,"title":"A","page":0,"block":0,"texts":["line one\nline two"]}]}}`
	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/format", strings.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"line one line two"`) {
		t.Errorf("expected formatted text, got %s", rec.Body.String())
	}
}

func TestFormat_Rejects(t *testing.T) {
	s := newTestServer(t, false)
	tests := []struct {
		name, payload string
		want          int
	}{
		{"not json", `{`, http.StatusBadRequest},
		{"no document", `{"formatters":"del_break"}`, http.StatusBadRequest},
		{"schema violation", `{"document":{"title":"T"}}`, http.StatusUnprocessableEntity},
		{"unknown formatter", `{"formatters":"nope","document":{"title":"T","contents":[]}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodPost, "/api/format", strings.NewReader(tt.payload)))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLLMStats(t *testing.T) {
	if rec := do(newTestServer(t, false), httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without summarizer, got %d", rec.Code)
	}
	rec := do(newTestServer(t, true), httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"stats"`) {
		t.Errorf("expected stats body, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"paper.pdf":            "paper.pdf",
		"../../etc/passwd.txt": "passwd.txt",
		`C:\docs\report.docx`:  "report.docx",
		"":                     "unnamed",
		"a..b.md":              "a_b.md",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
