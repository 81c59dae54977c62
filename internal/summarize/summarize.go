// Package summarize adds LLM-written bullet summaries and translations to
// converted documents.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/papergest/internal/chunker"
	"github.com/dgallion1/papergest/internal/doctree"
)

// Config tunes the summarizer.
type Config struct {
	// Language of the translation. Empty skips translation.
	Language   string
	CoolDown   time.Duration // pause after a prompt larger than CoolTokens
	CoolTokens int
	MaxRedo    int
	Chunk      chunker.Config
	Retry      RetryConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Language:   "Japanese",
		CoolDown:   30 * time.Second,
		CoolTokens: 6000,
		MaxRedo:    3,
		Chunk:      chunker.DefaultConfig(),
		Retry:      DefaultRetryConfig(),
	}
}

// Summarizer fills Section.Summary and Section.Translation.
type Summarizer struct {
	llm   Completer
	cfg   Config
	log   *slog.Logger
	stats *LatencyStats

	// Replaced in tests.
	wait    func(ctx context.Context, d time.Duration) error
	backoff func(attempt int) time.Duration
}

func New(llm Completer, cfg Config, log *slog.Logger) *Summarizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Summarizer{
		llm:     llm,
		cfg:     cfg,
		log:     log,
		stats:   NewLatencyStats(time.Hour),
		wait:    sleepCtx,
		backoff: cfg.Retry.Backoff,
	}
}

// Language is the translation target; empty when translation is off.
func (s *Summarizer) Language() string {
	return s.cfg.Language
}

// Model returns the model name when the completer exposes one.
func (s *Summarizer) Model() string {
	if m, ok := s.llm.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// Stats returns per-actor latency aggregates.
func (s *Summarizer) Stats() map[Actor]StatsSnapshot {
	return s.stats.Snapshot()
}

// Summarize returns a copy of doc with every section summarized. Sections
// holding at most one word are copied through as their own summary.
func (s *Summarizer) Summarize(ctx context.Context, doc *doctree.Document) (*doctree.Document, error) {
	out := doc.Clone()
	for i := range out.Contents {
		sec := &out.Contents[i]
		start := time.Now()
		text := strings.Join(sec.Texts, "\n")

		if len(strings.Split(text, " ")) <= 1 {
			sec.Summary, sec.Translation = text, text
			s.log.Debug("section has no prose", "section", sec.Title)
			continue
		}

		summary, err := s.run(ctx, Explainer, text)
		if err != nil {
			return nil, fmt.Errorf("summarize section %q: %w", sec.Title, err)
		}
		sec.Summary = summary

		if s.cfg.Language != "" {
			translation, err := s.run(ctx, Translator, summary)
			if err != nil {
				return nil, fmt.Errorf("translate section %q: %w", sec.Title, err)
			}
			sec.Translation = translation
		}

		s.log.Info("summarized section",
			"section", sec.Title,
			"tokens", chunker.EstimateTokens(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	return out, nil
}

// run sends text through one actor, splitting it when it is too long for a
// single prompt, and joins the post-processed replies.
func (s *Summarizer) run(ctx context.Context, actor Actor, text string) (string, error) {
	var parts []string
	for _, piece := range chunker.Split(text, s.cfg.Chunk) {
		res, err := s.chat(ctx, actor, piece)
		if err != nil {
			return "", err
		}
		parts = append(parts, res)
		if err := s.coolDown(ctx, piece); err != nil {
			return "", err
		}
	}
	return strings.Join(parts, "\n"), nil
}

// chat asks again while the reply has no bullet line, up to MaxRedo extra
// times. The raw reply is kept when none qualifies.
func (s *Summarizer) chat(ctx context.Context, actor Actor, text string) (string, error) {
	system, prompt := buildPrompt(actor, s.cfg.Language, text)
	for redo := 0; ; redo++ {
		res, err := s.complete(ctx, actor, system, prompt)
		if err != nil {
			return "", err
		}
		if processed, ok := PostProcess(res); ok {
			return processed, nil
		}
		if redo >= s.cfg.MaxRedo {
			s.log.Warn("no bullet response, keeping raw reply", "actor", actor, "attempts", redo+1)
			return res, nil
		}
		s.log.Debug("redo after bad response", "actor", actor, "attempt", redo+1)
	}
}

func (s *Summarizer) complete(ctx context.Context, actor Actor, system, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.backoff(attempt - 1)
			s.log.Warn("retrying llm call", "actor", actor, "attempt", attempt, "delay", delay, "error", lastErr)
			if err := s.wait(ctx, delay); err != nil {
				return "", err
			}
		}
		start := time.Now()
		res, err := s.llm.Complete(ctx, system, prompt)
		s.stats.Record(actor, time.Since(start))
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return "", lastErr
}

func (s *Summarizer) coolDown(ctx context.Context, text string) error {
	if s.cfg.CoolTokens <= 0 || len(strings.Split(text, " ")) <= s.cfg.CoolTokens {
		return nil
	}
	s.log.Info("cooling down", "seconds", s.cfg.CoolDown.Seconds(), "limit_tokens", s.cfg.CoolTokens)
	return s.wait(ctx, s.cfg.CoolDown)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
