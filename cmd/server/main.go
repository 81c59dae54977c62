package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/papergest/internal/api"
	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/pipeline"
	"github.com/dgallion1/papergest/internal/store"
	"github.com/dgallion1/papergest/internal/summarize"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document cache.
	var docs store.Store
	if cfg.RedisAddr != "" {
		rs, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			log.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		docs = rs
	} else {
		docs = store.NewMemoryStore(cfg.CacheTTL)
	}

	formatters, _ := cfg.FormatPipeline()
	conv := convert.New(formatters, log)
	conv.Parsers.PDFFallback = cfg.PDFFallbackPdftotext

	// Summarization is optional.
	var claude *summarize.ClaudeClient
	var sum *summarize.Summarizer
	if cfg.ValidateSummarize() == nil {
		claude = summarize.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		sum = summarize.New(claude, cfg.Summarize(), log)
	} else {
		log.Info("summarization disabled", "reason", "ANTHROPIC_API_KEY not set")
	}

	orch := pipeline.NewOrchestrator(cfg, pipeline.NewWorker(conv, sum, docs, log), log)
	orch.Start(ctx)

	srv, err := api.NewServer(orch, conv, sum, log, cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if claude != nil {
			claude.Close()
		}
		docs.Close()
	}()

	log.Info("starting papergest", "port", cfg.Port, "formatters", formatters.String(), "summarize", sum != nil)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
