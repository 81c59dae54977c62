package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/mcpserver"
)

var version = "dev"

func main() {
	// stdout carries the MCP protocol.
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	formatters, _ := cfg.FormatPipeline()

	conv := convert.New(formatters, log)
	conv.Parsers.PDFFallback = cfg.PDFFallbackPdftotext

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting papergest mcp server", "version", version)
	if err := mcpserver.New(conv, version, log).ServeStdio(ctx); err != nil && ctx.Err() == nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
