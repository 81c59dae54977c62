package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgallion1/papergest/internal/batch"
	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/summarize"
	"github.com/dgallion1/papergest/internal/writer"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	var (
		input      string
		outputDir  string
		formatters string
		outputs    = flag.String("outputs", "json,md", "comma-separated output formats ("+strings.Join(writer.Names, ", ")+")")
		summarizeF = flag.Bool("summarize", false, "summarize and translate every section (needs ANTHROPIC_API_KEY)")
		skipDone   = flag.Bool("skip-done", false, "skip inputs whose outputs already exist (default on with -summarize)")
		pause      = flag.Duration("pause", cfg.BatchPause, "wait after each summarized file for API rate limits")
		workers    = flag.Int("workers", cfg.BatchWorkers, "files converted in parallel")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.StringVar(&input, "pdf", cfg.PDFDirs, "comma-separated input files or directories (required, default PDF_DIRS)")
	flag.StringVar(&input, "p", cfg.PDFDirs, "shorthand for -pdf")
	flag.StringVar(&outputDir, "output", "", "output directory (defaults to next to each input)")
	flag.StringVar(&outputDir, "o", "", "shorthand for -output")
	flag.StringVar(&formatters, "format", cfg.Formatters, "comma-separated formatters ("+formatterNames()+")")
	flag.StringVar(&formatters, "f", cfg.Formatters, "shorthand for -format")
	flag.Parse()

	cfg.PDFDirs = input
	roots := append(cfg.InputRoots(), flag.Args()...)
	if len(roots) == 0 {
		printError("Error: -pdf is required\n")
		flag.Usage()
		os.Exit(1)
	}

	skipSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "skip-done" {
			skipSet = true
		}
	})
	if !skipSet {
		*skipDone = *summarizeF
	}

	pipe, err := format.Parse(formatters)
	if err != nil {
		var unknown *format.UnknownFormatterError
		if errors.As(err, &unknown) {
			printError("Error: %v (known: %s)\n", err, formatterNames())
		} else {
			printError("Error: %v\n", err)
		}
		os.Exit(1)
	}

	var writers []writer.Writer
	for _, name := range strings.Split(*outputs, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		w, err := writer.ForName(name)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		writers = append(writers, w)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conv := convert.New(pipe, log)
	conv.Parsers.PDFFallback = cfg.PDFFallbackPdftotext

	var sum *summarize.Summarizer
	if *summarizeF {
		if err := cfg.ValidateSummarize(); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		claude := summarize.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		defer claude.Close()
		sum = summarize.New(claude, cfg.Summarize(), log)
	}

	files, err := batch.Collect(roots...)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		printError("Error: no supported files under %s\n", strings.Join(roots, ", "))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting batch", "files", len(files), "workers", *workers, "formatters", pipe.String(), "summarize", *summarizeF, "skip_done", *skipDone)
	report, err := batch.NewRunner(conv, sum, log).Run(ctx, files, batch.Options{
		OutputDir: outputDir,
		Outputs:   writers,
		Workers:   *workers,
		Summarize: *summarizeF,
		SkipDone:  *skipDone,
		Pause:     *pause,
	})
	if report != nil {
		for _, f := range report.Files {
			if f.Err != nil {
				fmt.Printf("FAIL %s: %v\n", f.Input, f.Err)
				continue
			}
			if f.Skipped {
				fmt.Printf("skip %s (outputs exist)\n", f.Input)
				continue
			}
			fmt.Printf("ok   %s (%s, %d sections)\n", f.Input, f.Strategy, f.Sections)
			for _, out := range f.Outputs {
				fmt.Printf("     -> %s\n", out)
			}
		}
		converted := len(report.Files) - report.Failed() - report.Skipped()
		fmt.Printf("%d converted, %d skipped, %d failed\n", converted, report.Skipped(), report.Failed())
	}
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if report.Failed() > 0 {
		os.Exit(2)
	}
}

func formatterNames() string {
	names := format.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
