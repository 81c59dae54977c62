package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/papergest/internal/config"
	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/pipeline"
	"github.com/dgallion1/papergest/internal/summarize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for papergest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	conv         *convert.Converter
	summarizer   *summarize.Summarizer
	formatters   format.Pipeline
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. summarizer may be nil.
func NewServer(orch *pipeline.Orchestrator, conv *convert.Converter, summarizer *summarize.Summarizer, log *slog.Logger, cfg config.Config) (*Server, error) {
	formatters, err := cfg.FormatPipeline()
	if err != nil {
		return nil, err
	}
	s := &Server{
		orchestrator: orch,
		conv:         conv,
		summarizer:   summarizer,
		formatters:   formatters,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/format", s.handleFormat)

		r.Post("/api/jobs", s.handleCreateJob)
		r.Post("/api/jobs/batch", s.handleBatchJobs)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/document", s.handleJobDocument)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
