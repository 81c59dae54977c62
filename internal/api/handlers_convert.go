package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/parser"
	"github.com/dgallion1/papergest/internal/writer"
)

// handleConvert converts one uploaded file synchronously.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.jobOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if opts.summarize {
		jsonError(w, "summarize is only available for async jobs", http.StatusBadRequest)
		return
	}
	out, err := outputWriter(r.FormValue("output"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename, data, status, err := s.readUpload(file, header.Filename)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	res, err := s.conv.WithFormatters(opts.formatters).Convert(r.Context(), bytes.NewReader(data), filename)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, parser.ErrUnsupported) {
			code = http.StatusBadRequest
		}
		s.log.Warn("convert failed", "file", filename, "error", err)
		jsonError(w, err.Error(), code)
		return
	}
	w.Header().Set("X-Outline-Strategy", string(res.Strategy))
	s.writeDocument(w, out, filename, res.Document)
}

type formatRequest struct {
	Document   json.RawMessage `json:"document"`
	Formatters string          `json:"formatters"`
}

// handleFormat re-applies formatters to an already converted document.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > s.cfg.MaxUploadBytes {
		jsonError(w, "body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var req formatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Document) == 0 {
		jsonError(w, "document is required", http.StatusBadRequest)
		return
	}
	doc, err := writer.DecodeDocument(req.Document)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	p, err := format.Parse(req.Formatters)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := (writer.JSON{}).Write(w, p.Apply(doc)); err != nil {
		s.log.Error("encode document", "error", err)
	}
}
