// Package mcpserver exposes outline extraction as an MCP tool.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/format"
	"github.com/dgallion1/papergest/internal/writer"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolExtractOutline is the name of the single registered tool.
const ToolExtractOutline = "extract_outline"

var extractSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "Path of a PDF, DOCX, HTML, Markdown or text file on the server's filesystem",
		},
		"formatters": map[string]any{
			"type":        "string",
			"description": "Comma-separated text formatters, e.g. del_break,dehyphenate",
		},
	},
	"required": []string{"path"},
}

type extractArgs struct {
	Path       string `json:"path"`
	Formatters string `json:"formatters"`
}

// Server wraps an MCP server with the papergest tools registered.
type Server struct {
	server *sdkmcp.Server
	conv   *convert.Converter
	log    *slog.Logger
}

// New creates the MCP server and registers its tools.
func New(conv *convert.Converter, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		server: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "papergest", Version: version}, nil),
		conv:   conv,
		log:    log,
	}
	s.server.AddTool(&sdkmcp.Tool{
		Name:        ToolExtractOutline,
		Description: "Reconstruct the section outline of a document and return it as JSON with the prose of each section.",
		InputSchema: extractSchema,
	}, s.handleExtract)
	return s
}

// Server returns the underlying SDK server.
func (s *Server) Server() *sdkmcp.Server {
	return s.server
}

// ServeStdio serves over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) handleExtract(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args extractArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}
	if args.Path == "" {
		return errorResult(errors.New("path is required")), nil
	}
	pipe, err := format.Parse(args.Formatters)
	if err != nil {
		return errorResult(err), nil
	}

	res, err := s.conv.WithFormatters(pipe).ConvertFile(ctx, args.Path)
	if err != nil {
		s.log.Warn("extract outline failed", "path", args.Path, "error", err)
		return errorResult(err), nil
	}

	var buf bytes.Buffer
	if err := (writer.JSON{}).Write(&buf, res.Document); err != nil {
		return errorResult(err), nil
	}
	s.log.Info("extracted outline", "path", args.Path, "strategy", res.Strategy, "sections", len(res.Document.Contents))
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: buf.String()}},
	}, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
