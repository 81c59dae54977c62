package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/papergest/internal/convert"
	"github.com/dgallion1/papergest/internal/doctree"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const paper = `A Tiny Paper

1 Introduction

The introduction explains the motivation for the work
in more than five words.

2 Method

The method section describes what we actually did.
`

func connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	s := New(convert.New(nil, nil), "test", nil)

	t1, t2 := sdkmcp.NewInMemoryTransports()
	if _, err := s.Server().Connect(ctx, t1, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callText(t *testing.T, session *sdkmcp.ClientSession, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      ToolExtractOutline,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text, res.IsError
}

func TestListTools(t *testing.T) {
	session := connect(t)
	tools, err := session.ListTools(context.Background(), &sdkmcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != ToolExtractOutline {
		t.Errorf("expected only %s, got %+v", ToolExtractOutline, tools.Tools)
	}
}

func TestExtractOutline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.txt")
	if err := os.WriteFile(path, []byte(paper), 0o644); err != nil {
		t.Fatal(err)
	}
	session := connect(t)

	text, isErr := callText(t, session, map[string]any{"path": path, "formatters": "del_break"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var doc doctree.Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Title != "A Tiny Paper" {
		t.Errorf("expected title %q, got %q", "A Tiny Paper", doc.Title)
	}
	if len(doc.Contents) != 2 || doc.Contents[1].Title != "2 Method" {
		t.Fatalf("unexpected contents %+v", doc.Contents)
	}
	if strings.Contains(doc.Contents[0].Texts[0], "\n") {
		t.Errorf("expected line breaks removed, got %q", doc.Contents[0].Texts[0])
	}
}

func TestExtractOutline_Errors(t *testing.T) {
	session := connect(t)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing path", map[string]any{"path": ""}, "path is required"},
		{"unknown formatter", map[string]any{"path": "x.txt", "formatters": "shout"}, "unknown formatter"},
		{"missing file", map[string]any{"path": filepath.Join(t.TempDir(), "none.txt")}, "open input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := callText(t, session, tt.args)
			if !isErr {
				t.Fatalf("expected tool error, got %s", text)
			}
			if !strings.Contains(text, tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, text)
			}
		})
	}
}
