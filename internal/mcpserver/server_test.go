package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/logpress/internal/convert"
	"github.com/starford/logpress/internal/siteservice"
	"github.com/starford/logpress/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, in := testutil.TestGraph(t, map[string]string{
		"pages/Alpha.md": "alias:: al\ntags:: project\n\n- uniquetoken links to [[Ghost]]\n",
		"pages/Beta.md":  "tags:: project\n\n- see [[Alpha]]\n",
	})
	out := testutil.TestOutput(t)
	db := testutil.TestDB(t)
	opts := convert.Options{PagesDir: "pages", CreateStubs: true}
	res, err := convert.New(in, out, opts, testutil.Logger(), convert.WithCatalog(db)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	svc := siteservice.NewService(out, db)
	svc.Publish(res.Snapshot)
	return New(svc, "test")
}

// callTool invokes a handler directly; mcp-go has no in-process call helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_pages":     srv.searchPages,
		"read_page":        srv.readPage,
		"resolve_link":     srv.resolveLink,
		"run_query":        srv.runQuery,
		"list_stubs":       srv.listStubs,
		"get_backlinks":    srv.getBacklinks,
		"get_syntax_guide": srv.getSyntaxGuide,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadPage(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_page", map[string]any{"path": "Alpha.md"})
	if text := resultText(r); !strings.HasPrefix(text, "---\ntitle: Alpha\n") {
		t.Errorf("read result = %q", text)
	}

	r = callTool(t, srv, "read_page", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing page")
	}
}

func TestSearchPages(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "search_pages", map[string]any{"query": "uniquetoken"})
	if text := resultText(r); !strings.Contains(text, `"path": "Alpha.md"`) {
		t.Errorf("search result = %q", text)
	}
	r = callTool(t, srv, "search_pages", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestResolveLink(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "resolve_link", map[string]any{"ref": "[[al]]"})
	var res siteservice.Resolution
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if res.Target != "Alpha" || res.Kind.String() != "alias" {
		t.Errorf("resolution = %+v", res)
	}
}

func TestRunQuery(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "run_query", map[string]any{"query": "(page-tags project)"})
	text := resultText(r)
	if !strings.Contains(text, "| [[Alpha]] |") || !strings.Contains(text, "| [[Beta]] |") {
		t.Errorf("query result = %q", text)
	}

	r = callTool(t, srv, "run_query", map[string]any{"query": "(bogus"})
	if !r.IsError {
		t.Error("expected error for malformed query")
	}
}

func TestListStubsAndBacklinks(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "list_stubs", nil)); text != "ghost.md" {
		t.Errorf("stubs = %q", text)
	}
	if text := resultText(callTool(t, srv, "get_backlinks", map[string]any{"target": "Alpha"})); text != "Beta.md" {
		t.Errorf("backlinks = %q, want Beta.md", text)
	}
	if text := resultText(callTool(t, srv, "get_backlinks", map[string]any{"target": "Beta"})); text != "no backlinks found" {
		t.Errorf("backlinks = %q", text)
	}
}

func TestSyntaxGuide(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "get_syntax_guide", nil)); text != SyntaxGuide {
		t.Error("guide mismatch")
	}
	contents, err := srv.readSyntaxResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != syntaxURI {
		t.Errorf("resource = %+v", contents[0])
	}
}
