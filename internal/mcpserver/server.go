// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the converted site to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/siteservice"
)

const syntaxURI = "logpress://syntax"

// Server wraps the MCP server with site tools.
type Server struct {
	mcp *server.MCPServer
	svc *siteservice.Service
}

// New creates a new MCP server with all tools registered. version is
// reported to clients.
func New(svc *siteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Logpress",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through converted pages."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read a converted page, front matter included."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Output path of the page (e.g. Alpha.md or journals/2024-01-15.md)")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Show which page a [[reference]] resolves to and by which rule "+
			"(exact, alias, namespace, prefix or stub)."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Reference text without brackets")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("run_query",
		mcp.WithDescription("Evaluate a query expression against the latest build, "+
			"e.g. (and (page-tags project) (task TODO)). Read "+syntaxURI+" for the supported forms."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Query expression")),
	), s.runQuery)

	s.mcp.AddTool(mcp.NewTool("list_stubs",
		mcp.WithDescription("List stub pages created for references that match no page."),
	), s.listStubs)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Link target of the page (output path without .md)")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_syntax_guide",
		mcp.WithDescription("Returns the guide to the outline syntax the converter understands."),
	), s.getSyntaxGuide)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Outline Syntax",
			mcp.WithResourceDescription("Supported outline syntax and what it converts to."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, q, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no pages found"), nil
	}
	return jsonResult(results)
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.GetPage(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(page.Content), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, strings.Trim(ref, "[]"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) runQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Query(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Markdown), nil
}

func (s *Server) listStubs(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stubs, err := s.svc.Stubs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(stubs) == 0 {
		return mcp.NewToolResultText("no stubs"), nil
	}
	paths := make([]string, len(stubs))
	for i, st := range stubs {
		paths[i] = st.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Backlinks(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	sources := make([]string, len(links))
	for i, l := range links {
		sources[i] = l.Source
	}
	return mcp.NewToolResultText(strings.Join(sources, "\n")), nil
}

func (s *Server) getSyntaxGuide(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SyntaxGuide), nil
}

func (s *Server) readSyntaxResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     SyntaxGuide,
		},
	}, nil
}
