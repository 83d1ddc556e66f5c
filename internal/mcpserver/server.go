// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dox documentation tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/docservice"
)

// ContentFormatURI is the resource holding ContentFormatContract.
const ContentFormatURI = "dox://content-format"

// Server wraps the MCP server with dox tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all dox tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"dox",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_docs",
		mcp.WithDescription("Full-text search through documentation titles, descriptions and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocs)

	s.mcp.AddTool(mcp.NewTool("read_doc",
		mcp.WithDescription("Read a documentation page as Markdown, with snippets rendered."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Page path, e.g. /guides/setup or / for the home page")),
	), s.readDoc)

	s.mcp.AddTool(mcp.NewTool("list_docs",
		mcp.WithDescription("List the documentation pages: registered pages first, then pages found in the content roots."),
	), s.listDocs)

	s.mcp.AddTool(mcp.NewTool("get_navigation",
		mcp.WithDescription("Return the sidebar navigation as JSON, including the API reference."),
		mcp.WithString("lang", mcp.Description("Language code (defaults to the site language)")),
	), s.getNavigation)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the dox document format contract. "+
			"Call this before writing documentation sources to ensure correct structure."),
	), s.getContentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource(ContentFormatURI, "Content Format Contract",
			mcp.WithResourceDescription("Document source format: frontmatter fields, snippet imports and file layout."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
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

func (s *Server) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDoc(ctx, strings.Split(strings.Trim(path, "/"), "/"), "")
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := htmltomarkdown.ConvertString(doc.HTML)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("convert %s: %v", path, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	if doc.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Description)
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteByte('\n')
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var lines []string
	for _, p := range s.svc.Pages() {
		lines = append(lines, fmt.Sprintf("%s\t%s", p.Href, p.Title))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNavigation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lang := req.GetString("lang", "")
	out, err := json.MarshalIndent(s.svc.Navigation(ctx, lang, ""), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getContentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readContentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
