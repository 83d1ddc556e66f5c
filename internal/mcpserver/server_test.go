package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dox/internal/index"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc, _ := testutil.TestService(t)
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_docs":
		result, err = srv.searchDocs(ctx, req)
	case "read_doc":
		result, err = srv.readDoc(ctx, req)
	case "list_docs":
		result, err = srv.listDocs(ctx, req)
	case "get_navigation":
		result, err = srv.getNavigation(ctx, req)
	case "get_content_contract":
		result, err = srv.getContentContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

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

func TestReadDoc(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_doc", map[string]any{"path": "/setup"})
	if r.IsError {
		t.Fatalf("read_doc error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.HasPrefix(text, "# Setup\n\nInstall dox.\n\n") {
		t.Errorf("read result = %q", text)
	}
	if !strings.Contains(text, "## Install") || !strings.Contains(text, "**installer**") {
		t.Errorf("body not converted to markdown: %q", text)
	}
}

func TestReadDocRoot(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_doc", map[string]any{"path": "/"})
	if r.IsError {
		t.Fatalf("read_doc error: %s", resultText(r))
	}
	if text := resultText(r); !strings.HasPrefix(text, "# Introduction") || !strings.Contains(text, "Welcome to dox.") {
		t.Errorf("read result = %q", text)
	}
}

func TestReadDocMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_doc", map[string]any{"path": "/nope"})
	if !r.IsError {
		t.Fatal("expected error for missing doc")
	}
	if text := resultText(r); text != "not found: /nope" {
		t.Errorf("error text = %q", text)
	}
}

func TestReadDocUnresolvedSnippet(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_doc", map[string]any{"path": "/broken"})
	if !r.IsError {
		t.Fatal("expected error for unresolved snippet")
	}
}

func TestReadDocRequiresPath(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_doc", map[string]any{})
	if !r.IsError {
		t.Error("expected error without path")
	}
}

func TestSearchDocs(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_docs", map[string]any{"query": "Welcome"})
	var hits []index.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatalf("unmarshal %q: %v", resultText(r), err)
	}
	if len(hits) != 1 || hits[0].Href != "/" {
		t.Errorf("hits = %+v", hits)
	}

	// Dynamic pages become searchable once compiled.
	callTool(t, srv, "read_doc", map[string]any{"path": "setup"})
	r = callTool(t, srv, "search_docs", map[string]any{"query": "installer"})
	hits = nil
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Href != "/setup" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestListDocs(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_docs", map[string]any{})
	want := "/\tIntroduction\n/broken\tBroken\n/setup\tSetup"
	if text := resultText(r); text != want {
		t.Errorf("list = %q, want %q", text, want)
	}
}

func TestGetNavigation(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_navigation", map[string]any{"lang": "en"})
	var cols []models.SidebarCollection
	if err := json.Unmarshal([]byte(resultText(r)), &cols); err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 {
		t.Fatalf("collections = %d, want 2", len(cols))
	}
	if items := cols[0].Sections[0].Items; len(items) != 2 || items[0].Href != "/" || items[1].Href != "/setup" {
		t.Errorf("guides items = %+v", items)
	}
	if cols[1].ID != "api" || len(cols[1].Sections) != 1 || cols[1].Sections[0].Title != "Users" {
		t.Errorf("api collection = %+v", cols[1])
	}
}

func TestContentContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_content_contract", map[string]any{})
	if resultText(r) != ContentFormatContract {
		t.Error("contract tool returned unexpected text")
	}

	contents, err := srv.readContentFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != ContentFormatURI || tc.Text != ContentFormatContract {
		t.Errorf("resource = %+v", contents[0])
	}
}
