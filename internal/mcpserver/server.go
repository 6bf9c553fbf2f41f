// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Chronicler tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shihwesley/chronicler-sub000/internal/docservice"
	"github.com/shihwesley/chronicler-sub000/internal/models"
)

// Server wraps the MCP server with Chronicler tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Chronicler tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Chronicler",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a component document."),
		mcp.WithString("location", mcp.Required(), mcp.Description("Relative location of the document (e.g. services/auth.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List every indexed document with its component identity."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a link target against the local index, falling back "+
			"to the remote component registry when configured. Notations: direct "+
			"(comp:// scheme), bracketed ([[identity]]), inline ([label](path.md))."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Component identity, or document location for inline links")),
		mcp.WithString("notation", mcp.Description("Link notation: direct, bracketed (default), or inline")),
		mcp.WithString("subreference", mcp.Description("Optional subreference within the target")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents whose body links point at the specified component."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Component identity to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_forward_links",
		mcp.WithDescription("List the locally resolvable outgoing body links of a component."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Component identity")),
	), s.getForwardLinks)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the component dependency graph built from document headers."),
	), s.getGraph)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical Chronicler document format contract. "+
			"Call this before creating or updating documents to ensure correct structure."),
	), s.getDocumentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("chronicler://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical component document format that all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := req.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetDocument(ctx, location)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", location)), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var lines []string
	for _, item := range s.svc.ListDocuments(ctx) {
		if item.ComponentID != "" {
			lines = append(lines, fmt.Sprintf("%s\t%s", item.Location, item.ComponentID))
		} else {
			lines = append(lines, item.Location)
		}
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no documents indexed"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	notation := models.NotationBracketed
	switch n := req.GetString("notation", ""); n {
	case "", string(models.NotationBracketed):
	case string(models.NotationDirect):
		notation = models.NotationDirect
	case string(models.NotationInline):
		notation = models.NotationInline
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown notation: %s", n)), nil
	}

	res := s.svc.Resolve(ctx, models.Link{
		Notation:       notation,
		TargetIdentity: target,
		Subreference:   req.GetString("subreference", ""),
	})
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs := s.svc.Backlinks(ctx, id)
	if len(refs) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	out, _ := json.MarshalIndent(refs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getForwardLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs := s.svc.ForwardLinks(ctx, id)
	if len(refs) == 0 {
		return mcp.NewToolResultText("no forward links found"), nil
	}
	out, _ := json.MarshalIndent(refs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Graph(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "chronicler://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
