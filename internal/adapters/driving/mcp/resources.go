package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for shelf resources.
const uriScheme = "shelf://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "books",
		Name:        "books",
		Description: "Every book in the library",
		MIMEType:    "application/json",
	}, s.handleBooksResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "books/{bookId}",
		Name:        "book",
		Description: "Metadata of a single book",
		MIMEType:    "application/json",
	}, s.handleBookResource)
}

// handleBooksResource lists the library.
func (s *Server) handleBooksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Library == nil {
		return jsonResource(req.Params.URI, []any{})
	}

	docs, err := s.ports.Library.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return jsonResource(req.Params.URI, docs)
}

// handleBookResource returns one book's metadata.
func (s *Server) handleBookResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Library == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractBookID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Library.Get(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, doc)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractBookID extracts the ID from a URI like shelf://books/{bookId}.
func extractBookID(uri string) string {
	const prefix = uriScheme + "books/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
