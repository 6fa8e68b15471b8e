package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

// UserHeader names the HTTP header identifying the caller of a tool when
// the server is reached over HTTP. It is the header the REST API trusts.
const UserHeader = "X-User-ID"

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"text to find inside the books, matched case-insensitively"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results to return (default 50)"`
}

// SearchOutput is the output schema for the search and get_search tools.
type SearchOutput struct {
	SearchID string               `json:"search_id"`
	Query    string               `json:"query"`
	Results  []SearchResultOutput `json:"results"`
	Count    int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Author     string  `json:"author,omitempty"`
	Path       string  `json:"path"`
	Format     string  `json:"format"`
	Relevance  float64 `json:"relevance"`
	Context    string  `json:"context,omitempty"`
}

// HistoryInput is the input schema for the search_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of past searches to return (default 10)"`
}

// HistoryOutput is the output schema for the search_history tool.
type HistoryOutput struct {
	Searches []HistoryEntry `json:"searches"`
}

// HistoryEntry summarises one past search.
type HistoryEntry struct {
	SearchID    string    `json:"search_id"`
	Query       string    `json:"query"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"result_count"`
}

// GetSearchInput is the input schema for the get_search tool.
type GetSearchInput struct {
	SearchID string `json:"search_id" jsonschema:"identifier returned by an earlier search"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the full text of every book in the library",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_history",
		Description: "List recent searches, newest first",
	}, s.handleHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_search",
		Description: "Return the stored results of an earlier search",
	}, s.handleGetSearch)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	record, results, err := s.ports.Search.Search(ctx, domain.SearchRequest{
		Query:      input.Query,
		UserID:     s.caller(req),
		MaxResults: input.MaxResults,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, newSearchOutput(record, results), nil
}

// handleHistory handles the search_history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	records, err := s.ports.Search.History(ctx, s.caller(req), input.Limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	output := HistoryOutput{Searches: make([]HistoryEntry, len(records))}
	for i, r := range records {
		output.Searches[i] = HistoryEntry{
			SearchID:    r.ID,
			Query:       r.Query,
			Timestamp:   r.CreatedAt,
			ResultCount: r.ResultCount,
		}
	}
	return nil, output, nil
}

// handleGetSearch handles the get_search tool invocation.
func (s *Server) handleGetSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetSearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	record, results, err := s.ports.Search.Get(ctx, s.caller(req), input.SearchID)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, newSearchOutput(record, results), nil
}

// caller returns the user owning a tool call. Over HTTP it is the user named
// in UserHeader; over stdio, or when the header is absent, it is the
// configured user.
func (s *Server) caller(req *mcp.CallToolRequest) string {
	if req != nil && req.Extra != nil {
		if id := req.Extra.Header.Get(UserHeader); id != "" {
			return id
		}
	}
	return s.ports.user()
}

func newSearchOutput(record *domain.QueryRecord, results []domain.SearchResult) SearchOutput {
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	if record != nil {
		output.SearchID = record.ID
		output.Query = record.Query
	}

	for i := range results {
		doc := results[i].Document
		output.Results[i] = SearchResultOutput{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Author:     doc.Author,
			Path:       doc.Path,
			Format:     doc.Format.String(),
			Relevance:  results[i].Score,
			Context:    results[i].Snippet,
		}
	}
	return output
}
