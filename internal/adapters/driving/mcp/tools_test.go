package mcp

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			record: &domain.QueryRecord{ID: "q-1", Query: "fox"},
			results: []domain.SearchResult{
				{
					Document: domain.Document{
						ID:     "doc-1",
						Title:  "Fox Tales",
						Author: "R. Fox",
						Path:   "/books/fox.epub",
						Format: domain.FormatEPUB,
					},
					Score:   0.4,
					Snippet: "the quick **fox**",
				},
			},
		}

		server, err := NewServer(&Ports{Search: mockSearch, UserID: "alice"})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "fox", MaxResults: 5})

		require.NoError(t, err)
		assert.Equal(t, "q-1", output.SearchID)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "Fox Tales", output.Results[0].Title)
		assert.Equal(t, "/books/fox.epub", output.Results[0].Path)
		assert.Equal(t, "epub", output.Results[0].Format)
		assert.Equal(t, 0.4, output.Results[0].Relevance)
		assert.Equal(t, "the quick **fox**", output.Results[0].Context)

		assert.Equal(t, domain.SearchRequest{Query: "fox", UserID: "alice", MaxResults: 5}, mockSearch.lastRequest)
	})

	t.Run("uses default user", func(t *testing.T) {
		mockSearch := &mockSearchService{record: &domain.QueryRecord{ID: "q"}}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "x"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, domain.DefaultUserID, mockSearch.lastRequest.UserID)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("search failed")}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleHistory(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	mockSearch := &mockSearchService{
		history: []domain.QueryRecord{
			{ID: "q-2", Query: "dune", CreatedAt: created, ResultCount: 3},
			{ID: "q-1", Query: "fox", CreatedAt: created.Add(-time.Hour)},
		},
	}
	server, err := NewServer(&Ports{Search: mockSearch, UserID: "alice"})
	require.NoError(t, err)

	_, output, err := server.handleHistory(context.Background(), nil, HistoryInput{Limit: 2})

	require.NoError(t, err)
	require.Len(t, output.Searches, 2)
	assert.Equal(t, "q-2", output.Searches[0].SearchID)
	assert.Equal(t, 3, output.Searches[0].ResultCount)
	assert.Equal(t, created, output.Searches[0].Timestamp)
	assert.Equal(t, "alice", mockSearch.lastUser)
	assert.Equal(t, 2, mockSearch.lastLimit)
}

func TestServer_handleGetSearch(t *testing.T) {
	t.Run("returns stored results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			record:  &domain.QueryRecord{ID: "q-1", Query: "fox"},
			results: []domain.SearchResult{{Document: domain.Document{ID: "doc-1"}, Score: 1}},
		}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleGetSearch(context.Background(), nil, GetSearchInput{SearchID: "q-1"})

		require.NoError(t, err)
		assert.Equal(t, "fox", output.Query)
		assert.Equal(t, 1, output.Count)
	})

	t.Run("not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{err: domain.ErrNotFound}})
		require.NoError(t, err)

		_, _, err = server.handleGetSearch(context.Background(), nil, GetSearchInput{SearchID: "nope"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func requestFrom(user string) *mcp.CallToolRequest {
	header := http.Header{}
	header.Set(UserHeader, user)
	return &mcp.CallToolRequest{Extra: &mcp.RequestExtra{Header: header}}
}

func TestServer_ToolsUseCallerFromHeader(t *testing.T) {
	ctx := context.Background()
	mockSearch := &mockSearchService{record: &domain.QueryRecord{ID: "q-1"}}
	server, err := NewServer(&Ports{Search: mockSearch, UserID: "alice"})
	require.NoError(t, err)

	_, _, err = server.handleSearch(ctx, requestFrom("bob"), SearchInput{Query: "fox"})
	require.NoError(t, err)
	assert.Equal(t, "bob", mockSearch.lastRequest.UserID)

	_, _, err = server.handleHistory(ctx, requestFrom("carol"), HistoryInput{})
	require.NoError(t, err)
	assert.Equal(t, "carol", mockSearch.lastUser)

	_, _, err = server.handleGetSearch(ctx, requestFrom("dave"), GetSearchInput{SearchID: "q-1"})
	require.NoError(t, err)
	assert.Equal(t, "dave", mockSearch.lastUser)

	_, _, err = server.handleHistory(ctx, &mcp.CallToolRequest{Extra: &mcp.RequestExtra{}}, HistoryInput{})
	require.NoError(t, err)
	assert.Equal(t, "alice", mockSearch.lastUser, "no header falls back to the configured user")
}
