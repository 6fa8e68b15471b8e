package mcp

import (
	"context"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	record  *domain.QueryRecord
	results []domain.SearchResult
	history []domain.QueryRecord
	err     error

	lastRequest domain.SearchRequest
	lastUser    string
	lastLimit   int
}

func (m *mockSearchService) Search(
	_ context.Context,
	req domain.SearchRequest,
) (*domain.QueryRecord, []domain.SearchResult, error) {
	m.lastRequest = req
	return m.record, m.results, m.err
}

func (m *mockSearchService) Get(
	_ context.Context,
	userID, _ string,
) (*domain.QueryRecord, []domain.SearchResult, error) {
	m.lastUser = userID
	return m.record, m.results, m.err
}

func (m *mockSearchService) History(_ context.Context, userID string, limit int) ([]domain.QueryRecord, error) {
	m.lastUser = userID
	m.lastLimit = limit
	return m.history, m.err
}

func (m *mockSearchService) Delete(_ context.Context, userID, _ string) error {
	m.lastUser = userID
	return m.err
}

// mockLibraryService is a mock implementation of driving.LibraryService.
type mockLibraryService struct {
	documents []domain.Document
	err       error
}

func (m *mockLibraryService) Scan(context.Context) (*driving.ScanReport, error) {
	return &driving.ScanReport{}, m.err
}

func (m *mockLibraryService) List(context.Context, domain.Format) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockLibraryService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibraryService) Formats(context.Context) ([]domain.Format, error) {
	return nil, m.err
}

func (m *mockLibraryService) Open(context.Context, string) (*domain.Document, string, error) {
	return nil, "", m.err
}
