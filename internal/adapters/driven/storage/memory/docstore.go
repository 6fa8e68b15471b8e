package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/shelf/internal/core/domain"
	"github.com/custodia-labs/shelf/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	byPath    map[string]string
	order     []string
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		byPath:    make(map[string]string),
	}
}

// ListAll returns every document in insertion order.
func (s *DocumentStore) ListAll(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, s.documents[id])
	}
	return docs, nil
}

// FindByPath returns the document at path.
func (s *DocumentStore) FindByPath(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// Create stores a new document.
func (s *DocumentStore) Create(_ context.Context, doc domain.Document) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkNew(doc); err != nil {
		return nil, err
	}
	s.insert(doc)
	return &doc, nil
}

// CreateBatch stores all documents or none.
func (s *DocumentStore) CreateBatch(_ context.Context, docs []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if err := s.checkNew(doc); err != nil {
			return err
		}
		if seen[doc.Path] || seen[doc.ID] {
			return domain.ErrAlreadyExists
		}
		seen[doc.Path] = true
		seen[doc.ID] = true
	}
	for _, doc := range docs {
		s.insert(doc)
	}
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListByFormat returns the documents of one format in insertion order.
func (s *DocumentStore) ListByFormat(_ context.Context, format domain.Format) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, id := range s.order {
		if doc := s.documents[id]; doc.Format == format {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Formats returns the distinct formats present, sorted.
func (s *DocumentStore) Formats(_ context.Context) ([]domain.Format, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var formats []domain.Format
	for _, doc := range s.documents {
		if !slices.Contains(formats, doc.Format) {
			formats = append(formats, doc.Format)
		}
	}
	slices.Sort(formats)
	return formats, nil
}

// Touch records an access time.
func (s *DocumentStore) Touch(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.LastAccessed = &at
	s.documents[id] = doc
	return nil
}

// checkNew reports whether doc conflicts with a stored document (caller must hold lock).
func (s *DocumentStore) checkNew(doc domain.Document) error {
	if _, ok := s.documents[doc.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if _, ok := s.byPath[doc.Path]; ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

// insert adds doc (caller must hold lock).
func (s *DocumentStore) insert(doc domain.Document) {
	s.documents[doc.ID] = doc
	s.byPath[doc.Path] = doc.ID
	s.order = append(s.order, doc.ID)
}
