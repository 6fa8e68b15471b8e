package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

func TestSearchStore_CreateAndGet(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()

	rec := domain.QueryRecord{ID: "q-1", Query: "fox", UserID: "alice", CreatedAt: time.Now()}
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "fox", got.Query)
	assert.Equal(t, 0, got.ResultCount)

	assert.ErrorIs(t, store.Create(ctx, rec), domain.ErrAlreadyExists)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchStore_SaveMatches_OrderAndCount(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.QueryRecord{ID: "q-1", UserID: "alice"}))

	err := store.SaveMatches(ctx, "q-1", []domain.MatchRecord{
		{DocumentID: "d-high", Score: 0.5, Rank: 0},
		{DocumentID: "d-tie-a", Score: 0.25, Rank: 1},
		{DocumentID: "d-tie-b", Score: 0.25, Rank: 2},
	})
	require.NoError(t, err)

	matches, err := store.Matches(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "d-high", matches[0].DocumentID)
	assert.Equal(t, "d-tie-a", matches[1].DocumentID)
	assert.Equal(t, "d-tie-b", matches[2].DocumentID)
	assert.Equal(t, "q-1", matches[0].QueryID)

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.ResultCount)
}

func TestSearchStore_SaveMatches_DuplicateDocumentRejected(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.QueryRecord{ID: "q-1"}))

	err := store.SaveMatches(ctx, "q-1", []domain.MatchRecord{
		{DocumentID: "d-1", Score: 1},
		{DocumentID: "d-1", Score: 2},
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	matches, err := store.Matches(ctx, "q-1")
	require.NoError(t, err)
	assert.Empty(t, matches, "nothing is written when the batch fails")
}

func TestSearchStore_SaveMatches_UnknownQuery(t *testing.T) {
	store := NewSearchStore()

	err := store.SaveMatches(context.Background(), "nope", []domain.MatchRecord{{DocumentID: "d"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchStore_SaveSearch(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()
	record := domain.QueryRecord{ID: "q-1", Query: "fox", UserID: "alice"}

	require.NoError(t, store.SaveSearch(ctx, record, []domain.MatchRecord{
		{DocumentID: "d-1", Score: 0.5, Rank: 0},
		{DocumentID: "d-2", Score: 0.1, Rank: 1},
	}))

	got, err := store.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.ResultCount)

	matches, err := store.Matches(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "q-1", matches[0].QueryID)

	assert.ErrorIs(t, store.SaveSearch(ctx, record, nil), domain.ErrAlreadyExists)
}

func TestSearchStore_SaveSearch_DuplicateDocumentWritesNothing(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()

	err := store.SaveSearch(ctx, domain.QueryRecord{ID: "q-1", UserID: "alice"}, []domain.MatchRecord{
		{DocumentID: "d-1", Score: 1},
		{DocumentID: "d-1", Score: 2},
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = store.Get(ctx, "q-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	history, err := store.ListByUser(ctx, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSearchStore_ListByUser(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, domain.QueryRecord{
			ID:        fmt.Sprintf("alice-%d", i),
			UserID:    "alice",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Create(ctx, domain.QueryRecord{ID: "bob-0", UserID: "bob", CreatedAt: base}))

	records, err := store.ListByUser(ctx, "alice", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "alice-4", records[0].ID)
	assert.Equal(t, "alice-3", records[1].ID)
	assert.Equal(t, "alice-2", records[2].ID)

	bob, err := store.ListByUser(ctx, "bob", 10)
	require.NoError(t, err)
	assert.Len(t, bob, 1)
}

func TestSearchStore_DeleteCascades(t *testing.T) {
	store := NewSearchStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, domain.QueryRecord{ID: "q-1"}))
	require.NoError(t, store.SaveMatches(ctx, "q-1", []domain.MatchRecord{{DocumentID: "d-1", Score: 1}}))

	require.NoError(t, store.Delete(ctx, "q-1"))

	_, err := store.Get(ctx, "q-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	matches, err := store.Matches(ctx, "q-1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
