package keywordindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func TestBM25IndexSearchRanksExactTermMatchHigher(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	collectionID := uuid.New()

	chunkA := rag.Chunk{ID: uuid.New(), DocumentID: uuid.New(), CollectionID: collectionID, Content: "quarterly revenue grew significantly this quarter"}
	chunkB := rag.Chunk{ID: uuid.New(), DocumentID: uuid.New(), CollectionID: collectionID, Content: "the weather was sunny all week"}
	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{chunkA, chunkB}))

	results, err := idx.Search(ctx, collectionID, "quarterly revenue", rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, chunkA.ID, results[0].Chunk.ID)
}

func TestBM25IndexSearchFiltersByDocumentIDs(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	collectionID := uuid.New()
	docA, docB := uuid.New(), uuid.New()

	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docA, CollectionID: collectionID, Content: "alpha beta gamma"},
		{ID: uuid.New(), DocumentID: docB, CollectionID: collectionID, Content: "alpha beta gamma"},
	}))

	results, err := idx.Search(ctx, collectionID, "alpha", rag.RetrievalFilter{DocumentIDs: []uuid.UUID{docA}}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, docA, results[0].Chunk.DocumentID)
}

func TestBM25IndexDeleteDocumentRemovesChunks(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	collectionID := uuid.New()
	docID := uuid.New()

	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docID, CollectionID: collectionID, Content: "unique searchable term"},
	}))
	require.NoError(t, idx.DeleteDocument(ctx, docID))

	results, err := idx.Search(ctx, collectionID, "unique", rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBM25IndexReindexingChunkReplacesPostings(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	collectionID := uuid.New()
	chunkID := uuid.New()
	docID := uuid.New()

	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{
		{ID: chunkID, DocumentID: docID, CollectionID: collectionID, Content: "original wording here"},
	}))
	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{
		{ID: chunkID, DocumentID: docID, CollectionID: collectionID, Content: "updated phrasing now"},
	}))

	results, err := idx.Search(ctx, collectionID, "original", rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(ctx, collectionID, "updated", rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}
