package vectorindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func TestMemoryVectorIndexSearchChunksRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex()
	collectionID := uuid.New()
	docA, docB := uuid.New(), uuid.New()

	require.NoError(t, idx.UpsertChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docA, CollectionID: collectionID, ChunkIndex: 0, Embedding: []float32{1, 0, 0}},
	}))
	require.NoError(t, idx.UpsertChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docB, CollectionID: collectionID, ChunkIndex: 0, Embedding: []float32{0, 1, 0}},
	}))

	results, err := idx.SearchChunks(ctx, collectionID, []float32{1, 0, 0}, rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, docA, results[0].Chunk.DocumentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestMemoryVectorIndexSearchChunksFiltersByCollectionAndDocumentIDs(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex()
	collectionA, collectionB := uuid.New(), uuid.New()
	docA, docB := uuid.New(), uuid.New()

	require.NoError(t, idx.UpsertChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docA, CollectionID: collectionA, ChunkIndex: 0, Embedding: []float32{1, 0}},
	}))
	require.NoError(t, idx.UpsertChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docB, CollectionID: collectionB, ChunkIndex: 0, Embedding: []float32{1, 0}},
	}))

	results, err := idx.SearchChunks(ctx, collectionA, []float32{1, 0}, rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, docA, results[0].Chunk.DocumentID)

	results, err = idx.SearchChunks(ctx, collectionA, []float32{1, 0}, rag.RetrievalFilter{DocumentIDs: []uuid.UUID{docB}}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryVectorIndexDeleteDocumentRemovesChunksAndEmbedding(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex()
	collectionID := uuid.New()
	docID := uuid.New()

	require.NoError(t, idx.UpsertChunks(ctx, []rag.Chunk{
		{ID: uuid.New(), DocumentID: docID, CollectionID: collectionID, ChunkIndex: 0, Embedding: []float32{1, 0}},
	}))
	require.NoError(t, idx.UpsertDocumentEmbedding(ctx, docID, []float32{1, 0}))

	require.NoError(t, idx.DeleteDocument(ctx, docID))

	chunkResults, err := idx.SearchChunks(ctx, collectionID, []float32{1, 0}, rag.RetrievalFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, chunkResults)

	docResults, err := idx.SearchDocuments(ctx, collectionID, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, docResults)
}

func TestMemoryVectorIndexSearchDocumentsTopN(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryVectorIndex()
	collectionID := uuid.New()

	for i := 0; i < 5; i++ {
		docID := uuid.New()
		idx.documentToCollec[docID] = collectionID
		require.NoError(t, idx.UpsertDocumentEmbedding(ctx, docID, []float32{1, 0}))
	}

	results, err := idx.SearchDocuments(ctx, collectionID, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}
