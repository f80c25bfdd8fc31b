package graphindex

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func entityChunk(collectionID, documentID uuid.UUID, names ...string) rag.Chunk {
	c := rag.Chunk{ID: uuid.New(), DocumentID: documentID, CollectionID: collectionID}
	for _, n := range names {
		c.Annotations = append(c.Annotations, rag.ChunkAnnotation{Type: "entity", Fields: map[string]string{"name": n}})
	}
	return c
}

func TestGraphIndexSearchByEntitiesScoresSharedEntities(t *testing.T) {
	ctx := context.Background()
	idx := NewGraphIndex()
	collectionID := uuid.New()

	chunkA := entityChunk(collectionID, uuid.New(), "acme corp", "jane doe")
	chunkB := entityChunk(collectionID, uuid.New(), "acme corp")
	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{chunkA, chunkB}))

	results, err := idx.SearchByEntities(ctx, collectionID, []string{"acme corp", "jane doe"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, chunkA.ID, results[0].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestGraphIndexSearchByEntitiesIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	idx := NewGraphIndex()
	collectionID := uuid.New()

	chunk := entityChunk(collectionID, uuid.New(), "Acme Corp")
	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{chunk}))

	results, err := idx.SearchByEntities(ctx, collectionID, []string{"ACME CORP"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestGraphIndexDeleteDocumentRemovesChunks(t *testing.T) {
	ctx := context.Background()
	idx := NewGraphIndex()
	collectionID := uuid.New()
	docID := uuid.New()

	chunk := entityChunk(collectionID, docID, "acme corp")
	require.NoError(t, idx.IndexChunks(ctx, []rag.Chunk{chunk}))
	require.NoError(t, idx.DeleteDocument(ctx, docID))

	results, err := idx.SearchByEntities(ctx, collectionID, []string{"acme corp"}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGraphIndexSearchByEntitiesNoMatchesReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	idx := NewGraphIndex()
	collectionID := uuid.New()

	results, err := idx.SearchByEntities(ctx, collectionID, []string{"nothing"}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
