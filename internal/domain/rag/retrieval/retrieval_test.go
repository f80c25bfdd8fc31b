package retrieval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

type fakeVectorIndex struct {
	chunks []rag.ScoredChunk
}

func (f fakeVectorIndex) UpsertChunks(context.Context, []rag.Chunk) error { return nil }
func (f fakeVectorIndex) DeleteDocument(context.Context, uuid.UUID) error { return nil }
func (f fakeVectorIndex) SearchChunks(context.Context, uuid.UUID, []float32, rag.RetrievalFilter, int) ([]rag.ScoredChunk, error) {
	return f.chunks, nil
}
func (f fakeVectorIndex) UpsertDocumentEmbedding(context.Context, uuid.UUID, []float32) error {
	return nil
}
func (f fakeVectorIndex) SearchDocuments(context.Context, uuid.UUID, []float32, int) ([]rag.ScoredDocument, error) {
	return nil, nil
}

type fakeKeywordIndex struct {
	chunks []rag.ScoredChunk
}

func (f fakeKeywordIndex) IndexChunks(context.Context, []rag.Chunk) error { return nil }
func (f fakeKeywordIndex) DeleteDocument(context.Context, uuid.UUID) error { return nil }
func (f fakeKeywordIndex) Search(context.Context, uuid.UUID, string, rag.RetrievalFilter, int) ([]rag.ScoredChunk, error) {
	return f.chunks, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) { return nil, nil }
func (fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error)     { return []float32{0.1, 0.2}, nil }
func (fakeEmbedder) SummarizeAndEmbed(context.Context, string) (string, []float32, error) {
	return "", nil, nil
}
func (fakeEmbedder) Dimension() int { return 2 }

func chunk(id uuid.UUID, index int) rag.Chunk {
	return rag.Chunk{ID: id, ChunkIndex: index, DocumentID: uuid.New()}
}

func TestRetrieveSemanticReturnsEmptyForEmptyCollection(t *testing.T) {
	engine := New(fakeVectorIndex{}, nil, nil, fakeEmbedder{}, nil, nil, nil)
	resp, err := engine.Retrieve(context.Background(), Request{Query: "hi", Mode: ModeSemantic, TopK: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalResults)
	assert.Empty(t, resp.Results)
}

func TestRetrieveHybridFusesAndOrdersByScore(t *testing.T) {
	c0, c1, c2 := uuid.New(), uuid.New(), uuid.New()
	semantic := []rag.ScoredChunk{
		{Chunk: rag.Chunk{ID: c0, ChunkIndex: 0}, Score: 0.9},
		{Chunk: rag.Chunk{ID: c1, ChunkIndex: 1}, Score: 0.8},
		{Chunk: rag.Chunk{ID: c2, ChunkIndex: 2}, Score: 0.7},
	}
	keyword := []rag.ScoredChunk{
		{Chunk: rag.Chunk{ID: c0, ChunkIndex: 0}, Score: 0.5},
		{Chunk: rag.Chunk{ID: c1, ChunkIndex: 1}, Score: 0.9},
		{Chunk: rag.Chunk{ID: c2, ChunkIndex: 2}, Score: 0.6},
	}
	engine := New(fakeVectorIndex{chunks: semantic}, fakeKeywordIndex{chunks: keyword}, nil, fakeEmbedder{}, nil, nil, nil)
	resp, err := engine.Retrieve(context.Background(), Request{Query: "q", Mode: ModeHybrid, TopK: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	for i := 0; i < len(resp.Results)-1; i++ {
		assert.GreaterOrEqual(t, resp.Results[i].Score, resp.Results[i+1].Score)
	}
	assert.Equal(t, 1.0, resp.Results[0].Score, "top fused score normalizes to 1.0")
}

func TestRetrieveUnknownModeErrors(t *testing.T) {
	engine := New(fakeVectorIndex{}, nil, nil, fakeEmbedder{}, nil, nil, nil)
	_, err := engine.Retrieve(context.Background(), Request{Query: "q", Mode: "bogus"})
	assert.Error(t, err)
}
