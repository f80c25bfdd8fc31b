package summary

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeDocuments struct {
	summaries map[uuid.UUID]string
}

func newFakeDocuments() *fakeDocuments { return &fakeDocuments{summaries: map[uuid.UUID]string{}} }

func (f *fakeDocuments) Create(context.Context, rag.Document) error { return nil }
func (f *fakeDocuments) Update(context.Context, rag.Document) error { return nil }
func (f *fakeDocuments) UpdateStatus(context.Context, uuid.UUID, rag.DocumentStatus, rag.ProcessingInfo) error {
	return nil
}
func (f *fakeDocuments) Get(context.Context, uuid.UUID, uuid.UUID) (rag.Document, bool, error) {
	return rag.Document{}, false, nil
}
func (f *fakeDocuments) List(context.Context, uuid.UUID, rag.DocumentFilter) ([]rag.Document, int, error) {
	return nil, 0, nil
}
func (f *fakeDocuments) FindByContentHash(context.Context, uuid.UUID, string) (rag.Document, bool, error) {
	return rag.Document{}, false, nil
}
func (f *fakeDocuments) FindByUniqueIdentityHash(context.Context, uuid.UUID, string) (rag.Document, bool, error) {
	return rag.Document{}, false, nil
}
func (f *fakeDocuments) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (f *fakeDocuments) SetSummaryIfNull(_ context.Context, id uuid.UUID, s string, _ []float32) (bool, error) {
	if _, exists := f.summaries[id]; exists {
		return false, nil
	}
	f.summaries[id] = s
	return true, nil
}

type fakeVector struct{ upserts int }

func (f *fakeVector) UpsertChunks(context.Context, []rag.Chunk) error { return nil }
func (f *fakeVector) DeleteDocument(context.Context, uuid.UUID) error { return nil }
func (f *fakeVector) SearchChunks(context.Context, uuid.UUID, []float32, rag.RetrievalFilter, int) ([]rag.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeVector) UpsertDocumentEmbedding(context.Context, uuid.UUID, []float32) error {
	f.upserts++
	return nil
}
func (f *fakeVector) SearchDocuments(context.Context, uuid.UUID, []float32, int) ([]rag.ScoredDocument, error) {
	return nil, nil
}

type fakeEmbedder struct{ err error }

func (fakeEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) { return nil, nil }
func (fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error)     { return nil, nil }
func (f fakeEmbedder) SummarizeAndEmbed(context.Context, string) (string, []float32, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return "a concise summary", []float32{0.1, 0.2}, nil
}
func (fakeEmbedder) Dimension() int { return 2 }

func TestSummarizeWritesSummaryAndIndexesEmbedding(t *testing.T) {
	docs := newFakeDocuments()
	vec := &fakeVector{}
	svc := New(docs, vec, fakeEmbedder{}, discardLogger())

	docID := uuid.New()
	require.NoError(t, svc.Summarize(context.Background(), docID, "some long document text"))
	assert.Equal(t, "a concise summary", docs.summaries[docID])
	assert.Equal(t, 1, vec.upserts)
}

func TestSummarizeSkipsIndexingWhenAlreadySet(t *testing.T) {
	docs := newFakeDocuments()
	vec := &fakeVector{}
	svc := New(docs, vec, fakeEmbedder{}, discardLogger())

	docID := uuid.New()
	docs.summaries[docID] = "existing summary"

	require.NoError(t, svc.Summarize(context.Background(), docID, "text"))
	assert.Equal(t, 0, vec.upserts)
}

func TestSummarizePropagatesEmbedderFailure(t *testing.T) {
	docs := newFakeDocuments()
	vec := &fakeVector{}
	svc := New(docs, vec, fakeEmbedder{err: assert.AnError}, discardLogger())

	err := svc.Summarize(context.Background(), uuid.New(), "text")
	assert.Error(t, err)
}
