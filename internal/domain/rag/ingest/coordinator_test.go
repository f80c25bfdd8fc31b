package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
	"github.com/ragforge/ragcore/internal/domain/rag/classifier"
	"github.com/ragforge/ragcore/internal/domain/rag/parser"
)

type memDocs struct {
	byID          map[uuid.UUID]rag.Document
	byContentHash map[string]rag.Document
}

func newMemDocs() *memDocs {
	return &memDocs{byID: map[uuid.UUID]rag.Document{}, byContentHash: map[string]rag.Document{}}
}

func (m *memDocs) Create(_ context.Context, d rag.Document) error {
	m.byID[d.ID] = d
	m.byContentHash[d.ContentHash] = d
	return nil
}
func (m *memDocs) Update(_ context.Context, d rag.Document) error {
	m.byID[d.ID] = d
	m.byContentHash[d.ContentHash] = d
	return nil
}
func (m *memDocs) UpdateStatus(_ context.Context, id uuid.UUID, status rag.DocumentStatus, info rag.ProcessingInfo) error {
	d := m.byID[id]
	d.Status = status
	d.ProcessingInfo = info
	m.byID[id] = d
	return nil
}
func (m *memDocs) Get(_ context.Context, id, _ uuid.UUID) (rag.Document, bool, error) {
	d, ok := m.byID[id]
	return d, ok, nil
}
func (m *memDocs) List(context.Context, uuid.UUID, rag.DocumentFilter) ([]rag.Document, int, error) {
	return nil, 0, nil
}
func (m *memDocs) FindByContentHash(_ context.Context, _ uuid.UUID, hash string) (rag.Document, bool, error) {
	d, ok := m.byContentHash[hash]
	return d, ok, nil
}
func (m *memDocs) FindByUniqueIdentityHash(context.Context, uuid.UUID, string) (rag.Document, bool, error) {
	return rag.Document{}, false, nil
}
func (m *memDocs) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (m *memDocs) SetSummaryIfNull(context.Context, uuid.UUID, string, []float32) (bool, error) {
	return true, nil
}

type memChunks struct{ byDoc map[uuid.UUID][]rag.Chunk }

func newMemChunks() *memChunks { return &memChunks{byDoc: map[uuid.UUID][]rag.Chunk{}} }

func (m *memChunks) ReplaceForDocument(_ context.Context, docID uuid.UUID, chunks []rag.Chunk) error {
	m.byDoc[docID] = chunks
	return nil
}
func (m *memChunks) DeleteForDocument(_ context.Context, docID uuid.UUID) error {
	delete(m.byDoc, docID)
	return nil
}
func (m *memChunks) ListForDocument(_ context.Context, docID uuid.UUID) ([]rag.Chunk, error) {
	return m.byDoc[docID], nil
}
func (m *memChunks) Neighbors(context.Context, uuid.UUID, int) (*rag.Chunk, *rag.Chunk, error) {
	return nil, nil, nil
}

type memCollections struct{ byID map[uuid.UUID]rag.Collection }

func (m *memCollections) Create(context.Context, rag.Collection) error { return nil }
func (m *memCollections) Get(_ context.Context, id, _ uuid.UUID) (rag.Collection, bool, error) {
	c, ok := m.byID[id]
	return c, ok, nil
}
func (m *memCollections) List(context.Context, uuid.UUID, int, int) ([]rag.Collection, int, error) {
	return nil, 0, nil
}
func (m *memCollections) Update(context.Context, rag.Collection) error { return nil }
func (m *memCollections) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (m *memCollections) IncrementDocumentCount(context.Context, uuid.UUID, int) error { return nil }

type memStorage struct{ puts map[string][]byte }

func (m *memStorage) Put(_ context.Context, key string, data []byte, _ string) (rag.StoredObject, error) {
	m.puts[key] = data
	return rag.StoredObject{Key: key, Size: int64(len(data))}, nil
}
func (m *memStorage) Get(context.Context, string) (io.ReadCloser, error)    { return nil, nil }
func (m *memStorage) Delete(context.Context, string) error                 { return nil }
func (m *memStorage) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

type fakeEmbedder struct{ dim int }

func (f fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}
func (f fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, f.dim), nil
}
func (f fakeEmbedder) SummarizeAndEmbed(_ context.Context, text string) (string, []float32, error) {
	return text, make([]float32, f.dim), nil
}
func (f fakeEmbedder) Dimension() int { return f.dim }

type fakeVector struct{ upserts int }

func (f *fakeVector) UpsertChunks(context.Context, []rag.Chunk) error { f.upserts++; return nil }
func (f *fakeVector) DeleteDocument(context.Context, uuid.UUID) error { return nil }
func (f *fakeVector) SearchChunks(context.Context, uuid.UUID, []float32, rag.RetrievalFilter, int) ([]rag.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeVector) UpsertDocumentEmbedding(context.Context, uuid.UUID, []float32) error { return nil }
func (f *fakeVector) SearchDocuments(context.Context, uuid.UUID, []float32, int) ([]rag.ScoredDocument, error) {
	return nil, nil
}

func TestCoordinatorSubmitDedupesCompletedDocument(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs()
	collID := uuid.New()
	userID := uuid.New()
	co := New(Config{DefaultChunkTargetTokens: 200, DefaultChunkOverlap: 20}, &memCollections{byID: map[uuid.UUID]rag.Collection{collID: {ID: collID}}}, docs, newMemChunks(), &memStorage{puts: map[string][]byte{}}, fakeEmbedder{dim: 4}, &fakeVector{}, nil, nil, parser.NewRegistry(), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	content := []byte("hello world, this is a test document.")
	first, err := co.Submit(ctx, SubmitRequest{UserID: userID, CollectionID: collID, Filename: "a.txt", Content: content})
	require.NoError(t, err)

	completed := docs.byID[first.ID]
	completed.Status = rag.DocumentStatusCompleted
	docs.byID[first.ID] = completed
	docs.byContentHash[first.ContentHash] = completed

	second, err := co.Submit(ctx, SubmitRequest{UserID: userID, CollectionID: collID, Filename: "a.txt", Content: content})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCoordinatorProcessCompletesDocument(t *testing.T) {
	ctx := context.Background()
	docs := newMemDocs()
	chunksRepo := newMemChunks()
	collID := uuid.New()
	userID := uuid.New()
	storage := &memStorage{puts: map[string][]byte{}}
	vector := &fakeVector{}

	parsers := parser.NewRegistry(parser.TextParser{})
	general := classifier.GeneralProcessor{}
	registry := classifier.NewRegistry(classifier.DefaultThreshold, general)

	co := New(
		Config{DefaultChunkTargetTokens: 200, DefaultChunkOverlap: 20},
		&memCollections{byID: map[uuid.UUID]rag.Collection{collID: {ID: collID}}},
		docs, chunksRepo, storage, fakeEmbedder{dim: 4}, vector, nil, nil,
		parsers, registry, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	content := []byte("hello world, this is a test document with enough words to form a chunk.")
	doc, err := co.Submit(ctx, SubmitRequest{UserID: userID, CollectionID: collID, Filename: "a.txt", Content: content})
	require.NoError(t, err)

	err = co.Process(ctx, doc.ID, userID, content)
	require.NoError(t, err)

	final, found, err := docs.Get(ctx, doc.ID, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rag.DocumentStatusCompleted, final.Status)
	assert.Greater(t, len(chunksRepo.byDoc[doc.ID]), 0)
	assert.Equal(t, 1, vector.upserts)
}
