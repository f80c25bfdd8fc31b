package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// MemoryVectorIndex is an in-process rag.VectorIndex using brute-force
// cosine similarity. It is the fallback used when Postgres/pgvector isn't
// configured.
type MemoryVectorIndex struct {
	mu               sync.RWMutex
	chunksByDoc      map[uuid.UUID][]rag.Chunk
	documentVectors  map[uuid.UUID][]float32
	documentToCollec map[uuid.UUID]uuid.UUID
}

// NewMemoryVectorIndex constructs a MemoryVectorIndex.
func NewMemoryVectorIndex() *MemoryVectorIndex {
	return &MemoryVectorIndex{
		chunksByDoc:      make(map[uuid.UUID][]rag.Chunk),
		documentVectors:  make(map[uuid.UUID][]float32),
		documentToCollec: make(map[uuid.UUID]uuid.UUID),
	}
}

func (idx *MemoryVectorIndex) UpsertChunks(_ context.Context, chunks []rag.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, c := range chunks {
		idx.documentToCollec[c.DocumentID] = c.CollectionID
	}
	if len(chunks) > 0 {
		idx.chunksByDoc[chunks[0].DocumentID] = append([]rag.Chunk(nil), chunks...)
	}
	return nil
}

func (idx *MemoryVectorIndex) DeleteDocument(_ context.Context, documentID uuid.UUID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.chunksByDoc, documentID)
	delete(idx.documentVectors, documentID)
	delete(idx.documentToCollec, documentID)
	return nil
}

func (idx *MemoryVectorIndex) SearchChunks(_ context.Context, collectionID uuid.UUID, embedding []float32, filter rag.RetrievalFilter, topK int) ([]rag.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	allowedDocs := make(map[uuid.UUID]bool, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		allowedDocs[id] = true
	}

	results := make([]rag.ScoredChunk, 0)
	for docID, chunks := range idx.chunksByDoc {
		if idx.documentToCollec[docID] != collectionID {
			continue
		}
		if len(allowedDocs) > 0 && !allowedDocs[docID] {
			continue
		}
		for _, c := range chunks {
			if !matchesMetadata(c.Metadata, filter.Metadata) {
				continue
			}
			results = append(results, rag.ScoredChunk{Chunk: c, Score: cosineSimilarity(embedding, c.Embedding)})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (idx *MemoryVectorIndex) UpsertDocumentEmbedding(_ context.Context, documentID uuid.UUID, embedding []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.documentVectors[documentID] = append([]float32(nil), embedding...)
	return nil
}

func (idx *MemoryVectorIndex) SearchDocuments(_ context.Context, collectionID uuid.UUID, embedding []float32, topN int) ([]rag.ScoredDocument, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]rag.ScoredDocument, 0)
	for docID, vec := range idx.documentVectors {
		if idx.documentToCollec[docID] != collectionID {
			continue
		}
		results = append(results, rag.ScoredDocument{DocumentID: docID, Score: cosineSimilarity(embedding, vec)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

func matchesMetadata(m rag.ChunkMetadata, want map[string]string) bool {
	for k, v := range want {
		switch k {
		case "parentSection":
			if m.ParentSection != v {
				return false
			}
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	den := math.Sqrt(magA) * math.Sqrt(magB)
	if den == 0 {
		return 0
	}
	return dot / den
}

var _ rag.VectorIndex = (*MemoryVectorIndex)(nil)
