package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ChunkRepository is an in-process rag.ChunkRepository.
type ChunkRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID][]rag.Chunk
}

// NewChunkRepository constructs a ChunkRepository.
func NewChunkRepository() *ChunkRepository {
	return &ChunkRepository{data: make(map[uuid.UUID][]rag.Chunk)}
}

func (r *ChunkRepository) ReplaceForDocument(_ context.Context, documentID uuid.UUID, chunks []rag.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ordered := make([]rag.Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })
	r.data[documentID] = ordered
	return nil
}

func (r *ChunkRepository) DeleteForDocument(_ context.Context, documentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}

func (r *ChunkRepository) ListForDocument(_ context.Context, documentID uuid.UUID) ([]rag.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[documentID], nil
}

func (r *ChunkRepository) Neighbors(_ context.Context, documentID uuid.UUID, chunkIndex int) (*rag.Chunk, *rag.Chunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chunks := r.data[documentID]
	var prev, next *rag.Chunk
	for i := range chunks {
		if chunks[i].ChunkIndex == chunkIndex-1 {
			c := chunks[i]
			prev = &c
		}
		if chunks[i].ChunkIndex == chunkIndex+1 {
			c := chunks[i]
			next = &c
		}
	}
	return prev, next, nil
}

var _ rag.ChunkRepository = (*ChunkRepository)(nil)
