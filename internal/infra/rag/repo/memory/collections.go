package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// CollectionRepository is an in-process rag.CollectionRepository.
type CollectionRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]rag.Collection
}

// NewCollectionRepository constructs a CollectionRepository.
func NewCollectionRepository() *CollectionRepository {
	return &CollectionRepository{data: make(map[uuid.UUID]rag.Collection)}
}

func (r *CollectionRepository) Create(_ context.Context, c rag.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.ID] = c
	return nil
}

func (r *CollectionRepository) Get(_ context.Context, id, userID uuid.UUID) (rag.Collection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok || c.UserID != userID {
		return rag.Collection{}, false, nil
	}
	return c, true, nil
}

func (r *CollectionRepository) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]rag.Collection, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]rag.Collection, 0)
	for _, c := range r.data {
		if c.UserID == userID {
			matches = append(matches, c)
		}
	}
	total := len(matches)
	if offset >= total {
		return []rag.Collection{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func (r *CollectionRepository) Update(_ context.Context, c rag.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	c.UpdatedAt = time.Now()
	r.data[c.ID] = c
	return nil
}

func (r *CollectionRepository) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok || c.UserID != userID {
		return apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	delete(r.data, id)
	return nil
}

func (r *CollectionRepository) IncrementDocumentCount(_ context.Context, id uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	c.DocumentCount += delta
	c.UpdatedAt = time.Now()
	r.data[id] = c
	return nil
}

var _ rag.CollectionRepository = (*CollectionRepository)(nil)
