package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// DocumentRepository is an in-process rag.DocumentRepository.
type DocumentRepository struct {
	mu            sync.RWMutex
	byID          map[uuid.UUID]rag.Document
	byContentHash map[string]uuid.UUID
	byIdentity    map[string]uuid.UUID
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		byID:          make(map[uuid.UUID]rag.Document),
		byContentHash: make(map[string]uuid.UUID),
		byIdentity:    make(map[string]uuid.UUID),
	}
}

func dedupeKey(userID uuid.UUID, key string) string {
	return userID.String() + ":" + key
}

func (r *DocumentRepository) Create(_ context.Context, d rag.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[d.ID] = d
	r.byContentHash[dedupeKey(d.UserID, d.ContentHash)] = d.ID
	if d.UniqueIdentityHash != "" {
		r.byIdentity[dedupeKey(d.UserID, d.UniqueIdentityHash)] = d.ID
	}
	return nil
}

func (r *DocumentRepository) Update(_ context.Context, d rag.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[d.ID]; !ok {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	d.UpdatedAt = time.Now()
	r.byID[d.ID] = d
	r.byContentHash[dedupeKey(d.UserID, d.ContentHash)] = d.ID
	if d.UniqueIdentityHash != "" {
		r.byIdentity[dedupeKey(d.UserID, d.UniqueIdentityHash)] = d.ID
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status rag.DocumentStatus, info rag.ProcessingInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	d.Status = status
	d.ProcessingInfo = info
	d.UpdatedAt = time.Now()
	r.byID[id] = d
	return nil
}

func (r *DocumentRepository) Get(_ context.Context, id, userID uuid.UUID) (rag.Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok || d.UserID != userID {
		return rag.Document{}, false, nil
	}
	return d, true, nil
}

func (r *DocumentRepository) List(_ context.Context, userID uuid.UUID, filter rag.DocumentFilter) ([]rag.Document, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	allowedStatuses := make(map[rag.DocumentStatus]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		allowedStatuses[st] = true
	}
	matches := make([]rag.Document, 0)
	for _, d := range r.byID {
		if d.UserID != userID {
			continue
		}
		if filter.CollectionID != nil && d.CollectionID != *filter.CollectionID {
			continue
		}
		if len(allowedStatuses) > 0 && !allowedStatuses[d.Status] {
			continue
		}
		matches = append(matches, d)
	}
	total := len(matches)
	offset, limit := filter.Offset, filter.Limit
	if offset >= total {
		return []rag.Document{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

func (r *DocumentRepository) FindByContentHash(_ context.Context, userID uuid.UUID, contentHash string) (rag.Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byContentHash[dedupeKey(userID, contentHash)]
	if !ok {
		return rag.Document{}, false, nil
	}
	return r.byID[id], true, nil
}

func (r *DocumentRepository) FindByUniqueIdentityHash(_ context.Context, userID uuid.UUID, hash string) (rag.Document, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdentity[dedupeKey(userID, hash)]
	if !ok {
		return rag.Document{}, false, nil
	}
	return r.byID[id], true, nil
}

func (r *DocumentRepository) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok || d.UserID != userID {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	delete(r.byID, id)
	delete(r.byContentHash, dedupeKey(userID, d.ContentHash))
	if d.UniqueIdentityHash != "" {
		delete(r.byIdentity, dedupeKey(userID, d.UniqueIdentityHash))
	}
	return nil
}

func (r *DocumentRepository) SetSummaryIfNull(_ context.Context, id uuid.UUID, summary string, embedding []float32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return false, apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	if d.Summary != "" {
		return false, nil
	}
	d.Summary = summary
	d.DocumentEmbedding = embedding
	r.byID[id] = d
	return true, nil
}

var _ rag.DocumentRepository = (*DocumentRepository)(nil)
