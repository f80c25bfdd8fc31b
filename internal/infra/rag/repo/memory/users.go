package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// UserRepository is an in-process rag.UserRepository.
type UserRepository struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]rag.User
	byEmail     map[string]uuid.UUID
	byAPIKey    map[string]uuid.UUID
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:     make(map[uuid.UUID]rag.User),
		byEmail:  make(map[string]uuid.UUID),
		byAPIKey: make(map[string]uuid.UUID),
	}
}

func (r *UserRepository) Create(_ context.Context, u rag.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.byAPIKey[u.APIKeyHash] = u.ID
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (rag.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return rag.User{}, false, nil
	}
	return r.byID[id], true, nil
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (rag.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	return u, ok, nil
}

func (r *UserRepository) FindByAPIKeyHash(_ context.Context, hash string) (rag.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAPIKey[hash]
	if !ok {
		return rag.User{}, false, nil
	}
	return r.byID[id], true, nil
}

var _ rag.UserRepository = (*UserRepository)(nil)
