package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// ChatSessionRepository is an in-process rag.ChatSessionRepository.
type ChatSessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]rag.ChatSession
	messages map[uuid.UUID][]rag.ChatMessage
}

// NewChatSessionRepository constructs a ChatSessionRepository.
func NewChatSessionRepository() *ChatSessionRepository {
	return &ChatSessionRepository{
		sessions: make(map[uuid.UUID]rag.ChatSession),
		messages: make(map[uuid.UUID][]rag.ChatMessage),
	}
}

func (r *ChatSessionRepository) Create(_ context.Context, s rag.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *ChatSessionRepository) Get(_ context.Context, id, userID uuid.UUID) (rag.ChatSession, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return rag.ChatSession{}, false, nil
	}
	return s, true, nil
}

func (r *ChatSessionRepository) List(_ context.Context, userID uuid.UUID, limit, offset int) ([]rag.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]rag.ChatSession, 0)
	for _, s := range r.sessions {
		if s.UserID == userID {
			matches = append(matches, s)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	total := len(matches)
	if offset >= total {
		return []rag.ChatSession{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matches[offset:end], nil
}

func (r *ChatSessionRepository) Delete(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	delete(r.sessions, id)
	delete(r.messages, id)
	return nil
}

func (r *ChatSessionRepository) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	s.LastMessageAt = &at
	r.sessions[id] = s
	return nil
}

func (r *ChatSessionRepository) ClearCollectionRef(_ context.Context, collectionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.CollectionID != nil && *s.CollectionID == collectionID {
			s.CollectionID = nil
			r.sessions[id] = s
		}
	}
	return nil
}

func (r *ChatSessionRepository) AppendMessage(_ context.Context, m rag.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.SessionID] = append(r.messages[m.SessionID], m)
	if s, ok := r.sessions[m.SessionID]; ok {
		s.MessageCount++
		r.sessions[m.SessionID] = s
	}
	return nil
}

func (r *ChatSessionRepository) ListMessages(_ context.Context, sessionID uuid.UUID) ([]rag.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]rag.ChatMessage(nil), r.messages[sessionID]...), nil
}

// ListRecentMessages returns as many trailing messages (oldest-first, up to
// maxMessages) as fit within maxTokens as measured by tokenCounter.
func (r *ChatSessionRepository) ListRecentMessages(_ context.Context, sessionID uuid.UUID, maxTokens, maxMessages int, tokenCounter func(string) int) ([]rag.ChatMessage, error) {
	r.mu.RLock()
	all := r.messages[sessionID]
	r.mu.RUnlock()

	var out []rag.ChatMessage
	spent := 0
	for i := len(all) - 1; i >= 0 && len(out) < maxMessages; i-- {
		cost := tokenCounter(all[i].Content)
		if spent+cost > maxTokens {
			break
		}
		out = append([]rag.ChatMessage{all[i]}, out...)
		spent += cost
	}
	return out, nil
}

var _ rag.ChatSessionRepository = (*ChatSessionRepository)(nil)
