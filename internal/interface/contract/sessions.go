package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ChatSessionResponse is the wire shape of a rag.ChatSession, returned from
// GET /chat/sessions.
type ChatSessionResponse struct {
	ID            uuid.UUID  `json:"id"`
	CollectionID  *uuid.UUID `json:"collection_id,omitempty"`
	Title         string     `json:"title,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	MessageCount  int        `json:"message_count"`
}

// ChatSessionListResponse is the GET /chat/sessions response body.
type ChatSessionListResponse struct {
	Sessions   []ChatSessionResponse `json:"sessions"`
	Pagination Pagination            `json:"pagination"`
}

// ChatMessageResponse is the wire shape of a rag.ChatMessage, returned from
// GET /chat/sessions/{id}/messages.
type ChatMessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessageListResponse is the GET /chat/sessions/{id}/messages response body.
type ChatMessageListResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
}

// EncodeChatSession maps a domain ChatSession to its wire representation.
func EncodeChatSession(s rag.ChatSession) ChatSessionResponse {
	return ChatSessionResponse{
		ID:            s.ID,
		CollectionID:  s.CollectionID,
		Title:         s.Title,
		CreatedAt:     s.CreatedAt,
		LastMessageAt: s.LastMessageAt,
		MessageCount:  s.MessageCount,
	}
}

// EncodeChatSessionList maps a page of sessions plus its total count.
func EncodeChatSessionList(sessions []rag.ChatSession, limit, offset, total int) ChatSessionListResponse {
	out := make([]ChatSessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = EncodeChatSession(s)
	}
	return ChatSessionListResponse{
		Sessions:   out,
		Pagination: Pagination{Limit: limit, Offset: offset, Total: total},
	}
}

// EncodeChatMessageList maps a session's message history to its wire
// representation.
func EncodeChatMessageList(messages []rag.ChatMessage) ChatMessageListResponse {
	out := make([]ChatMessageResponse, len(messages))
	for i, m := range messages {
		out[i] = ChatMessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return ChatMessageListResponse{Messages: out}
}
