package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func TestEncodeChatSessionList(t *testing.T) {
	now := time.Now()
	sessions := []rag.ChatSession{
		{ID: uuid.New(), Title: "first", CreatedAt: now, MessageCount: 3},
	}
	resp := EncodeChatSessionList(sessions, 20, 0, 1)

	require.Len(t, resp.Sessions, 1)
	require.Equal(t, "first", resp.Sessions[0].Title)
	require.Equal(t, 3, resp.Sessions[0].MessageCount)
	require.Equal(t, 1, resp.Pagination.Total)
}

func TestEncodeChatMessageList(t *testing.T) {
	messages := []rag.ChatMessage{
		{ID: uuid.New(), Role: rag.ChatRoleUser, Content: "hi"},
		{ID: uuid.New(), Role: rag.ChatRoleAssistant, Content: "hello"},
	}
	resp := EncodeChatMessageList(messages)

	require.Len(t, resp.Messages, 2)
	require.Equal(t, "user", resp.Messages[0].Role)
	require.Equal(t, "assistant", resp.Messages[1].Role)
}
