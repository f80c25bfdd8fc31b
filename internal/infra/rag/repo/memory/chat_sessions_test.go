package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func TestChatSessionRepositoryCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository()
	userID := uuid.New()
	session := rag.ChatSession{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}

	require.NoError(t, repo.Create(ctx, session))

	got, ok, err := repo.Get(ctx, session.ID, userID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.ID, got.ID)

	_, ok, err = repo.Get(ctx, session.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Delete(ctx, session.ID, userID))
	_, ok, _ = repo.Get(ctx, session.ID, userID)
	assert.False(t, ok)
}

func TestChatSessionRepositoryTouchAndClearCollectionRef(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository()
	userID := uuid.New()
	collectionID := uuid.New()
	session := rag.ChatSession{ID: uuid.New(), UserID: userID, CollectionID: &collectionID, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, session))

	now := time.Now()
	require.NoError(t, repo.Touch(ctx, session.ID, now))
	got, _, _ := repo.Get(ctx, session.ID, userID)
	require.NotNil(t, got.LastMessageAt)
	assert.WithinDuration(t, now, *got.LastMessageAt, time.Second)

	require.NoError(t, repo.ClearCollectionRef(ctx, collectionID))
	got, _, _ = repo.Get(ctx, session.ID, userID)
	assert.Nil(t, got.CollectionID)
}

func TestChatSessionRepositoryAppendAndListMessages(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository()
	userID := uuid.New()
	session := rag.ChatSession{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, session))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendMessage(ctx, rag.ChatMessage{
			ID:        uuid.New(),
			SessionID: session.ID,
			Role:      rag.ChatRoleUser,
			Content:   "message",
			CreatedAt: time.Now(),
		}))
	}

	msgs, err := repo.ListMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)

	got, _, _ := repo.Get(ctx, session.ID, userID)
	assert.Equal(t, 3, got.MessageCount)
}

func TestChatSessionRepositoryListRecentMessagesRespectsBudget(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository()
	sessionID := uuid.New()
	require.NoError(t, repo.Create(ctx, rag.ChatSession{ID: sessionID, UserID: uuid.New(), CreatedAt: time.Now()}))

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendMessage(ctx, rag.ChatMessage{
			ID:        uuid.New(),
			SessionID: sessionID,
			Role:      rag.ChatRoleUser,
			Content:   "x",
			CreatedAt: time.Now(),
		}))
	}

	counter := func(string) int { return 1 }
	recent, err := repo.ListRecentMessages(ctx, sessionID, 3, 10, counter)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	recent, err = repo.ListRecentMessages(ctx, sessionID, 100, 2, counter)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
