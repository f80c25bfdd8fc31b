package contract

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag/chat"
)

func TestChatRequestLastUserMessagePrefersFlatField(t *testing.T) {
	req := ChatRequest{
		Message:  "flat question",
		Messages: []ChatHistoryMessage{{Role: "user", Content: "older question"}},
	}
	require.Equal(t, "flat question", req.lastUserMessage())
}

func TestChatRequestLastUserMessageFallsBackToMessages(t *testing.T) {
	req := ChatRequest{
		Messages: []ChatHistoryMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "reply"},
			{Role: "user", Content: "second"},
		},
	}
	require.Equal(t, "second", req.lastUserMessage())
}

func TestChatRequestWantsStreamDefaultsTrue(t *testing.T) {
	require.True(t, ChatRequest{}.WantsStream())

	no := false
	require.False(t, ChatRequest{Stream: &no}.WantsStream())
}

func TestDecodeChatRequestDefaultsReasoningToStandard(t *testing.T) {
	req := DecodeChatRequest(uuid.New(), ChatRequest{Message: "hi", CollectionID: uuid.New()})
	require.Equal(t, chat.ReasoningStandard, req.Reasoning)
	require.Equal(t, "hi", req.Message)
}

func TestEncodeSSEFrameProducesDataLine(t *testing.T) {
	frame, err := EncodeSSEFrame(chat.Event{Type: chat.EventDelta, Delta: "hel"})
	require.NoError(t, err)
	require.True(t, strings.Contains(frame, "event:delta") || strings.Contains(frame, "event: delta"))
	require.Contains(t, frame, `"delta":"hel"`)
}

func TestEncodeChatEventMapsSources(t *testing.T) {
	chunkID := uuid.New()
	docID := uuid.New()
	dto := EncodeChatEvent(chat.Event{
		Type: chat.EventSources,
		Sources: []chat.SourceRef{
			{ChunkID: chunkID, DocumentID: docID, Title: "paper", Score: 0.8},
		},
	})
	require.Len(t, dto.Sources, 1)
	require.Equal(t, chunkID, dto.Sources[0].ChunkID)
	require.Equal(t, "paper", dto.Sources[0].DocumentTitle)
}
