package chat

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
	"github.com/ragforge/ragcore/internal/domain/rag/prompt"
	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

type memSessions struct {
	sessions map[uuid.UUID]rag.ChatSession
	messages map[uuid.UUID][]rag.ChatMessage
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uuid.UUID]rag.ChatSession{}, messages: map[uuid.UUID][]rag.ChatMessage{}}
}

func (m *memSessions) Create(_ context.Context, s rag.ChatSession) error {
	m.sessions[s.ID] = s
	return nil
}
func (m *memSessions) Get(_ context.Context, id, _ uuid.UUID) (rag.ChatSession, bool, error) {
	s, ok := m.sessions[id]
	return s, ok, nil
}
func (m *memSessions) List(context.Context, uuid.UUID, int, int) ([]rag.ChatSession, error) {
	return nil, nil
}
func (m *memSessions) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (m *memSessions) Touch(context.Context, uuid.UUID, time.Time) error  { return nil }
func (m *memSessions) ClearCollectionRef(context.Context, uuid.UUID) error { return nil }
func (m *memSessions) AppendMessage(_ context.Context, msg rag.ChatMessage) error {
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], msg)
	return nil
}
func (m *memSessions) ListMessages(_ context.Context, sessionID uuid.UUID) ([]rag.ChatMessage, error) {
	return m.messages[sessionID], nil
}
func (m *memSessions) ListRecentMessages(context.Context, uuid.UUID, int, int, func(string) int) ([]rag.ChatMessage, error) {
	return nil, nil
}

type fakeVectorIndex struct{}

func (fakeVectorIndex) UpsertChunks(context.Context, []rag.Chunk) error { return nil }
func (fakeVectorIndex) DeleteDocument(context.Context, uuid.UUID) error { return nil }
func (fakeVectorIndex) SearchChunks(context.Context, uuid.UUID, []float32, rag.RetrievalFilter, int) ([]rag.ScoredChunk, error) {
	return []rag.ScoredChunk{
		{Chunk: rag.Chunk{ID: uuid.New(), ChunkIndex: 0, Content: "relevant passage one"}, Score: 0.9},
	}, nil
}
func (fakeVectorIndex) UpsertDocumentEmbedding(context.Context, uuid.UUID, []float32) error { return nil }
func (fakeVectorIndex) SearchDocuments(context.Context, uuid.UUID, []float32, int) ([]rag.ScoredDocument, error) {
	return nil, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) { return nil, nil }
func (fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error)     { return []float32{0.1}, nil }
func (fakeEmbedder) SummarizeAndEmbed(context.Context, string) (string, []float32, error) {
	return "", nil, nil
}
func (fakeEmbedder) Dimension() int { return 1 }

type stubLLM struct{}

func (stubLLM) Chat(context.Context, []rag.LLMMessage, rag.GenerationParams) (string, error) {
	return "one\ntwo\nthree", nil
}
func (stubLLM) ChatStream(ctx context.Context, _ []rag.LLMMessage, _ rag.GenerationParams, onDelta func(string) error) (string, error) {
	for _, part := range []string{"Hello", ", ", "world."} {
		if err := onDelta(part); err != nil {
			return "", err
		}
	}
	return "Hello, world.", nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestService(t *testing.T, sessions *memSessions) *Service {
	asm, err := prompt.New(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	require.NoError(t, err)
	retriever := retrieval.New(fakeVectorIndex{}, nil, nil, fakeEmbedder{}, nil, nil, nil)
	return New(Config{DefaultPreset: prompt.PresetComprehensive, DefaultRetrievalMode: retrieval.ModeSemantic, DefaultTopK: 5, Model: "test-model"}, sessions, nil, retriever, nil, asm, stubLLM{}, discardLogger())
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for e := range ch {
		out = append(out, e)
	}
	return out
}

func TestAskStreamsDeltasAndTerminatesWithDone(t *testing.T) {
	sessions := newMemSessions()
	svc := newTestService(t, sessions)

	events, err := svc.Ask(context.Background(), Request{UserID: uuid.New(), CollectionID: uuid.New(), Message: "what is this about?"})
	require.NoError(t, err)

	all := drain(events)
	require.NotEmpty(t, all)
	assert.Equal(t, EventDone, all[len(all)-1].Type)

	var deltas string
	for _, e := range all {
		if e.Type == EventDelta {
			deltas += e.Delta
		}
	}
	assert.Equal(t, "Hello, world.", deltas)
}

func TestAskPersistsUserAndAssistantMessages(t *testing.T) {
	sessions := newMemSessions()
	svc := newTestService(t, sessions)

	events, err := svc.Ask(context.Background(), Request{UserID: uuid.New(), CollectionID: uuid.New(), Message: "hello"})
	require.NoError(t, err)
	drain(events)

	var sessionID uuid.UUID
	for id := range sessions.messages {
		sessionID = id
	}
	require.Len(t, sessions.messages[sessionID], 2)
	assert.Equal(t, rag.ChatRoleUser, sessions.messages[sessionID][0].Role)
	assert.Equal(t, rag.ChatRoleAssistant, sessions.messages[sessionID][1].Role)
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	sessions := newMemSessions()
	svc := newTestService(t, sessions)
	_, err := svc.Ask(context.Background(), Request{UserID: uuid.New(), CollectionID: uuid.New(), Message: "   "})
	assert.Error(t, err)
}

func TestAskDeepReasoningEmitsSubQueryEvents(t *testing.T) {
	sessions := newMemSessions()
	svc := newTestService(t, sessions)

	events, err := svc.Ask(context.Background(), Request{UserID: uuid.New(), CollectionID: uuid.New(), Message: "explain in depth", Reasoning: ReasoningDeep})
	require.NoError(t, err)
	all := drain(events)

	var sawSubQuery bool
	for _, e := range all {
		if e.Type == EventSubQuery {
			sawSubQuery = true
		}
	}
	assert.True(t, sawSubQuery)
}
