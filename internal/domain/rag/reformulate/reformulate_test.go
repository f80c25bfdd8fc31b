package reformulate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

type stubLLM struct {
	response string
	err      error
}

func (s stubLLM) Chat(context.Context, []rag.LLMMessage, rag.GenerationParams) (string, error) {
	return s.response, s.err
}
func (s stubLLM) ChatStream(ctx context.Context, messages []rag.LLMMessage, params rag.GenerationParams, onDelta func(string) error) (string, error) {
	return s.response, s.err
}

type memCache struct{ store map[string]string }

func newMemCache() *memCache { return &memCache{store: map[string]string{}} }

func (m *memCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.store[key]
	return v, ok, nil
}
func (m *memCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	m.store[key] = value
	return nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestReformulateDisabledReturnsOriginal(t *testing.T) {
	svc := New(Config{Enabled: false}, stubLLM{response: "ignored"}, nil, discardLogger())
	out, err := svc.Reformulate(context.Background(), "ML models", ModeExpand)
	require.NoError(t, err)
	assert.Equal(t, []string{"ML models"}, out)
}

func TestReformulateExpandCallsLLM(t *testing.T) {
	svc := New(Config{Enabled: true}, stubLLM{response: "ML models machine learning neural networks"}, nil, discardLogger())
	out, err := svc.Reformulate(context.Background(), "ML models", ModeExpand)
	require.NoError(t, err)
	assert.Equal(t, []string{"ML models machine learning neural networks"}, out)
}

func TestReformulateMultiIncludesOriginalAndLimitsToFour(t *testing.T) {
	svc := New(Config{Enabled: true}, stubLLM{response: "1. What is RAG?\n2. Explain retrieval augmented generation\n3. How does RAG architecture work?\n4. extra one\n5. another"}, nil, discardLogger())
	out, err := svc.Reformulate(context.Background(), "How does RAG work?", ModeMulti)
	require.NoError(t, err)
	assert.Equal(t, "How does RAG work?", out[0])
	assert.LessOrEqual(t, len(out), 4)
}

func TestReformulateFailureFallsBackToOriginal(t *testing.T) {
	svc := New(Config{Enabled: true}, stubLLM{err: assertErr{}}, nil, discardLogger())
	out, err := svc.Reformulate(context.Background(), "typo qury", ModeClarify)
	require.NoError(t, err)
	assert.Equal(t, []string{"typo qury"}, out)
}

func TestReformulateCachesMultiAsJSON(t *testing.T) {
	cache := newMemCache()
	svc := New(Config{Enabled: true}, stubLLM{response: "alt one\nalt two"}, cache, discardLogger())
	first, err := svc.Reformulate(context.Background(), "original query", ModeMulti)
	require.NoError(t, err)

	svc2 := New(Config{Enabled: true}, stubLLM{response: "should not be called"}, cache, discardLogger())
	second, err := svc2.Reformulate(context.Background(), "original query", ModeMulti)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
