package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImmediateQueueInvokesHandler(t *testing.T) {
	var mu sync.Mutex
	var gotName string
	var gotPayload map[string]any
	done := make(chan struct{})

	q := NewImmediateQueue(func(_ context.Context, name string, payload map[string]any) {
		mu.Lock()
		gotName = name
		gotPayload = payload
		mu.Unlock()
		close(done)
	})

	require.NoError(t, q.Enqueue(context.Background(), "ingest_document", map[string]any{"document_id": "abc"}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "ingest_document", gotName)
	assert.Equal(t, "abc", gotPayload["document_id"])
}

func TestImmediateQueueNoHandlerIsNoop(t *testing.T) {
	q := NewImmediateQueue(nil)
	assert.NoError(t, q.Enqueue(context.Background(), "x", nil))
}
