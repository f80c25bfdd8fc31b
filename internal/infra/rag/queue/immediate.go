package queue

import (
	"context"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ImmediateQueue invokes the handler in a new goroutine on enqueue, used
// when no Valkey endpoint is configured.
type ImmediateQueue struct {
	handler Handler
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue(handler Handler) *ImmediateQueue {
	return &ImmediateQueue{handler: handler}
}

// SetHandler replaces the handler used for queued jobs.
func (q *ImmediateQueue) SetHandler(handler Handler) {
	q.handler = handler
}

// Enqueue invokes the handler asynchronously.
func (q *ImmediateQueue) Enqueue(ctx context.Context, name string, payload any) error {
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	if q.handler == nil {
		return nil
	}
	go q.handler(ctx, name, typed)
	return nil
}

var _ rag.JobQueue = (*ImmediateQueue)(nil)
var _ HandlerQueue = (*ImmediateQueue)(nil)
