// Package queue dispatches ingestion jobs: a Valkey-backed durable queue for
// production, and an immediate in-process queue for local dev and tests.
package queue

import (
	"context"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// Handler processes one dispatched job; name identifies the job kind
// ("ingest_document" etc.) and payload carries its JSON-decoded fields.
type Handler func(ctx context.Context, name string, payload map[string]any)

// HandlerQueue is a rag.JobQueue that also accepts a delivery handler.
type HandlerQueue interface {
	rag.JobQueue
	SetHandler(handler Handler)
}
