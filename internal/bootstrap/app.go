package bootstrap

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag/auth"
	"github.com/ragforge/ragcore/internal/domain/rag/chat"
	"github.com/ragforge/ragcore/internal/domain/rag/ingest"
	"github.com/ragforge/ragcore/internal/domain/rag/ratelimit"
	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
	"github.com/ragforge/ragcore/internal/domain/rag/synonym"
	"github.com/ragforge/ragcore/internal/infra/config"
	"github.com/ragforge/ragcore/internal/infra/rag/queue"
)

// stopper is implemented by queues that hold a background consumer
// goroutine (ValkeyQueue); ImmediateQueue needs no explicit stop.
type stopper interface {
	Stop()
}

// App is the fully wired application. There is no HTTP listener: Run only
// drives the ingestion worker loop, but every domain service is exported so
// the contract package (or a test) can call it directly in-process.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	queue       queue.HandlerQueue
	Coordinator *ingest.Coordinator
	Retrieval   *retrieval.Engine
	Chat        *chat.Service
	Auth        auth.Service
	RateLimiter *ratelimit.Limiter
	Synonym     *synonym.Service
}

// NewApp is used by Wire to build the runnable app. It registers the
// coordinator as the queue's delivery handler before returning so that any
// job enqueued after construction is processed.
func NewApp(
	cfg *config.Config,
	logger *slog.Logger,
	jobQueue queue.HandlerQueue,
	coordinator *ingest.Coordinator,
	retriever *retrieval.Engine,
	chatService *chat.Service,
	authService auth.Service,
	rateLimiter *ratelimit.Limiter,
	synonymService *synonym.Service,
) *App {
	log := logger.With("component", "bootstrap")
	jobQueue.SetHandler(func(ctx context.Context, name string, payload map[string]any) {
		if name != "ingest_document" {
			log.Warn("unrecognized job", "name", name)
			return
		}
		documentID, err := parseUUIDField(payload, "document_id")
		if err != nil {
			log.Error("job missing document_id", "error", err)
			return
		}
		userID, err := parseUUIDField(payload, "user_id")
		if err != nil {
			log.Error("job missing user_id", "error", err)
			return
		}
		content, err := parseContentField(payload)
		if err != nil {
			log.Error("job missing content", "error", err)
			return
		}
		if err := coordinator.Process(ctx, documentID, userID, content); err != nil {
			log.Error("document processing failed", "documentID", documentID, "error", err)
		}
	})
	return &App{
		cfg:         cfg,
		logger:      log,
		queue:       jobQueue,
		Coordinator: coordinator,
		Retrieval:   retriever,
		Chat:        chatService,
		Auth:        authService,
		RateLimiter: rateLimiter,
		Synonym:     synonymService,
	}
}

// Run blocks until ctx is canceled, then stops the queue's consumer if it
// has one.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("ingestion worker started")
	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	if s, ok := a.queue.(stopper); ok {
		s.Stop()
	}
	return nil
}

func parseUUIDField(payload map[string]any, key string) (uuid.UUID, error) {
	raw, ok := payload[key]
	if !ok {
		return uuid.UUID{}, errMissingField(key)
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.UUID{}, errMissingField(key)
	}
	return uuid.Parse(s)
}

// parseContentField decodes the base64-encoded raw document bytes the
// enqueuing caller attaches alongside document_id/user_id, since Process
// re-parses from the original bytes rather than re-reading object storage.
func parseContentField(payload map[string]any) ([]byte, error) {
	raw, ok := payload["content"]
	if !ok {
		return nil, errMissingField("content")
	}
	s, ok := raw.(string)
	if !ok {
		return nil, errMissingField("content")
	}
	return base64.StdEncoding.DecodeString(s)
}

type errMissingField string

func (e errMissingField) Error() string { return "missing or invalid payload field: " + string(e) }
