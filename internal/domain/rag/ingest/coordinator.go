// Package ingest drives a document through parse, classify, chunk, embed,
// and index-write, the state machine of the ingestion pipeline.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	"github.com/ragforge/ragcore/internal/domain/rag/chunker"
	"github.com/ragforge/ragcore/internal/domain/rag/classifier"
	"github.com/ragforge/ragcore/internal/domain/rag/contenttype"
	"github.com/ragforge/ragcore/internal/domain/rag/parser"
	"github.com/ragforge/ragcore/internal/domain/rag/summary"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// Config controls chunk sizing defaults when a collection leaves them unset.
type Config struct {
	DefaultChunkTargetTokens int
	DefaultChunkOverlap      int
	MaxRetries               int
	RetryBaseDelay           time.Duration
}

// SubmitRequest is a single document submission.
type SubmitRequest struct {
	UserID             uuid.UUID
	CollectionID       uuid.UUID
	Title              string
	Filename           string
	ClientContentType  string
	Content            []byte
	UniqueIdentityHash string
	Metadata           map[string]string
}

// Coordinator drives documents through the ingestion state machine.
type Coordinator struct {
	cfg          Config
	collections  rag.CollectionRepository
	documents    rag.DocumentRepository
	chunks       rag.ChunkRepository
	storage      rag.ObjectStorage
	embedder     rag.Embedder
	vector       rag.VectorIndex
	keyword      rag.KeywordIndex
	graph        rag.GraphIndex
	parsers      *parser.Registry
	classifier   *classifier.Registry
	summarizer   *summary.Service
	logger       *slog.Logger
}

// New constructs a Coordinator. summarizer may be nil, in which case
// completed documents are never eligible for hierarchical retrieval's
// document-search stage.
func New(
	cfg Config,
	collections rag.CollectionRepository,
	documents rag.DocumentRepository,
	chunks rag.ChunkRepository,
	storage rag.ObjectStorage,
	embedder rag.Embedder,
	vector rag.VectorIndex,
	keyword rag.KeywordIndex,
	graph rag.GraphIndex,
	parsers *parser.Registry,
	classification *classifier.Registry,
	summarizer *summary.Service,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:         cfg,
		collections: collections,
		documents:   documents,
		chunks:      chunks,
		storage:     storage,
		embedder:    embedder,
		vector:      vector,
		keyword:     keyword,
		graph:       graph,
		parsers:     parsers,
		classifier:  classification,
		summarizer:  summarizer,
		logger:      logger.With("component", "ingest.coordinator"),
	}
}

// Submit computes a content hash, performs the dedupe check, persists the
// pending document record, and returns immediately; processing runs
// asynchronously (dispatched by the caller through a job queue or inline
// worker pool) via Process.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (rag.Document, error) {
	if len(req.Content) == 0 {
		return rag.Document{}, apperrors.New(apperrors.CodeValidation, "file content cannot be empty")
	}
	contentHash := hashContent(req.Content)

	if existing, found, err := c.documents.FindByContentHash(ctx, req.UserID, contentHash); err != nil {
		return rag.Document{}, apperrors.Wrap(apperrors.CodeInternal, "dedupe lookup by content hash failed", err)
	} else if found && existing.Status == rag.DocumentStatusCompleted {
		return existing, nil
	}
	if req.UniqueIdentityHash != "" {
		if existing, found, err := c.documents.FindByUniqueIdentityHash(ctx, req.UserID, req.UniqueIdentityHash); err != nil {
			return rag.Document{}, apperrors.Wrap(apperrors.CodeInternal, "dedupe lookup by unique identifier failed", err)
		} else if found && existing.Status == rag.DocumentStatusCompleted {
			return existing, nil
		}
	}

	contentType := contenttype.Resolve(req.Filename, req.Content, req.ClientContentType)
	now := time.Now()
	doc := rag.Document{
		ID:                 uuid.New(),
		CollectionID:       req.CollectionID,
		UserID:             req.UserID,
		Title:              firstNonEmpty(req.Title, req.Filename),
		Filename:           req.Filename,
		ContentType:        contentType,
		SizeBytes:          int64(len(req.Content)),
		ContentHash:        contentHash,
		UniqueIdentityHash: req.UniqueIdentityHash,
		Status:             rag.DocumentStatusPending,
		Metadata:           req.Metadata,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := c.documents.Create(ctx, doc); err != nil {
		return rag.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to persist document", err)
	}

	key := fmt.Sprintf("documents/%s/%s/%s", req.UserID, doc.ID, sanitizeFilename(req.Filename))
	if _, err := c.storage.Put(ctx, key, req.Content, contentType); err != nil {
		_ = c.documents.UpdateStatus(ctx, doc.ID, rag.DocumentStatusFailed, rag.ProcessingInfo{Error: "failed to store blob", Step: "blob"})
		return rag.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to store uploaded blob", err)
	}

	return doc, nil
}

// Process runs the parse → classify → chunk → embed → write pipeline for a
// pending document. It marks status=processing with a plain UpdateStatus,
// which in both the in-memory and Postgres repositories overwrites the
// status without checking its prior value; Process therefore does not stop
// two concurrent calls for the same document from both running the pipeline.
func (c *Coordinator) Process(ctx context.Context, documentID, userID uuid.UUID, rawContent []byte) error {
	doc, found, err := c.documents.Get(ctx, documentID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to load document", err)
	}
	if !found {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	if doc.Status == rag.DocumentStatusCompleted {
		return nil
	}
	if err := c.documents.UpdateStatus(ctx, documentID, rag.DocumentStatusProcessing, rag.ProcessingInfo{Step: "parse"}); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to mark processing", err)
	}

	collection, found, err := c.collections.Get(ctx, doc.CollectionID, userID)
	if err != nil || !found {
		return c.fail(ctx, documentID, "parse", apperrors.Wrap(apperrors.CodeInternal, "collection not found for document", err))
	}

	parsed, err := c.parsers.Parse(ctx, doc.ContentType, doc.Filename, rawContent)
	if err != nil {
		return c.fail(ctx, documentID, "parse", apperrors.Wrap(apperrors.CodeParse, "parsing failed", err))
	}

	docMetadata := mergeMetadata(doc.Metadata, parsed.Metadata)
	classification, err := c.classifier.Classify(ctx, parsed.Content, docMetadata, doc.Filename)
	if err != nil {
		return c.fail(ctx, documentID, "classify", apperrors.Wrap(apperrors.CodeInternal, "classification failed", err))
	}

	targetTokens := collection.Config.ChunkTargetToken
	if targetTokens <= 0 {
		targetTokens = c.cfg.DefaultChunkTargetTokens
	}
	overlap := collection.Config.ChunkOverlap
	if overlap <= 0 {
		overlap = c.cfg.DefaultChunkOverlap
	}
	tokenBudget := chunker.New(targetTokens, overlap)
	candidates := tokenBudget.Chunk(classification.Content, classification.ChunkAnnotations)
	if len(candidates) == 0 {
		return c.fail(ctx, documentID, "chunk", apperrors.New(apperrors.CodeParse, "no content to chunk"))
	}

	if err := c.documents.UpdateStatus(ctx, documentID, rag.DocumentStatusProcessing, rag.ProcessingInfo{Step: "embed", ChunkCount: len(candidates)}); err != nil {
		c.logger.Warn("status update failed", "document_id", documentID, "error", err)
	}

	texts := make([]string, len(candidates))
	for i, cand := range candidates {
		texts[i] = cand.Content
	}
	embeddings, err := c.embedWithRetry(ctx, texts)
	if err != nil {
		return c.fail(ctx, documentID, "embed", apperrors.Wrap(apperrors.CodeUpstream, "embedding failed", err))
	}

	now := time.Now()
	totalTokens := 0
	chunks := make([]rag.Chunk, len(candidates))
	for i, cand := range candidates {
		embedding := make([]float32, len(embeddings[i]))
		copy(embedding, embeddings[i])
		totalTokens += cand.TokenCount
		chunks[i] = rag.Chunk{
			ID:           uuid.New(),
			DocumentID:   documentID,
			CollectionID: doc.CollectionID,
			ChunkIndex:   cand.Index,
			Content:      cand.Content,
			TokenCount:   cand.TokenCount,
			Embedding:    embedding,
			CreatedAt:    now,
		}
	}

	if err := c.writeIndexes(ctx, documentID, chunks); err != nil {
		return c.fail(ctx, documentID, "write", err)
	}

	doc.Metadata = mergeMetadata(docMetadata, classification.DocumentMetadata)
	doc.Metadata["classifier"] = classification.ProcessorName
	doc.Status = rag.DocumentStatusCompleted
	doc.UpdatedAt = now
	doc.ProcessedAt = &now
	if err := c.documents.Update(ctx, doc); err != nil {
		return c.fail(ctx, documentID, "write", apperrors.Wrap(apperrors.CodeInternal, "failed to finalize document", err))
	}
	if err := c.documents.UpdateStatus(ctx, documentID, rag.DocumentStatusCompleted, rag.ProcessingInfo{ChunkCount: len(chunks), TotalTokens: totalTokens, Step: "done"}); err != nil {
		c.logger.Warn("final status update failed", "document_id", documentID, "error", err)
	}

	if c.summarizer != nil {
		if err := c.summarizer.Summarize(ctx, documentID, classification.Content); err != nil {
			// Best-effort: a missing summary only disables hierarchical
			// retrieval's document-search stage for this document.
			c.logger.Warn("document summarization failed", "document_id", documentID, "error", err)
		}
	}
	return nil
}

// writeIndexes performs the ordered blob(already written)→chunks→vector→
// keyword→graph sequence and rolls back chunks/vector entries on failure.
func (c *Coordinator) writeIndexes(ctx context.Context, documentID uuid.UUID, chunks []rag.Chunk) error {
	if err := c.chunks.ReplaceForDocument(ctx, documentID, chunks); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to persist chunks", err)
	}
	if err := c.vector.UpsertChunks(ctx, chunks); err != nil {
		_ = c.chunks.DeleteForDocument(ctx, documentID)
		return apperrors.Wrap(apperrors.CodeInternal, "failed to index chunk embeddings", err)
	}
	if c.keyword != nil {
		if err := c.keyword.IndexChunks(ctx, chunks); err != nil {
			_ = c.chunks.DeleteForDocument(ctx, documentID)
			_ = c.vector.DeleteDocument(ctx, documentID)
			return apperrors.Wrap(apperrors.CodeInternal, "failed to index chunk keywords", err)
		}
	}
	if c.graph != nil {
		if err := c.graph.IndexChunks(ctx, chunks); err != nil {
			// Graph indexing is best-effort; retrieval falls back to semantic/keyword.
			c.logger.Warn("graph indexing failed", "document_id", documentID, "error", err)
		}
	}
	return nil
}

func (c *Coordinator) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	delay := c.cfg.RetryBaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay * time.Duration(1<<uint(attempt-1))):
			}
		}
		embeddings, err := c.embedder.EmbedTexts(ctx, texts)
		if err == nil {
			return embeddings, nil
		}
		lastErr = err
		c.logger.Warn("embedding attempt failed", "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

// fail marks the document failed, removing any partial chunk/vector writes,
// and returns the triggering error unchanged for the caller to propagate.
func (c *Coordinator) fail(ctx context.Context, documentID uuid.UUID, step string, cause error) error {
	_ = c.chunks.DeleteForDocument(ctx, documentID)
	_ = c.vector.DeleteDocument(ctx, documentID)
	if c.keyword != nil {
		_ = c.keyword.DeleteDocument(ctx, documentID)
	}
	message := cause.Error()
	if err := c.documents.UpdateStatus(ctx, documentID, rag.DocumentStatusFailed, rag.ProcessingInfo{Error: message, Step: step}); err != nil {
		c.logger.Error("failed to record failure status", "document_id", documentID, "error", err)
	}
	return cause
}

// Status returns the latest lifecycle snapshot for a document.
func (c *Coordinator) Status(ctx context.Context, documentID, userID uuid.UUID) (rag.Document, error) {
	doc, found, err := c.documents.Get(ctx, documentID, userID)
	if err != nil {
		return rag.Document{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load document status", err)
	}
	if !found {
		return rag.Document{}, apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		return "file"
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func mergeMetadata(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
