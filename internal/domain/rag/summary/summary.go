// Package summary generates and persists a short document summary and its
// embedding once ingestion completes, making the document eligible for
// hierarchical retrieval's document-level search stage.
package summary

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// maxSummaryInputRunes bounds the text handed to summarization so the
// resulting summary stays within a roughly 1000-token ceiling.
const maxSummaryInputRunes = 20000

// Service produces and compare-and-set persists document summaries.
type Service struct {
	documents rag.DocumentRepository
	vector    rag.VectorIndex
	embedder  rag.Embedder
	logger    *slog.Logger
}

// New constructs a Service.
func New(documents rag.DocumentRepository, vector rag.VectorIndex, embedder rag.Embedder, logger *slog.Logger) *Service {
	return &Service{documents: documents, vector: vector, embedder: embedder, logger: logger.With("component", "rag.summary")}
}

// Summarize generates a summary and embedding for content and writes them
// with an update-if-null compare-and-set, so a document already summarized
// (e.g. by a concurrent reprocessing run) is never overwritten. It then
// upserts the document-level embedding into the vector index so
// hierarchical retrieval's document search stage can find it. Failure here
// never fails ingestion: the caller should treat errors as best-effort.
func (s *Service) Summarize(ctx context.Context, documentID uuid.UUID, content string) error {
	truncated := truncateRunes(content, maxSummaryInputRunes)

	summaryText, embedding, err := s.embedder.SummarizeAndEmbed(ctx, truncated)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUpstream, "document summarization failed", err)
	}
	if strings.TrimSpace(summaryText) == "" {
		return apperrors.New(apperrors.CodeUpstream, "empty document summary returned")
	}

	wrote, err := s.documents.SetSummaryIfNull(ctx, documentID, summaryText, embedding)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to persist document summary", err)
	}
	if !wrote {
		s.logger.Debug("document summary already set, skipping", "document_id", documentID)
		return nil
	}

	if err := s.vector.UpsertDocumentEmbedding(ctx, documentID, embedding); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to index document summary embedding", err)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
