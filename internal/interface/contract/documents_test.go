package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

func TestEncodeDocumentStatus(t *testing.T) {
	now := time.Now()
	doc := rag.Document{
		Status:         rag.DocumentStatusCompleted,
		ProcessingInfo: rag.ProcessingInfo{ChunkCount: 12, TotalTokens: 4096},
		ProcessedAt:    &now,
	}

	status := EncodeDocumentStatus(doc)
	require.Equal(t, "completed", status.Status)
	require.Equal(t, 12, status.ChunkCount)
	require.Equal(t, 4096, status.TotalTokens)
	require.Equal(t, &now, status.ProcessedAt)
}

func TestDecodeDocumentFilterDefaultsWithNoStatus(t *testing.T) {
	collectionID := uuid.New()
	filter := DecodeDocumentFilter(DocumentListQuery{CollectionID: &collectionID, Limit: 20, Offset: 0})

	require.Equal(t, &collectionID, filter.CollectionID)
	require.Empty(t, filter.Statuses)
	require.Equal(t, 20, filter.Limit)
}

func TestDecodeDocumentFilterWithStatus(t *testing.T) {
	filter := DecodeDocumentFilter(DocumentListQuery{Status: "failed"})
	require.Equal(t, []rag.DocumentStatus{rag.DocumentStatusFailed}, filter.Statuses)
}

func TestEncodeDocumentListIncludesPagination(t *testing.T) {
	docs := []rag.Document{{Title: "a"}, {Title: "b"}}
	resp := EncodeDocumentList(docs, 10, 0, 2)
	require.Len(t, resp.Documents, 2)
	require.Equal(t, 2, resp.Pagination.Total)
}
