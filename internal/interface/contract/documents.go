package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// DocumentResponse is the wire shape returned for a single document. The
// actual file bytes never flow through this package; POST /documents is a
// multipart upload handled by the router itself, one layer above here.
type DocumentResponse struct {
	ID           uuid.UUID         `json:"id"`
	CollectionID uuid.UUID         `json:"collection_id"`
	Title        string            `json:"title,omitempty"`
	Filename     string            `json:"filename,omitempty"`
	ContentType  string            `json:"content_type"`
	SizeBytes    int64             `json:"size_bytes"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Summary      string            `json:"summary,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	ProcessedAt  *time.Time        `json:"processed_at,omitempty"`
}

// DocumentListResponse is the GET /documents response body.
type DocumentListResponse struct {
	Documents  []DocumentResponse `json:"documents"`
	Pagination Pagination         `json:"pagination"`
}

// DocumentStatusResponse is the GET /documents/{id}/status response body.
type DocumentStatusResponse struct {
	Status       string     `json:"status"`
	ChunkCount   int        `json:"chunk_count"`
	TotalTokens  int        `json:"total_tokens"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// DocumentURLResponse is the GET /documents/{id}/url response body: a
// short-lived presigned link to the original upload.
type DocumentURLResponse struct {
	URL         string `json:"url"`
	ExpiresIn   int    `json:"expires_in"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
}

// DocumentListQuery is the parsed GET /documents query string.
type DocumentListQuery struct {
	CollectionID *uuid.UUID
	Status       string
	Limit        int
	Offset       int
}

// EncodeDocument maps a domain Document to its wire representation.
func EncodeDocument(d rag.Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		CollectionID: d.CollectionID,
		Title:        d.Title,
		Filename:     d.Filename,
		ContentType:  d.ContentType,
		SizeBytes:    d.SizeBytes,
		Status:       string(d.Status),
		Metadata:     d.Metadata,
		Summary:      d.Summary,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		ProcessedAt:  d.ProcessedAt,
	}
}

// EncodeDocumentList maps a page of documents plus its total count.
func EncodeDocumentList(docs []rag.Document, limit, offset, total int) DocumentListResponse {
	out := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = EncodeDocument(d)
	}
	return DocumentListResponse{
		Documents:  out,
		Pagination: Pagination{Limit: limit, Offset: offset, Total: total},
	}
}

// EncodeDocumentStatus maps a domain Document's processing state.
func EncodeDocumentStatus(d rag.Document) DocumentStatusResponse {
	return DocumentStatusResponse{
		Status:       string(d.Status),
		ChunkCount:   d.ProcessingInfo.ChunkCount,
		TotalTokens:  d.ProcessingInfo.TotalTokens,
		ErrorMessage: d.ProcessingInfo.Error,
		ProcessedAt:  d.ProcessedAt,
	}
}

// DecodeDocumentFilter maps a parsed list query to a domain filter.
func DecodeDocumentFilter(q DocumentListQuery) rag.DocumentFilter {
	filter := rag.DocumentFilter{
		CollectionID: q.CollectionID,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
	if q.Status != "" {
		filter.Statuses = []rag.DocumentStatus{rag.DocumentStatus(q.Status)}
	}
	return filter
}
