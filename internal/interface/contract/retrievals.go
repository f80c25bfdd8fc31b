package contract

import (
	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

// RetrievalRequest is the POST /retrievals request body.
type RetrievalRequest struct {
	Query          string            `json:"query" binding:"required"`
	Mode           string            `json:"mode,omitempty"`
	TopK           int               `json:"top_k,omitempty"`
	CollectionID   uuid.UUID         `json:"collection_id" binding:"required"`
	MetadataFilter map[string]string `json:"metadata_filter,omitempty"`
	DocumentIDs    []uuid.UUID       `json:"document_ids,omitempty"`
	ExpandContext  bool              `json:"expand_context,omitempty"`
	HierarchicalN  int               `json:"hierarchical_n,omitempty"`
}

// RetrievalResultDTO is one scored chunk in a RetrievalResponse.
type RetrievalResultDTO struct {
	ChunkID         uuid.UUID         `json:"chunk_id"`
	DocumentID      uuid.UUID         `json:"document_id"`
	DocumentTitle   string            `json:"document_title,omitempty"`
	Content         string            `json:"content"`
	ExpandedContent string            `json:"expanded_content,omitempty"`
	ChunkIndex      int               `json:"chunk_index"`
	Score           float64           `json:"score"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ParentSection   string            `json:"parent_section,omitempty"`
	Page            int               `json:"page,omitempty"`
}

// RetrievalResponse is the POST /retrievals response body.
type RetrievalResponse struct {
	Query            string                `json:"query"`
	Mode             string                `json:"mode"`
	Results          []RetrievalResultDTO  `json:"results"`
	TotalResults     int                   `json:"total_results"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`
}

// DecodeRetrievalRequest maps a wire request to a domain retrieval.Request.
// Mode defaults to semantic and TopK defaults to 10 when unset.
func DecodeRetrievalRequest(userID uuid.UUID, req RetrievalRequest) retrieval.Request {
	mode := retrieval.Mode(req.Mode)
	if mode == "" {
		mode = retrieval.ModeSemantic
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	return retrieval.Request{
		Query:         req.Query,
		Mode:          mode,
		TopK:          topK,
		UserID:        userID,
		CollectionID:  req.CollectionID,
		ExpandContext: req.ExpandContext,
		HierarchicalN: req.HierarchicalN,
		Filter: rag.RetrievalFilter{
			DocumentIDs: req.DocumentIDs,
			Metadata:    req.MetadataFilter,
		},
	}
}

// EncodeRetrievalResponse maps a domain retrieval.Response to its wire
// representation.
func EncodeRetrievalResponse(resp retrieval.Response) RetrievalResponse {
	results := make([]RetrievalResultDTO, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = RetrievalResultDTO{
			ChunkID:         r.ChunkID,
			DocumentID:      r.Document.ID,
			DocumentTitle:   r.Document.Title,
			Content:         r.Content,
			ExpandedContent: r.ExpandedContent,
			ChunkIndex:      r.ChunkIndex,
			Score:           r.Score,
			Metadata:        r.Metadata,
			ParentSection:   r.ChunkMetadata.ParentSection,
			Page:            r.ChunkMetadata.Page,
		}
	}
	return RetrievalResponse{
		Query:            resp.Query,
		Mode:             string(resp.Mode),
		Results:          results,
		TotalResults:     resp.TotalResults,
		ProcessingTimeMs: resp.ProcessingTimeMs,
	}
}
