package contract

import (
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// CollectionConfigDTO is the wire shape of rag.CollectionConfig.
type CollectionConfigDTO struct {
	EmbeddingModel   string `json:"embedding_model,omitempty"`
	EmbeddingDim     int    `json:"embedding_dim,omitempty"`
	ChunkTargetToken int    `json:"chunk_target_tokens,omitempty"`
	ChunkOverlap     int    `json:"chunk_overlap,omitempty"`
}

// CreateCollectionRequest is the POST /collections request body.
type CreateCollectionRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
	Config      CollectionConfigDTO `json:"config,omitempty"`
}

// UpdateCollectionRequest is the PATCH /collections/{id} request body; all
// fields are optional partial updates.
type UpdateCollectionRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CollectionResponse is the wire shape returned for a single collection.
type CollectionResponse struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
	Config        CollectionConfigDTO `json:"config"`
	DocumentCount int                 `json:"document_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Pagination describes a page of a larger result set.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// CollectionListResponse is the GET /collections response body.
type CollectionListResponse struct {
	Collections []CollectionResponse `json:"collections"`
	Pagination  Pagination            `json:"pagination"`
}

// EncodeCollection maps a domain Collection to its wire representation.
func EncodeCollection(c rag.Collection) CollectionResponse {
	return CollectionResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Metadata:    c.Metadata,
		Config: CollectionConfigDTO{
			EmbeddingModel:   c.Config.EmbeddingModel,
			EmbeddingDim:     c.Config.EmbeddingDim,
			ChunkTargetToken: c.Config.ChunkTargetToken,
			ChunkOverlap:     c.Config.ChunkOverlap,
		},
		DocumentCount: c.DocumentCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// EncodeCollectionList maps a page of collections plus its total count.
func EncodeCollectionList(collections []rag.Collection, limit, offset, total int) CollectionListResponse {
	out := make([]CollectionResponse, len(collections))
	for i, c := range collections {
		out[i] = EncodeCollection(c)
	}
	return CollectionListResponse{
		Collections: out,
		Pagination:  Pagination{Limit: limit, Offset: offset, Total: total},
	}
}

// DecodeNewCollection builds a domain Collection from a create request. The
// caller fills in ID, UserID, and timestamps.
func DecodeNewCollection(userID uuid.UUID, req CreateCollectionRequest) rag.Collection {
	return rag.Collection{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Metadata:    req.Metadata,
		Config: rag.CollectionConfig{
			EmbeddingModel:   req.Config.EmbeddingModel,
			EmbeddingDim:     req.Config.EmbeddingDim,
			ChunkTargetToken: req.Config.ChunkTargetToken,
			ChunkOverlap:     req.Config.ChunkOverlap,
		},
	}
}

// ApplyCollectionUpdate merges the non-nil fields of an update request onto
// an existing Collection, leaving everything else untouched.
func ApplyCollectionUpdate(c rag.Collection, req UpdateCollectionRequest) rag.Collection {
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Metadata != nil {
		c.Metadata = req.Metadata
	}
	return c
}
