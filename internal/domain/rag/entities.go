package rag

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks ingestion pipeline progress.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// User owns collections and authenticates via a bcrypt credential hash
// plus a hashed API key shown once on registration.
type User struct {
	ID             uuid.UUID `json:"userId"`
	Email          string    `json:"email"`
	CredentialHash string    `json:"-"`
	APIKeyHash     string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CollectionConfig pins the embedding model and chunk sizing for every
// document ingested into the collection.
type CollectionConfig struct {
	EmbeddingModel   string `json:"embeddingModel"`
	EmbeddingDim     int    `json:"embeddingDim"`
	ChunkTargetToken int    `json:"chunkTargetTokens"`
	ChunkOverlap     int    `json:"chunkOverlap"`
}

// Collection is the unit of retrieval scoping.
type Collection struct {
	ID             uuid.UUID         `json:"collectionId"`
	UserID         uuid.UUID         `json:"userId"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Config         CollectionConfig  `json:"config"`
	DocumentCount  int               `json:"documentCount"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Document is a user-scoped file or URL submission within a collection.
type Document struct {
	ID                 uuid.UUID         `json:"documentId"`
	CollectionID       uuid.UUID         `json:"collectionId"`
	UserID             uuid.UUID         `json:"userId"`
	Title              string            `json:"title,omitempty"`
	Filename           string            `json:"filename,omitempty"`
	ContentType        string            `json:"contentType"`
	SizeBytes          int64             `json:"sizeBytes"`
	ContentHash        string            `json:"contentHash"`
	UniqueIdentityHash string            `json:"uniqueIdentifierHash,omitempty"`
	Status             DocumentStatus    `json:"status"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	ProcessingInfo      ProcessingInfo   `json:"processingInfo,omitempty"`
	DocumentEmbedding  []float32         `json:"-"`
	Summary            string            `json:"summary,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	ProcessedAt        *time.Time        `json:"processedAt,omitempty"`
}

// ProcessingInfo records the latest pipeline progress and any failure.
type ProcessingInfo struct {
	ChunkCount  int    `json:"chunkCount"`
	TotalTokens int    `json:"totalTokens"`
	Error       string `json:"error,omitempty"`
	Step        string `json:"step,omitempty"`
}

// ChunkAnnotation is attached to a chunk by a domain processor; a
// PreserveBoundary annotation must never be merged across by the chunker.
type ChunkAnnotation struct {
	Type             string            `json:"type"`
	Fields           map[string]string `json:"fields,omitempty"`
	PreserveBoundary bool              `json:"preserveBoundary"`
	// Offset is the byte offset into the processed document text where this
	// annotation's boundary begins. The chunker must not merge text spanning
	// an Offset whose annotation has PreserveBoundary set.
	Offset int `json:"offset"`
}

// ChunkMetadata captures structural provenance (parent section, page,
// referenced media) for a chunk.
type ChunkMetadata struct {
	ParentSection string   `json:"parentSection,omitempty"`
	Page          int      `json:"page,omitempty"`
	MediaRefs     []string `json:"mediaRefs,omitempty"`
}

// Chunk is a contiguous slice of document text with its own embedding.
type Chunk struct {
	ID           uuid.UUID         `json:"chunkId"`
	DocumentID   uuid.UUID         `json:"documentId"`
	CollectionID uuid.UUID         `json:"collectionId"`
	ChunkIndex   int               `json:"chunkIndex"`
	Content      string            `json:"content"`
	TokenCount   int               `json:"tokenCount"`
	Embedding    []float32         `json:"-"`
	Metadata     ChunkMetadata     `json:"metadata"`
	Annotations  []ChunkAnnotation `json:"annotations,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// ChatRole identifies the speaker of a ChatMessage.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatSession groups an ordered list of messages for one user.
type ChatSession struct {
	ID            uuid.UUID  `json:"sessionId"`
	UserID        uuid.UUID  `json:"userId"`
	CollectionID  *uuid.UUID `json:"collectionId,omitempty"`
	Title         string     `json:"title,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	MessageCount  int        `json:"messageCount"`
}

// ChatMessage is one append-only turn in a ChatSession.
type ChatMessage struct {
	ID        uuid.UUID `json:"messageId"`
	SessionID uuid.UUID `json:"sessionId"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentSummary is the hierarchical-retrieval feed: one row per
// document, written once via compare-and-set.
type DocumentSummary struct {
	DocumentID      uuid.UUID `json:"documentId"`
	SummaryText     string    `json:"summaryText"`
	SummaryEmbedding []float32 `json:"-"`
}

// CacheEntry is an ephemeral fingerprint→payload mapping with a TTL.
type CacheEntry struct {
	Fingerprint string
	Payload     string
	TTL         time.Duration
}
