package rag

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// ObjectStorage abstracts blob storage (R2/S3/local) for raw uploads.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// Embedder produces embeddings and document summaries.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	SummarizeAndEmbed(ctx context.Context, documentText string) (summary string, vector []float32, err error)
	Dimension() int
}

// LLMMessage mirrors a vendor-neutral chat payload entry.
type LLMMessage struct {
	Role    string
	Content string
}

// GenerationParams is the vendor-neutral parameter set the LLM port accepts;
// provider-specific extras are ignored or translated by the adapter.
type GenerationParams struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// LLM generates answers, optionally streaming incremental tokens to onDelta.
type LLM interface {
	Chat(ctx context.Context, messages []LLMMessage, params GenerationParams) (string, error)
	ChatStream(ctx context.Context, messages []LLMMessage, params GenerationParams, onDelta func(string) error) (string, error)
}

// VectorIndex stores chunk and document embeddings keyed by chunk_id / document_id.
type VectorIndex interface {
	UpsertChunks(ctx context.Context, chunks []Chunk) error
	DeleteDocument(ctx context.Context, documentID uuid.UUID) error
	SearchChunks(ctx context.Context, collectionID uuid.UUID, embedding []float32, filter RetrievalFilter, topK int) ([]ScoredChunk, error)
	UpsertDocumentEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error
	SearchDocuments(ctx context.Context, collectionID uuid.UUID, embedding []float32, topN int) ([]ScoredDocument, error)
}

// ScoredChunk pairs a chunk with a similarity score in [0,1].
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// ScoredDocument pairs a document id with a summary-embedding similarity score.
type ScoredDocument struct {
	DocumentID uuid.UUID
	Score      float64
}

// KeywordIndex performs BM25-style search over chunk content.
type KeywordIndex interface {
	IndexChunks(ctx context.Context, chunks []Chunk) error
	DeleteDocument(ctx context.Context, documentID uuid.UUID) error
	Search(ctx context.Context, collectionID uuid.UUID, query string, filter RetrievalFilter, topK int) ([]ScoredChunk, error)
}

// GraphIndex retrieves chunks connected to query entities/keywords.
type GraphIndex interface {
	IndexChunks(ctx context.Context, chunks []Chunk) error
	DeleteDocument(ctx context.Context, documentID uuid.UUID) error
	SearchByEntities(ctx context.Context, collectionID uuid.UUID, entities []string, topK int) ([]ScoredChunk, error)
}

// Cache is the ephemeral KV store backing CacheEntry lookups.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// JobQueue enqueues ingestion work for asynchronous processing.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

// VisionPort describes an image: a natural-language description plus any
// OCR'd text, used by the Image parser (C2) and by media dispatch.
type VisionPort interface {
	Describe(ctx context.Context, imageBytes []byte, mimeType string) (description string, ocrText string, err error)
}

// SpeechPort transcribes audio, used by the Audio and Video parsers (C2).
type SpeechPort interface {
	Transcribe(ctx context.Context, audioBytes []byte, mimeType string) (transcript string, language string, err error)
}

// TranscriptPort fetches a timestamped transcript and oEmbed metadata for a
// web video, used by the Web-transcript parser (C2).
type TranscriptPort interface {
	FetchTranscript(ctx context.Context, videoID string) (transcript string, err error)
	FetchOEmbed(ctx context.Context, pageURL string) (title, author string, err error)
}

// VideoTool probes a video's metadata and extracts its audio track, used by
// the Video parser (C2) ahead of dispatch to SpeechPort.
type VideoTool interface {
	Probe(ctx context.Context, data []byte) (duration time.Duration, width, height int, codec string, err error)
	ExtractAudio(ctx context.Context, data []byte) ([]byte, error)
}

// RetrievalFilter restricts scope to a metadata subset and/or document set.
type RetrievalFilter struct {
	DocumentIDs []uuid.UUID
	Metadata    map[string]string
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, bool, error)
	FindByAPIKeyHash(ctx context.Context, hash string) (User, bool, error)
}

// CollectionRepository persists collection metadata.
type CollectionRepository interface {
	Create(ctx context.Context, c Collection) error
	Get(ctx context.Context, id, userID uuid.UUID) (Collection, bool, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Collection, int, error)
	Update(ctx context.Context, c Collection) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	IncrementDocumentCount(ctx context.Context, id uuid.UUID, delta int) error
}

// DocumentFilter restricts document listing/dedupe lookups.
type DocumentFilter struct {
	CollectionID *uuid.UUID
	Statuses     []DocumentStatus
	Limit        int
	Offset       int
}

// DocumentRepository persists document metadata and drives dedupe lookups.
type DocumentRepository interface {
	Create(ctx context.Context, d Document) error
	Update(ctx context.Context, d Document) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status DocumentStatus, info ProcessingInfo) error
	Get(ctx context.Context, id, userID uuid.UUID) (Document, bool, error)
	List(ctx context.Context, userID uuid.UUID, filter DocumentFilter) ([]Document, int, error)
	FindByContentHash(ctx context.Context, userID uuid.UUID, contentHash string) (Document, bool, error)
	FindByUniqueIdentityHash(ctx context.Context, userID uuid.UUID, hash string) (Document, bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	SetSummaryIfNull(ctx context.Context, id uuid.UUID, summary string, embedding []float32) (bool, error)
}

// ChunkRepository persists and cascades chunks for a document.
type ChunkRepository interface {
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []Chunk) error
	DeleteForDocument(ctx context.Context, documentID uuid.UUID) error
	ListForDocument(ctx context.Context, documentID uuid.UUID) ([]Chunk, error)
	Neighbors(ctx context.Context, documentID uuid.UUID, chunkIndex int) (prev, next *Chunk, err error)
}

// ChatSessionRepository persists chat sessions and their messages.
type ChatSessionRepository interface {
	Create(ctx context.Context, s ChatSession) error
	Get(ctx context.Context, id, userID uuid.UUID) (ChatSession, bool, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ChatSession, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	ClearCollectionRef(ctx context.Context, collectionID uuid.UUID) error
	AppendMessage(ctx context.Context, m ChatMessage) error
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]ChatMessage, error)
	ListRecentMessages(ctx context.Context, sessionID uuid.UUID, maxTokens, maxMessages int, tokenCounter func(string) int) ([]ChatMessage, error)
}
