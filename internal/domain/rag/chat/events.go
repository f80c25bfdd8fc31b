package chat

import "github.com/google/uuid"

// EventType names one SSE frame kind emitted during a chat turn.
type EventType string

const (
	EventDelta        EventType = "delta"
	EventSources       EventType = "sources"
	EventMedia         EventType = "media"
	EventFollowUp      EventType = "follow_up"
	EventReasoningStep EventType = "reasoning_step"
	EventSubQuery      EventType = "sub_query"
	EventUsage         EventType = "usage"
	EventDone          EventType = "done"
	EventError         EventType = "error"
)

// Event is one frame in the turn's SSE stream.
type Event struct {
	Type EventType `json:"type"`

	// EventDelta
	Delta string `json:"delta,omitempty"`

	// EventSources
	Sources []SourceRef `json:"sources,omitempty"`

	// EventMedia
	Media []MediaRef `json:"media,omitempty"`

	// EventFollowUp
	FollowUps []string `json:"followUps,omitempty"`

	// EventReasoningStep / EventSubQuery
	Step     string `json:"step,omitempty"`
	SubQuery string `json:"subQuery,omitempty"`

	// EventUsage / EventDone
	Usage     *Usage     `json:"usage,omitempty"`
	SessionID uuid.UUID  `json:"sessionId,omitempty"`

	// EventError
	Error string `json:"error,omitempty"`
}

// SourceRef is a lightweight citation reference attached after generation.
type SourceRef struct {
	Index      int       `json:"index"`
	ChunkID    uuid.UUID `json:"chunkId"`
	DocumentID uuid.UUID `json:"documentId"`
	Title      string    `json:"title"`
	Score      float64   `json:"score"`
}

// MediaRef points at an image/table/figure found in a retrieved chunk.
type MediaRef struct {
	Type       string    `json:"type"` // image | table | figure
	DocumentID uuid.UUID `json:"documentId"`
	Page       int       `json:"page,omitempty"`
	Reference  string    `json:"reference"`
}

// Usage reports token accounting for the terminal done event.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}
