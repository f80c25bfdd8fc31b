package contract

import (
	"bytes"

	"github.com/gin-contrib/sse"
	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag/chat"
	"github.com/ragforge/ragcore/internal/domain/rag/prompt"
	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

// ChatRetrievalOptions is the nested "retrieval" block of a ChatRequest.
type ChatRetrievalOptions struct {
	Mode          string `json:"mode,omitempty"`
	TopK          int    `json:"top_k,omitempty"`
	ExpandContext bool   `json:"expand_context,omitempty"`
}

// ChatGenerationOptions is the nested "generation" block of a ChatRequest.
type ChatGenerationOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// ChatRequest is the POST /chat request body.
type ChatRequest struct {
	Messages          []ChatHistoryMessage  `json:"messages,omitempty"`
	Message           string                `json:"message,omitempty"`
	SessionID         *uuid.UUID            `json:"session_id,omitempty"`
	CollectionID      uuid.UUID             `json:"collection_id,omitempty"`
	Model             string                `json:"model,omitempty"`
	Preset            string                `json:"preset,omitempty"`
	ReasoningMode     string                `json:"reasoning_mode,omitempty"`
	Temperature       *float64              `json:"temperature,omitempty"`
	MaxTokens         *int                  `json:"max_tokens,omitempty"`
	Retrieval         ChatRetrievalOptions  `json:"retrieval,omitempty"`
	Generation        ChatGenerationOptions `json:"generation,omitempty"`
	CustomInstruction string                `json:"custom_instruction,omitempty"`
	IsFollowUp        bool                  `json:"is_follow_up,omitempty"`
	Stream            *bool                 `json:"stream,omitempty"`
}

// ChatHistoryMessage is one entry of the optional inline "messages" array;
// only the last user turn is forwarded, the rest is context the caller
// already has persisted elsewhere.
type ChatHistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// lastUserMessage returns the freeform question for this turn, preferring
// the flat "message" field and falling back to the last "messages" entry.
func (r ChatRequest) lastUserMessage() string {
	if r.Message != "" {
		return r.Message
	}
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// DecodeChatRequest maps a wire ChatRequest to a domain chat.Request.
func DecodeChatRequest(userID uuid.UUID, req ChatRequest) chat.Request {
	mode := retrieval.Mode(req.Retrieval.Mode)
	reasoning := chat.ReasoningMode(req.ReasoningMode)
	if reasoning == "" {
		reasoning = chat.ReasoningStandard
	}
	return chat.Request{
		UserID:        userID,
		SessionID:     req.SessionID,
		CollectionID:  req.CollectionID,
		Message:       req.lastUserMessage(),
		Preset:        prompt.Preset(req.Preset),
		RetrievalMode: mode,
		TopK:          req.Retrieval.TopK,
		Reasoning:     reasoning,
		CustomPrompt:  req.CustomInstruction,
	}
}

// WantsStream reports whether the caller asked for an SSE stream; true by
// default per §6, since /chat is a streaming endpoint unless told otherwise.
func (r ChatRequest) WantsStream() bool {
	return r.Stream == nil || *r.Stream
}

// ChatEventDTO is the JSON payload carried inside each SSE "data:" frame.
type ChatEventDTO struct {
	Type       string                `json:"type"`
	Delta      string                `json:"delta,omitempty"`
	Sources    []RetrievalResultDTO  `json:"sources,omitempty"`
	Media      []ChatMediaDTO        `json:"media,omitempty"`
	FollowUps  []string              `json:"follow_ups,omitempty"`
	Step       string                `json:"step,omitempty"`
	SubQuery   string                `json:"sub_query,omitempty"`
	Usage      *ChatUsageDTO         `json:"usage,omitempty"`
	SessionID  uuid.UUID             `json:"session_id,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// ChatMediaDTO is one media reference surfaced in a "media" event.
type ChatMediaDTO struct {
	Type       string    `json:"type"`
	DocumentID uuid.UUID `json:"document_id"`
	Page       int       `json:"page,omitempty"`
	Reference  string    `json:"reference"`
}

// ChatUsageDTO is the token accounting carried in the terminal "usage"/"done" events.
type ChatUsageDTO struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EncodeChatEvent maps a domain chat.Event to its wire DTO.
func EncodeChatEvent(e chat.Event) ChatEventDTO {
	dto := ChatEventDTO{
		Type:      string(e.Type),
		Delta:     e.Delta,
		FollowUps: e.FollowUps,
		Step:      e.Step,
		SubQuery:  e.SubQuery,
		SessionID: e.SessionID,
		Error:     e.Error,
	}
	if len(e.Sources) > 0 {
		dto.Sources = make([]RetrievalResultDTO, len(e.Sources))
		for i, s := range e.Sources {
			dto.Sources[i] = RetrievalResultDTO{
				ChunkID:    s.ChunkID,
				DocumentID: s.DocumentID,
				Score:      s.Score,
			}
			dto.Sources[i].DocumentTitle = s.Title
		}
	}
	if len(e.Media) > 0 {
		dto.Media = make([]ChatMediaDTO, len(e.Media))
		for i, m := range e.Media {
			dto.Media[i] = ChatMediaDTO{
				Type:       m.Type,
				DocumentID: m.DocumentID,
				Page:       m.Page,
				Reference:  m.Reference,
			}
		}
	}
	if e.Usage != nil {
		dto.Usage = &ChatUsageDTO{
			PromptTokens:     e.Usage.PromptTokens,
			CompletionTokens: e.Usage.CompletionTokens,
			TotalTokens:      e.Usage.TotalTokens,
		}
	}
	return dto
}

// EncodeSSEFrame renders a chat.Event as a complete "event: ...\ndata:
// ...\n\n" wire frame, the way a handler would write it directly to a
// gin.ResponseWriter via c.Render(http.StatusOK, sse.Event{...}). gin-contrib/sse
// json-encodes any Data value that isn't already a string or []byte.
func EncodeSSEFrame(e chat.Event) (string, error) {
	var buf bytes.Buffer
	if err := sse.Encode(&buf, sse.Event{Event: string(e.Type), Data: EncodeChatEvent(e)}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
