// Package chat orchestrates one conversational turn: session resolution,
// optional query reformulation, retrieval, optional reranking, prompt
// assembly, streamed generation, and persistence of the exchange.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	"github.com/ragforge/ragcore/internal/domain/rag/prompt"
	"github.com/ragforge/ragcore/internal/domain/rag/reformulate"
	"github.com/ragforge/ragcore/internal/domain/rag/rerank"
	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// ReasoningMode selects how many retrieval/generation rounds a turn uses.
type ReasoningMode string

const (
	ReasoningStandard ReasoningMode = "standard"
	ReasoningDeep     ReasoningMode = "deep"
)

const maxDeepIterations = 3

// disconnectAbortBound is the maximum time a turn may take to unwind after
// the caller's context is canceled; see run's doc comment for how the
// orchestrator stays within it.
const disconnectAbortBound = 500 * time.Millisecond

// Config drives per-turn defaults; callers may override per request.
type Config struct {
	DefaultPreset           prompt.Preset
	DefaultRetrievalMode    retrieval.Mode
	DefaultTopK             int
	ReformulationEnabled    bool
	ReformulationMode       reformulate.Mode
	RerankEnabled           bool
	HistoryTokenBudget      int
	Model                   string
	Temperature             float64
}

// Request is one turn submitted by a client.
type Request struct {
	UserID         uuid.UUID
	SessionID      *uuid.UUID
	CollectionID   uuid.UUID
	Message        string
	Preset         prompt.Preset
	RetrievalMode  retrieval.Mode
	TopK           int
	Reasoning      ReasoningMode
	CustomPrompt   string
}

// Service orchestrates chat turns and streams Events to the caller.
type Service struct {
	cfg          Config
	sessions     rag.ChatSessionRepository
	reformulator *reformulate.Service
	retriever    *retrieval.Engine
	reranker     rerank.Reranker
	assembler    *prompt.Assembler
	llm          rag.LLM
	logger       *slog.Logger
}

// New constructs a Service.
func New(cfg Config, sessions rag.ChatSessionRepository, reformulator *reformulate.Service, retriever *retrieval.Engine, reranker rerank.Reranker, assembler *prompt.Assembler, llm rag.LLM, logger *slog.Logger) *Service {
	if reranker == nil {
		reranker = rerank.Passthrough{}
	}
	return &Service{
		cfg:          cfg,
		sessions:     sessions,
		reformulator: reformulator,
		retriever:    retriever,
		reranker:     reranker,
		assembler:    assembler,
		llm:          llm,
		logger:       logger.With("component", "chat.orchestrator"),
	}
}

// Ask runs one turn and streams Events on the returned channel; the channel
// is closed once EventDone or EventError has been sent. If ctx is canceled
// mid-stream, the orchestrator aborts generation and any in-flight
// retrieval within disconnectAbortBound and does not persist the partial
// assistant message.
func (s *Service) Ask(ctx context.Context, req Request) (<-chan Event, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "message cannot be empty")
	}

	sessionID, priorMessages, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	userMsg := rag.ChatMessage{ID: uuid.New(), SessionID: sessionID, Role: rag.ChatRoleUser, Content: message, CreatedAt: time.Now()}
	if err := s.sessions.AppendMessage(ctx, userMsg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to persist user message", err)
	}

	events := make(chan Event, 16)
	go s.run(ctx, sessionID, req, message, priorMessages, events)
	return events, nil
}

func (s *Service) resolveSession(ctx context.Context, req Request) (uuid.UUID, []rag.ChatMessage, error) {
	if req.SessionID != nil {
		session, found, err := s.sessions.Get(ctx, *req.SessionID, req.UserID)
		if err != nil {
			return uuid.Nil, nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load session", err)
		}
		if !found {
			return uuid.Nil, nil, apperrors.New(apperrors.CodeNotFound, "session not found")
		}
		history, err := s.sessions.ListMessages(ctx, session.ID)
		if err != nil {
			s.logger.Warn("failed to load session history", "session_id", session.ID, "error", err)
		}
		return session.ID, history, nil
	}
	collectionID := req.CollectionID
	session := rag.ChatSession{ID: uuid.New(), UserID: req.UserID, CollectionID: &collectionID, CreatedAt: time.Now()}
	if err := s.sessions.Create(ctx, session); err != nil {
		return uuid.Nil, nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create session", err)
	}
	return session.ID, nil, nil
}

// run drives retrieval and generation using the caller's ctx directly:
// context cancellation propagates to the HTTP transport under ChatStream
// and to repository/index calls immediately, which keeps the abort well
// within the disconnectAbortBound without any extra machinery here.
func (s *Service) run(ctx context.Context, sessionID uuid.UUID, req Request, message string, history []rag.ChatMessage, events chan<- Event) {
	defer close(events)

	reasoning := req.Reasoning
	if reasoning == "" {
		reasoning = ReasoningStandard
	}

	queryText := s.reformulate(ctx, message, history)

	retrievalMode := req.RetrievalMode
	if retrievalMode == "" {
		retrievalMode = s.cfg.DefaultRetrievalMode
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	results, err := s.retrieveAndMerge(ctx, req, queryText, retrievalMode, topK, reasoning, events)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		events <- Event{Type: EventError, Error: err.Error()}
		return
	}

	if s.cfg.RerankEnabled {
		ranked, err := s.reranker.Rerank(ctx, queryText, results)
		if err == nil {
			results = make([]retrieval.Result, len(ranked))
			for i, r := range ranked {
				results[i] = r.Result
			}
		}
	}

	assembled, err := s.assembler.Build(prompt.Request{
		Query:              message,
		Chunks:             results,
		Preset:             firstNonEmptyPreset(req.Preset, s.cfg.DefaultPreset),
		CustomSystemPrompt: req.CustomPrompt,
		IsFollowUp:         len(history) > 0,
	})
	if err != nil {
		events <- Event{Type: EventError, Error: err.Error()}
		return
	}

	messages := []rag.LLMMessage{{Role: "system", Content: assembled.SystemPrompt}}
	messages = append(messages, s.budgetedHistory(history)...)
	messages = append(messages, rag.LLMMessage{Role: "user", Content: message})

	var answer strings.Builder
	onDelta := func(delta string) error {
		select {
		case events <- Event{Type: EventDelta, Delta: delta}:
		case <-ctx.Done():
			return ctx.Err()
		}
		answer.WriteString(delta)
		return nil
	}

	full, err := s.llm.ChatStream(ctx, messages, rag.GenerationParams{Model: s.cfg.Model, Temperature: s.cfg.Temperature}, onDelta)
	if err != nil {
		if ctx.Err() != nil {
			// Client disconnected mid-stream: abort without persisting.
			return
		}
		events <- Event{Type: EventError, Error: err.Error()}
		return
	}
	if full == "" {
		full = answer.String()
	}

	events <- Event{Type: EventSources, Sources: toSourceRefs(results)}
	events <- Event{Type: EventMedia, Media: toMediaRefs(results)}
	events <- Event{Type: EventFollowUp, FollowUps: s.suggestFollowUps(ctx, message, full)}

	assistantMsg := rag.ChatMessage{ID: uuid.New(), SessionID: sessionID, Role: rag.ChatRoleAssistant, Content: full, CreatedAt: time.Now()}
	if err := s.sessions.AppendMessage(context.Background(), assistantMsg); err != nil {
		s.logger.Error("failed to persist assistant message", "session_id", sessionID, "error", err)
	}
	_ = s.sessions.Touch(context.Background(), sessionID, time.Now())

	usage := &Usage{PromptTokens: estimateTokens(assembled.SystemPrompt + message), CompletionTokens: estimateTokens(full)}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	events <- Event{Type: EventDone, Usage: usage, SessionID: sessionID}
}

// reformulate returns the reformulated query text, or message unchanged
// when reformulation is disabled or fails.
func (s *Service) reformulate(ctx context.Context, message string, history []rag.ChatMessage) string {
	if !s.cfg.ReformulationEnabled || s.reformulator == nil {
		return message
	}
	mode := s.cfg.ReformulationMode
	if mode == "" {
		mode = reformulate.ModeExpand
	}
	results, err := s.reformulator.ReformulateWithContext(ctx, message, history, mode)
	if err != nil || len(results) == 0 {
		return message
	}
	return results[0]
}

// retrieveAndMerge runs one retrieval for ReasoningStandard, or up to
// maxDeepIterations sub-query rounds for ReasoningDeep, merging results by
// chunk id and keeping the max score across rounds.
func (s *Service) retrieveAndMerge(ctx context.Context, req Request, query string, mode retrieval.Mode, topK int, reasoning ReasoningMode, events chan<- Event) ([]retrieval.Result, error) {
	base, err := s.retriever.Retrieve(ctx, retrieval.Request{
		Query: query, Mode: mode, TopK: topK, UserID: req.UserID, CollectionID: req.CollectionID, ExpandContext: true,
	})
	if err != nil {
		return nil, err
	}
	if reasoning != ReasoningDeep {
		return base.Results, nil
	}

	merged := map[uuid.UUID]retrieval.Result{}
	for _, r := range base.Results {
		merged[r.ChunkID] = r
	}
	events <- Event{Type: EventReasoningStep, Step: "initial retrieval complete"}

	subQueries := s.generateSubQueries(ctx, query, base.Results)
	if len(subQueries) > maxDeepIterations {
		subQueries = subQueries[:maxDeepIterations]
	}
	for _, sq := range subQueries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		events <- Event{Type: EventSubQuery, SubQuery: sq}
		resp, err := s.retriever.Retrieve(ctx, retrieval.Request{
			Query: sq, Mode: mode, TopK: topK, UserID: req.UserID, CollectionID: req.CollectionID, ExpandContext: true,
		})
		if err != nil {
			continue
		}
		for _, r := range resp.Results {
			if existing, ok := merged[r.ChunkID]; !ok || r.Score > existing.Score {
				merged[r.ChunkID] = r
			}
		}
	}
	events <- Event{Type: EventReasoningStep, Step: "sub-query retrieval merged"}

	out := make([]retrieval.Result, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	return out, nil
}

// generateSubQueries asks the LLM for follow-on sub-queries to deepen
// retrieval; on any failure it returns no sub-queries and deep mode
// degrades to a single round.
func (s *Service) generateSubQueries(ctx context.Context, query string, results []retrieval.Result) []string {
	if len(results) == 0 {
		return nil
	}
	preview := make([]string, 0, len(results))
	for i, r := range results {
		if i >= 3 {
			break
		}
		preview = append(preview, r.Content)
	}
	askPrompt := fmt.Sprintf(
		"Given the question %q and the following retrieved context, propose up to 3 focused sub-questions "+
			"that would help answer it more completely. One per line, no numbering.\n\nContext:\n%s",
		query, strings.Join(preview, "\n---\n"))

	answer, err := s.llm.Chat(ctx, []rag.LLMMessage{{Role: "user", Content: askPrompt}}, rag.GenerationParams{Model: s.cfg.Model, Temperature: 0.4, MaxTokens: 150})
	if err != nil {
		return nil
	}
	var subQueries []string
	for _, line := range strings.Split(answer, "\n") {
		clean := strings.TrimSpace(line)
		if clean != "" {
			subQueries = append(subQueries, clean)
		}
	}
	return subQueries
}

func (s *Service) suggestFollowUps(ctx context.Context, question, answer string) []string {
	askPrompt := fmt.Sprintf(
		"Suggest up to 3 short, natural follow-up questions a user might ask next, given this Q&A.\nQuestion: %s\nAnswer: %s\nOne per line, no numbering.",
		question, answer)
	response, err := s.llm.Chat(ctx, []rag.LLMMessage{{Role: "user", Content: askPrompt}}, rag.GenerationParams{Model: s.cfg.Model, Temperature: 0.5, MaxTokens: 100})
	if err != nil {
		return nil
	}
	var suggestions []string
	for _, line := range strings.Split(response, "\n") {
		clean := strings.TrimSpace(line)
		if clean != "" {
			suggestions = append(suggestions, clean)
		}
		if len(suggestions) == 3 {
			break
		}
	}
	return suggestions
}

// budgetedHistory returns as many trailing history messages as fit within
// the configured token budget, oldest-first.
func (s *Service) budgetedHistory(history []rag.ChatMessage) []rag.LLMMessage {
	budget := s.cfg.HistoryTokenBudget
	if budget <= 0 {
		budget = 2000
	}
	var (
		out   []rag.LLMMessage
		spent int
	)
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		cost := estimateTokens(msg.Content)
		if spent+cost > budget {
			break
		}
		out = append([]rag.LLMMessage{{Role: string(msg.Role), Content: msg.Content}}, out...)
		spent += cost
	}
	return out
}

func toSourceRefs(results []retrieval.Result) []SourceRef {
	out := make([]SourceRef, len(results))
	for i, r := range results {
		out[i] = SourceRef{Index: i + 1, ChunkID: r.ChunkID, DocumentID: r.Document.ID, Title: r.Document.Title, Score: r.Score}
	}
	return out
}

func toMediaRefs(results []retrieval.Result) []MediaRef {
	var out []MediaRef
	for _, r := range results {
		for _, ref := range r.ChunkMetadata.MediaRefs {
			out = append(out, MediaRef{Type: "image", DocumentID: r.Document.ID, Page: r.ChunkMetadata.Page, Reference: ref})
		}
	}
	return out
}

func firstNonEmptyPreset(values ...prompt.Preset) prompt.Preset {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return prompt.DefaultPreset
}

func estimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	runes := utf8.RuneCountInString(trimmed)
	tokens := runes / 4
	if tokens < words {
		tokens = words
	}
	return tokens
}
