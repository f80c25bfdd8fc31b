// Package reformulate rewrites a user query before retrieval: expanding it
// with related terms, clarifying typos/acronyms, or producing several
// alternative phrasings.
package reformulate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// Mode selects a reformulation strategy.
type Mode string

const (
	ModeExpand  Mode = "expand"
	ModeClarify Mode = "clarify"
	ModeMulti   Mode = "multi"
)

const callTimeout = 10 * time.Second
const cacheTTL = 24 * time.Hour

// Config toggles reformulation and selects the model used for it.
type Config struct {
	Enabled bool
	Model   string
}

// Service reformulates queries, optionally using conversation context, and
// caches results by (query, mode).
type Service struct {
	cfg    Config
	llm    rag.LLM
	cache  rag.Cache
	logger *slog.Logger
}

// New constructs a Service. cache may be nil to disable caching.
func New(cfg Config, llm rag.LLM, cache rag.Cache, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, llm: llm, cache: cache, logger: logger.With("component", "reformulate.service")}
}

// Reformulate rewrites query per mode. When disabled or on any failure it
// returns the original query unchanged (wrapped in a single-element slice
// for ModeMulti).
func (s *Service) Reformulate(ctx context.Context, query string, mode Mode) ([]string, error) {
	query = strings.TrimSpace(query)
	if !s.cfg.Enabled || query == "" {
		return s.identity(query, mode), nil
	}

	cacheKey := cacheKeyFor(query, mode)
	if s.cache != nil {
		if cached, found, err := s.cache.Get(ctx, cacheKey); err == nil && found {
			if queries, ok := decodeCached(cached, mode); ok {
				return queries, nil
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var (
		result []string
		err    error
	)
	switch mode {
	case ModeExpand:
		var text string
		text, err = s.call(callCtx, expandPrompt(query), 0.3)
		result = []string{text}
	case ModeClarify:
		var text string
		text, err = s.call(callCtx, clarifyPrompt(query), 0.1)
		result = []string{text}
	case ModeMulti:
		result, err = s.multi(callCtx, query)
	default:
		s.logger.Warn("unknown reformulation mode", "mode", mode)
		return s.identity(query, mode), nil
	}
	if err != nil {
		s.logger.Error("query reformulation failed", "mode", mode, "error", err)
		return s.identity(query, mode), nil
	}

	if s.cache != nil {
		if encoded, ok := encodeForCache(result, mode); ok {
			if err := s.cache.Set(ctx, cacheKey, encoded, cacheTTL); err != nil {
				s.logger.Warn("failed to cache reformulated query", "error", err)
			}
		}
	}
	return result, nil
}

// ReformulateWithContext reformulates using the last three conversation
// turns for continuity; falls back to context-free Reformulate when no
// history is present or on any failure.
func (s *Service) ReformulateWithContext(ctx context.Context, query string, history []rag.ChatMessage, mode Mode) ([]string, error) {
	if len(history) == 0 {
		return s.Reformulate(ctx, query, mode)
	}
	if !s.cfg.Enabled {
		return s.identity(query, mode), nil
	}

	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	var contextLines strings.Builder
	for _, m := range recent {
		content := m.Content
		if len(content) > 100 {
			content = content[:100]
		}
		fmt.Fprintf(&contextLines, "%s: %s\n", m.Role, content)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	prompt := fmt.Sprintf(contextPromptTemplate, contextLines.String(), query)
	text, err := s.call(callCtx, prompt, 0.3)
	if err != nil {
		s.logger.Error("context-aware reformulation failed", "error", err)
		return s.Reformulate(ctx, query, mode)
	}
	return []string{text}, nil
}

func (s *Service) identity(query string, mode Mode) []string {
	if mode == ModeMulti {
		return []string{query}
	}
	return []string{query}
}

func (s *Service) call(ctx context.Context, prompt string, temperature float64) (string, error) {
	answer, err := s.llm.Chat(ctx, []rag.LLMMessage{{Role: "user", Content: prompt}}, rag.GenerationParams{
		Model:       s.cfg.Model,
		Temperature: temperature,
		MaxTokens:   150,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (s *Service) multi(ctx context.Context, query string) ([]string, error) {
	answer, err := s.llm.Chat(ctx, []rag.LLMMessage{{Role: "user", Content: multiPrompt(query)}}, rag.GenerationParams{
		Model:       s.cfg.Model,
		Temperature: 0.7,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, err
	}
	queries := []string{query}
	for _, line := range strings.Split(answer, "\n") {
		clean := strings.Trim(strings.TrimSpace(line), "123456789.-) ")
		clean = strings.TrimSpace(clean)
		if clean == "" || contains(queries, clean) {
			continue
		}
		queries = append(queries, clean)
	}
	if len(queries) > 4 {
		queries = queries[:4]
	}
	return queries, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cacheKeyFor(query string, mode Mode) string {
	sum := sha256.Sum256([]byte(string(mode) + "\x00" + query))
	return "reformulate:" + hex.EncodeToString(sum[:16])
}

// decodeCached reads the cached payload; multi mode is stored as JSON to
// avoid any delimiter ambiguity in the generated alternatives.
func decodeCached(cached string, mode Mode) ([]string, bool) {
	if mode == ModeMulti {
		var queries []string
		if err := json.Unmarshal([]byte(cached), &queries); err != nil {
			return nil, false
		}
		return queries, true
	}
	return []string{cached}, true
}

func encodeForCache(result []string, mode Mode) (string, bool) {
	if mode == ModeMulti {
		encoded, err := json.Marshal(result)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
	if len(result) == 0 {
		return "", false
	}
	return result[0], true
}

func expandPrompt(query string) string {
	return fmt.Sprintf(`Expand this search query by adding 2-3 relevant synonyms or related terms.
Keep it concise and focused on the same topic.
Only output the expanded query, nothing else.

Original query: %s

Expanded query:`, query)
}

func clarifyPrompt(query string) string {
	return fmt.Sprintf(`Fix any typos and expand acronyms in this search query.
Keep the meaning the same but make it clearer.
Only output the clarified query, nothing else.

Original query: %s

Clarified query:`, query)
}

func multiPrompt(query string) string {
	return fmt.Sprintf(`Generate 3 different ways to search for this information.
Each query should be unique but related to the same topic.
Output only the queries, one per line, without numbering.

Original query: %s

Alternative queries:`, query)
}

const contextPromptTemplate = `Given this conversation context, reformulate the current query.

Context:
%s
Current query: %s

Reformulated query:`
