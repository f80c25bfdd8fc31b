// Package embedder adapts an HTTP embeddings/summarization provider to the
// rag.Embedder port, with a deterministic offline fallback for tests.
package embedder

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ragforge/ragcore/internal/domain/rag"
	"github.com/ragforge/ragcore/internal/infra/rag/llm"
)

const maxBatchTokens = 200_000 // stay well below provider batch caps

// ProviderEmbedder batches embedding requests by an estimated token budget
// and uses the LLM client for document summarization.
type ProviderEmbedder struct {
	Client       *llm.Client
	Model        string
	SummaryModel string
	Dim          int
}

func (e ProviderEmbedder) Dimension() int { return e.Dim }

func (e ProviderEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         [][]float32
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.Client.CreateEmbedding(ctx, llm.EmbeddingRequest{Model: e.Model, Input: batch})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		for _, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			copy(vec, item.Embedding)
			out = append(out, vec)
		}
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := estimateTokens(text)
		if tokens > maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: estimated tokens=%d", tokens)
		}
		if batchTokens+tokens > maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e ProviderEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors")
	}
	return vecs[0], nil
}

func (e ProviderEmbedder) SummarizeAndEmbed(ctx context.Context, documentText string) (string, []float32, error) {
	model := e.SummaryModel
	if model == "" {
		model = e.Model
	}
	resp, err := e.Client.CreateChatCompletion(ctx, llm.ChatCompletionRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: "system", Content: "Summarize the following document in under 1000 tokens, preserving key facts."},
			{Role: "user", Content: documentText},
		},
	})
	if err != nil {
		return "", nil, fmt.Errorf("summarize document: %w", err)
	}
	summary := ""
	if len(resp.Choices) > 0 {
		summary = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	vector, err := e.EmbedQuery(ctx, summary)
	if err != nil {
		return "", nil, fmt.Errorf("embed summary: %w", err)
	}
	return summary, vector, nil
}

var _ rag.Embedder = ProviderEmbedder{}

// estimateTokens over-estimates to stay under provider caps.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}
