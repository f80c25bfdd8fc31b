package embedder

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// DeterministicEmbedder hashes text into a pseudo-random vector instead of
// calling a provider. It backs EmbedTexts/EmbedQuery/SummarizeAndEmbed when no
// LLM client is configured, so ingestion and retrieval still exercise the
// vector index end to end in an offline environment.
type DeterministicEmbedder struct {
	Dim int
}

func (e DeterministicEmbedder) Dimension() int {
	if e.Dim <= 0 {
		return 32
	}
	return e.Dim
}

func (e DeterministicEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	dim := e.Dimension()
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, dim)
		hash := fnv.New64a()
		_, _ = hash.Write([]byte(text))
		seed := hash.Sum64()
		for j := 0; j < dim; j++ {
			seed = seed*1099511628211 + 1469598103934665603
			vector[j] = float32(seed%997) / 997.0
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (e DeterministicEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e DeterministicEmbedder) SummarizeAndEmbed(ctx context.Context, documentText string) (string, []float32, error) {
	summary := documentText
	if words := strings.Fields(documentText); len(words) > 64 {
		summary = strings.Join(words[:64], " ")
	}
	vector, err := e.EmbedQuery(ctx, summary)
	if err != nil {
		return "", nil, err
	}
	return summary, vector, nil
}

var _ rag.Embedder = DeterministicEmbedder{}
