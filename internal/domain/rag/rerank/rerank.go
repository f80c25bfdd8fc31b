// Package rerank attaches a rerank_score to retrieved chunks and reorders
// them; used only when chat retrieval configuration enables it.
package rerank

import (
	"context"
	"sort"

	"github.com/ragforge/ragcore/internal/domain/rag/retrieval"
)

// Candidate pairs a retrieval result with its rerank score.
type Candidate struct {
	retrieval.Result
	RerankScore float64
}

// Reranker reorders retrieval candidates by a finer-grained relevance signal.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []retrieval.Result) ([]Candidate, error)
}

// Passthrough leaves ordering untouched and copies each result's existing
// score into RerankScore; used when no reranking model is configured.
type Passthrough struct{}

func (Passthrough) Rerank(_ context.Context, _ string, candidates []retrieval.Result) ([]Candidate, error) {
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = Candidate{Result: c, RerankScore: c.Score}
	}
	return out, nil
}

var _ Reranker = Passthrough{}

// LexicalOverlap scores candidates by the fraction of query terms that
// appear in the chunk content; a deterministic, dependency-free reranker
// for environments without a cross-encoder model configured.
type LexicalOverlap struct{}

func (LexicalOverlap) Rerank(_ context.Context, query string, candidates []retrieval.Result) ([]Candidate, error) {
	terms := tokenize(query)
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = Candidate{Result: c, RerankScore: overlapScore(terms, tokenize(c.Content))}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RerankScore != out[j].RerankScore {
			return out[i].RerankScore > out[j].RerankScore
		}
		if out[i].ChunkIndex != out[j].ChunkIndex {
			return out[i].ChunkIndex < out[j].ChunkIndex
		}
		return out[i].Document.ID.String() < out[j].Document.ID.String()
	})
	return out, nil
}

var _ Reranker = LexicalOverlap{}

func tokenize(text string) map[string]bool {
	set := map[string]bool{}
	word := make([]rune, 0, 16)
	flush := func() {
		if len(word) > 0 {
			set[string(word)] = true
			word = word[:0]
		}
	}
	for _, r := range text {
		if isWordRune(r) {
			word = append(word, toLower(r))
			continue
		}
		flush()
	}
	flush()
	return set
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func overlapScore(query, content map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for term := range query {
		if content[term] {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
