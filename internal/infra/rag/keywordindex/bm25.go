// Package keywordindex implements a hand-rolled BM25 full-text index used
// as the keyword leg of hybrid retrieval.
package keywordindex

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	return matches
}

// BM25Index is an in-process, BM25-ranked keyword index. Postings are kept
// per collection and rebuilt incrementally as chunks are indexed.
type BM25Index struct {
	mu sync.RWMutex

	docToCollection map[uuid.UUID]uuid.UUID
	postings        map[uuid.UUID]map[string][]posting // collectionID -> term -> postings
	chunkTermFreq   map[uuid.UUID]map[string]int        // chunkID -> term -> freq
	chunkLength     map[uuid.UUID]int
	chunks          map[uuid.UUID]rag.Chunk
	totalLength     map[uuid.UUID]int // collectionID -> sum of chunk lengths
	docCount        map[uuid.UUID]int // collectionID -> number of chunks
}

type posting struct {
	chunkID uuid.UUID
	freq    int
}

// NewBM25Index constructs an empty BM25Index.
func NewBM25Index() *BM25Index {
	return &BM25Index{
		docToCollection: make(map[uuid.UUID]uuid.UUID),
		postings:        make(map[uuid.UUID]map[string][]posting),
		chunkTermFreq:   make(map[uuid.UUID]map[string]int),
		chunkLength:     make(map[uuid.UUID]int),
		chunks:          make(map[uuid.UUID]rag.Chunk),
		totalLength:     make(map[uuid.UUID]int),
		docCount:        make(map[uuid.UUID]int),
	}
}

func (idx *BM25Index) IndexChunks(_ context.Context, chunks []rag.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, c := range chunks {
		idx.docToCollection[c.DocumentID] = c.CollectionID
		idx.removeChunkLocked(c.ID)

		terms := tokenize(c.Content)
		freq := make(map[string]int, len(terms))
		for _, t := range terms {
			freq[t]++
		}
		idx.chunks[c.ID] = c
		idx.chunkTermFreq[c.ID] = freq
		idx.chunkLength[c.ID] = len(terms)
		idx.totalLength[c.CollectionID] += len(terms)
		idx.docCount[c.CollectionID]++

		collPostings, ok := idx.postings[c.CollectionID]
		if !ok {
			collPostings = make(map[string][]posting)
			idx.postings[c.CollectionID] = collPostings
		}
		for term, f := range freq {
			collPostings[term] = append(collPostings[term], posting{chunkID: c.ID, freq: f})
		}
	}
	return nil
}

// removeChunkLocked removes a previously indexed chunk's postings. Callers
// must hold idx.mu.
func (idx *BM25Index) removeChunkLocked(chunkID uuid.UUID) {
	old, ok := idx.chunks[chunkID]
	if !ok {
		return
	}
	collPostings := idx.postings[old.CollectionID]
	for term := range idx.chunkTermFreq[chunkID] {
		filtered := collPostings[term][:0]
		for _, p := range collPostings[term] {
			if p.chunkID != chunkID {
				filtered = append(filtered, p)
			}
		}
		collPostings[term] = filtered
	}
	idx.totalLength[old.CollectionID] -= idx.chunkLength[chunkID]
	idx.docCount[old.CollectionID]--
	delete(idx.chunks, chunkID)
	delete(idx.chunkTermFreq, chunkID)
	delete(idx.chunkLength, chunkID)
}

func (idx *BM25Index) DeleteDocument(_ context.Context, documentID uuid.UUID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for chunkID, c := range idx.chunks {
		if c.DocumentID == documentID {
			idx.removeChunkLocked(chunkID)
		}
	}
	delete(idx.docToCollection, documentID)
	return nil
}

func (idx *BM25Index) Search(_ context.Context, collectionID uuid.UUID, query string, filter rag.RetrievalFilter, topK int) ([]rag.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docCount := idx.docCount[collectionID]
	if docCount == 0 {
		return nil, nil
	}
	avgLength := float64(idx.totalLength[collectionID]) / float64(docCount)

	allowedDocs := make(map[uuid.UUID]bool, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		allowedDocs[id] = true
	}

	collPostings := idx.postings[collectionID]
	scores := make(map[uuid.UUID]float64)
	for _, term := range uniqueTokens(query) {
		matches := collPostings[term]
		if len(matches) == 0 {
			continue
		}
		idf := math.Log(1 + (float64(docCount)-float64(len(matches))+0.5)/(float64(len(matches))+0.5))
		for _, p := range matches {
			chunk := idx.chunks[p.chunkID]
			if len(allowedDocs) > 0 && !allowedDocs[chunk.DocumentID] {
				continue
			}
			length := float64(idx.chunkLength[p.chunkID])
			norm := float64(p.freq) * (bm25K1 + 1) / (float64(p.freq) + bm25K1*(1-bm25B+bm25B*length/avgLength))
			scores[p.chunkID] += idf * norm
		}
	}

	results := make([]rag.ScoredChunk, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, rag.ScoredChunk{Chunk: idx.chunks[chunkID], Score: score})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func uniqueTokens(query string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, t := range tokenize(query) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

var _ rag.KeywordIndex = (*BM25Index)(nil)
