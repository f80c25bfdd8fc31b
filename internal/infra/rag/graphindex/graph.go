// Package graphindex implements an in-process entity co-occurrence graph
// used as the graph leg of retrieval. Chunks sharing an entity are linked;
// a search walks out from the query's matched entities and scores chunks by
// how many of those entities they share.
package graphindex

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// GraphIndex is an in-process rag.GraphIndex backed by an entity-to-chunk
// adjacency map, scoped per collection.
type GraphIndex struct {
	mu sync.RWMutex

	chunks          map[uuid.UUID]rag.Chunk
	entityToChunks  map[uuid.UUID]map[string]map[uuid.UUID]struct{} // collectionID -> entity -> chunkIDs
	chunkToEntities map[uuid.UUID][]string
}

// NewGraphIndex constructs an empty GraphIndex.
func NewGraphIndex() *GraphIndex {
	return &GraphIndex{
		chunks:          make(map[uuid.UUID]rag.Chunk),
		entityToChunks:  make(map[uuid.UUID]map[string]map[uuid.UUID]struct{}),
		chunkToEntities: make(map[uuid.UUID][]string),
	}
}

// entitiesOf returns the normalized entity set for a chunk, sourced from
// its annotations of type "entity".
func entitiesOf(c rag.Chunk) []string {
	var out []string
	for _, a := range c.Annotations {
		if a.Type != "entity" {
			continue
		}
		if name, ok := a.Fields["name"]; ok && name != "" {
			out = append(out, strings.ToLower(name))
		}
	}
	return out
}

func (g *GraphIndex) IndexChunks(_ context.Context, chunks []rag.Chunk) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range chunks {
		g.removeChunkLocked(c.ID)
		g.chunks[c.ID] = c
		entities := entitiesOf(c)
		g.chunkToEntities[c.ID] = entities

		byEntity, ok := g.entityToChunks[c.CollectionID]
		if !ok {
			byEntity = make(map[string]map[uuid.UUID]struct{})
			g.entityToChunks[c.CollectionID] = byEntity
		}
		for _, e := range entities {
			if byEntity[e] == nil {
				byEntity[e] = make(map[uuid.UUID]struct{})
			}
			byEntity[e][c.ID] = struct{}{}
		}
	}
	return nil
}

func (g *GraphIndex) removeChunkLocked(chunkID uuid.UUID) {
	old, ok := g.chunks[chunkID]
	if !ok {
		return
	}
	byEntity := g.entityToChunks[old.CollectionID]
	for _, e := range g.chunkToEntities[chunkID] {
		if set, ok := byEntity[e]; ok {
			delete(set, chunkID)
		}
	}
	delete(g.chunks, chunkID)
	delete(g.chunkToEntities, chunkID)
}

func (g *GraphIndex) DeleteDocument(_ context.Context, documentID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for chunkID, c := range g.chunks {
		if c.DocumentID == documentID {
			g.removeChunkLocked(chunkID)
		}
	}
	return nil
}

func (g *GraphIndex) SearchByEntities(_ context.Context, collectionID uuid.UUID, entities []string, topK int) ([]rag.ScoredChunk, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	byEntity := g.entityToChunks[collectionID]
	if len(byEntity) == 0 {
		return nil, nil
	}

	hits := make(map[uuid.UUID]int)
	for _, e := range entities {
		norm := strings.ToLower(e)
		for chunkID := range byEntity[norm] {
			hits[chunkID]++
		}
	}

	results := make([]rag.ScoredChunk, 0, len(hits))
	for chunkID, count := range hits {
		results = append(results, rag.ScoredChunk{
			Chunk: g.chunks[chunkID],
			Score: float64(count) / float64(len(entities)),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID.String() < results[j].Chunk.ID.String()
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

var _ rag.GraphIndex = (*GraphIndex)(nil)
