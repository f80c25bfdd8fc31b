// Package retrieval implements the five retrieval modes over a collection's
// vector, keyword, and graph indexes, with reciprocal-rank-fusion for
// hybrid search and optional neighbor-chunk context expansion.
package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// Mode selects a retrieval strategy.
type Mode string

const (
	ModeSemantic     Mode = "semantic"
	ModeKeyword      Mode = "keyword"
	ModeHybrid       Mode = "hybrid"
	ModeHierarchical Mode = "hierarchical"
	ModeGraph        Mode = "graph"
)

// rrfK is the reciprocal-rank-fusion constant; lower values weight the
// top ranks of each modality more heavily.
const rrfK = 60

// DefaultHierarchicalTopDocs is used when unset; must be >= topK/2.
const DefaultHierarchicalTopDocs = 5

// Request describes one retrieval call. UserID scopes document enrichment
// lookups; the caller is responsible for having already authorized access
// to CollectionID for this user.
type Request struct {
	Query         string
	Mode          Mode
	TopK          int
	UserID        uuid.UUID
	CollectionID  uuid.UUID
	Filter        rag.RetrievalFilter
	ExpandContext bool
	HierarchicalN int // top-N documents for hierarchical mode; 0 uses the default
}

// DocumentRef is the lightweight document summary attached to each result.
type DocumentRef struct {
	ID       uuid.UUID
	Title    string
	Filename string
	Metadata map[string]string
}

// Result is one scored chunk enriched with document and collection context.
type Result struct {
	ChunkID         uuid.UUID
	Content         string
	ExpandedContent string
	ChunkIndex      int
	Score           float64
	Metadata        map[string]string
	ChunkMetadata   rag.ChunkMetadata
	Document        DocumentRef
	CollectionID    uuid.UUID
}

// Response is the engine's output contract.
type Response struct {
	Query            string
	Mode             Mode
	Results          []Result
	TotalResults     int
	ProcessingTimeMs int64
}

// Engine runs retrieval across the configured indexes.
type Engine struct {
	vector    rag.VectorIndex
	keyword   rag.KeywordIndex
	graph     rag.GraphIndex
	embedder  rag.Embedder
	documents rag.DocumentRepository
	chunks    rag.ChunkRepository
	synonyms  EntityExtractor
}

// EntityExtractor pulls candidate entity/keyword terms from a query for
// graph-mode retrieval.
type EntityExtractor interface {
	ExtractEntities(query string) []string
}

// New constructs an Engine. keyword, graph, and synonyms may be nil; modes
// that need them fall back per their documented behavior.
func New(vector rag.VectorIndex, keyword rag.KeywordIndex, graph rag.GraphIndex, embedder rag.Embedder, documents rag.DocumentRepository, chunks rag.ChunkRepository, entities EntityExtractor) *Engine {
	return &Engine{vector: vector, keyword: keyword, graph: graph, embedder: embedder, documents: documents, chunks: chunks, synonyms: entities}
}

// Retrieve runs req.Mode and returns a Response sorted by score descending
// with a deterministic (chunk_index, document_id) tie-break.
func (e *Engine) Retrieve(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	if topK > 50 {
		topK = 50
	}

	var (
		scored []rag.ScoredChunk
		err    error
	)
	switch req.Mode {
	case ModeSemantic, "":
		scored, err = e.semantic(ctx, req, topK)
	case ModeKeyword:
		scored, err = e.keywordSearch(ctx, req, topK)
	case ModeHybrid:
		scored, err = e.hybrid(ctx, req, topK)
	case ModeHierarchical:
		scored, err = e.hierarchical(ctx, req, topK)
	case ModeGraph:
		scored, err = e.graphSearch(ctx, req, topK)
	default:
		return Response{}, apperrors.New(apperrors.CodeValidation, "unknown retrieval mode")
	}
	if err != nil {
		return Response{}, err
	}

	sortScoredChunks(scored)
	if len(scored) > topK {
		scored = scored[:topK]
	}

	results := make([]Result, 0, len(scored))
	for _, sc := range scored {
		results = append(results, e.toResult(ctx, req.UserID, sc, req.ExpandContext))
	}

	return Response{
		Query:            req.Query,
		Mode:             req.Mode,
		Results:          results,
		TotalResults:     len(results),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func (e *Engine) semantic(ctx context.Context, req Request, topK int) ([]rag.ScoredChunk, error) {
	embedding, err := e.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, "failed to embed query", err)
	}
	return e.vector.SearchChunks(ctx, req.CollectionID, embedding, req.Filter, topK)
}

func (e *Engine) keywordSearch(ctx context.Context, req Request, topK int) ([]rag.ScoredChunk, error) {
	if e.keyword == nil {
		return nil, nil
	}
	return e.keyword.Search(ctx, req.CollectionID, req.Query, req.Filter, topK)
}

// hybrid runs semantic and keyword search and fuses their rankings with
// reciprocal rank fusion, deduplicating on chunk id and keeping the higher
// fused score; ties broken deterministically downstream in Retrieve.
func (e *Engine) hybrid(ctx context.Context, req Request, topK int) ([]rag.ScoredChunk, error) {
	fanOutK := topK * 3
	if fanOutK < topK {
		fanOutK = topK
	}

	semantic, semErr := e.semantic(ctx, req, fanOutK)
	if semErr != nil {
		semantic = nil
	}
	keyword, kwErr := e.keywordSearch(ctx, req, fanOutK)
	if kwErr != nil {
		keyword = nil
	}
	if semErr != nil && kwErr != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, "hybrid retrieval failed on both modalities", semErr)
	}

	return fuseRRF(semantic, keyword), nil
}

// fuseRRF combines two ranked lists via 1/(k+rank) per list, summing scores
// for chunks present in both, and normalizing the result into [0,1].
func fuseRRF(lists ...[]rag.ScoredChunk) []rag.ScoredChunk {
	type entry struct {
		chunk rag.Chunk
		score float64
	}
	fused := map[uuid.UUID]*entry{}
	for _, list := range lists {
		ranked := append([]rag.ScoredChunk(nil), list...)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		for rank, sc := range ranked {
			contribution := 1.0 / float64(rrfK+rank+1)
			if e, ok := fused[sc.Chunk.ID]; ok {
				e.score += contribution
			} else {
				fused[sc.Chunk.ID] = &entry{chunk: sc.Chunk, score: contribution}
			}
		}
	}

	var maxScore float64
	for _, e := range fused {
		if e.score > maxScore {
			maxScore = e.score
		}
	}
	out := make([]rag.ScoredChunk, 0, len(fused))
	for _, e := range fused {
		normalized := e.score
		if maxScore > 0 {
			normalized = e.score / maxScore
		}
		out = append(out, rag.ScoredChunk{Chunk: e.chunk, Score: normalized})
	}
	return out
}

// hierarchical searches document-level summary embeddings first, then
// restricts chunk search to the winning documents; falls back to semantic
// when no document summaries are indexed.
func (e *Engine) hierarchical(ctx context.Context, req Request, topK int) ([]rag.ScoredChunk, error) {
	topN := req.HierarchicalN
	if topN <= 0 {
		topN = DefaultHierarchicalTopDocs
	}
	if minDocs := (topK + 1) / 2; topN < minDocs {
		topN = minDocs
	}

	embedding, err := e.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstream, "failed to embed query", err)
	}
	docs, err := e.vector.SearchDocuments(ctx, req.CollectionID, embedding, topN)
	if err != nil || len(docs) == 0 {
		return e.semantic(ctx, req, topK)
	}

	filter := req.Filter
	for _, d := range docs {
		filter.DocumentIDs = append(filter.DocumentIDs, d.DocumentID)
	}
	return e.vector.SearchChunks(ctx, req.CollectionID, embedding, filter, topK)
}

func (e *Engine) graphSearch(ctx context.Context, req Request, topK int) ([]rag.ScoredChunk, error) {
	if e.graph == nil {
		return nil, nil
	}
	var entities []string
	if e.synonyms != nil {
		entities = e.synonyms.ExtractEntities(req.Query)
	}
	if len(entities) == 0 {
		entities = []string{req.Query}
	}
	return e.graph.SearchByEntities(ctx, req.CollectionID, entities, topK)
}

func sortScoredChunks(scored []rag.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.ChunkIndex != scored[j].Chunk.ChunkIndex {
			return scored[i].Chunk.ChunkIndex < scored[j].Chunk.ChunkIndex
		}
		return scored[i].Chunk.DocumentID.String() < scored[j].Chunk.DocumentID.String()
	})
}

func (e *Engine) toResult(ctx context.Context, userID uuid.UUID, sc rag.ScoredChunk, expand bool) Result {
	result := Result{
		ChunkID:       sc.Chunk.ID,
		Content:       sc.Chunk.Content,
		ChunkIndex:    sc.Chunk.ChunkIndex,
		Score:         sc.Score,
		ChunkMetadata: sc.Chunk.Metadata,
		CollectionID:  sc.Chunk.CollectionID,
	}
	if e.documents != nil {
		if doc, found, err := e.documents.Get(ctx, sc.Chunk.DocumentID, userID); err == nil && found {
			result.Document = DocumentRef{ID: doc.ID, Title: doc.Title, Filename: doc.Filename, Metadata: doc.Metadata}
		}
	}
	if expand && e.chunks != nil {
		prev, next, err := e.chunks.Neighbors(ctx, sc.Chunk.DocumentID, sc.Chunk.ChunkIndex)
		if err == nil {
			result.ExpandedContent = expandedContent(prev, sc.Chunk.Content, next)
		}
	}
	return result
}

func expandedContent(prev *rag.Chunk, content string, next *rag.Chunk) string {
	out := content
	if prev != nil {
		out = prev.Content + "\n\n" + out
	}
	if next != nil {
		out = out + "\n\n" + next.Content
	}
	return out
}
