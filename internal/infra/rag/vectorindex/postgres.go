package vectorindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// PostgresVectorIndex stores chunk and document embeddings in Postgres and
// searches them via pgvector's nearest-neighbour operators.
type PostgresVectorIndex struct {
	pool *pgxpool.Pool
}

// NewPostgresVectorIndex constructs a PostgresVectorIndex. The caller is
// responsible for ensuring the pgvector extension and schema exist.
func NewPostgresVectorIndex(pool *pgxpool.Pool) *PostgresVectorIndex {
	return &PostgresVectorIndex{pool: pool}
}

func (idx *PostgresVectorIndex) UpsertChunks(ctx context.Context, chunks []rag.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range chunks {
		mediaRefs := strings.Join(c.Metadata.MediaRefs, ",")
		batch.Queue(`
			INSERT INTO rag_chunks (id, document_id, collection_id, chunk_index, content, token_count, embedding, parent_section, page, media_refs, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				token_count = EXCLUDED.token_count,
				embedding = EXCLUDED.embedding,
				parent_section = EXCLUDED.parent_section,
				page = EXCLUDED.page,
				media_refs = EXCLUDED.media_refs
		`, c.ID, c.DocumentID, c.CollectionID, c.ChunkIndex, c.Content, c.TokenCount, pgvector.NewVector(c.Embedding), c.Metadata.ParentSection, c.Metadata.Page, mediaRefs, c.CreatedAt)
	}
	return idx.pool.SendBatch(ctx, batch).Close()
}

func (idx *PostgresVectorIndex) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := idx.pool.Exec(ctx, `DELETE FROM rag_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}
	_, err = idx.pool.Exec(ctx, `DELETE FROM rag_document_embeddings WHERE document_id = $1`, documentID)
	return err
}

func (idx *PostgresVectorIndex) SearchChunks(ctx context.Context, collectionID uuid.UUID, embedding []float32, filter rag.RetrievalFilter, topK int) ([]rag.ScoredChunk, error) {
	query := `
		SELECT
			id, document_id, collection_id, chunk_index, content, token_count, embedding,
			parent_section, page, media_refs, created_at,
			(1.0 / (1.0 + (embedding <-> $1))) AS score
		FROM rag_chunks
		WHERE collection_id = $2
	`
	args := []any{pgvector.NewVector(embedding), collectionID}
	argPos := 3
	if len(filter.DocumentIDs) > 0 {
		query += ` AND document_id = ANY($` + strconv.Itoa(argPos) + `)`
		args = append(args, filter.DocumentIDs)
		argPos++
	}
	if section, ok := filter.Metadata["parentSection"]; ok {
		query += ` AND parent_section = $` + strconv.Itoa(argPos)
		args = append(args, section)
		argPos++
	}
	query += ` ORDER BY (embedding <-> $1) ASC LIMIT $` + strconv.Itoa(argPos)
	limit := topK
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	rows, err := idx.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []rag.ScoredChunk
	for rows.Next() {
		var (
			c            rag.Chunk
			mediaRefsRaw string
			embeddingRaw any
			score        float64
		)
		if err := rows.Scan(
			&c.ID, &c.DocumentID, &c.CollectionID, &c.ChunkIndex, &c.Content, &c.TokenCount, &embeddingRaw,
			&c.Metadata.ParentSection, &c.Metadata.Page, &mediaRefsRaw, &c.CreatedAt, &score,
		); err != nil {
			return nil, err
		}
		parsed, err := normalizeEmbedding(embeddingRaw)
		if err != nil {
			return nil, err
		}
		c.Embedding = parsed
		if mediaRefsRaw != "" {
			c.Metadata.MediaRefs = strings.Split(mediaRefsRaw, ",")
		}
		results = append(results, rag.ScoredChunk{Chunk: c, Score: score})
	}
	return results, rows.Err()
}

func (idx *PostgresVectorIndex) UpsertDocumentEmbedding(ctx context.Context, documentID uuid.UUID, embedding []float32) error {
	_, err := idx.pool.Exec(ctx, `
		INSERT INTO rag_document_embeddings (document_id, embedding)
		VALUES ($1, $2)
		ON CONFLICT (document_id) DO UPDATE SET embedding = EXCLUDED.embedding
	`, documentID, pgvector.NewVector(embedding))
	return err
}

func (idx *PostgresVectorIndex) SearchDocuments(ctx context.Context, collectionID uuid.UUID, embedding []float32, topN int) ([]rag.ScoredDocument, error) {
	limit := topN
	if limit <= 0 {
		limit = 10
	}
	rows, err := idx.pool.Query(ctx, `
		SELECT e.document_id, (1.0 / (1.0 + (e.embedding <-> $1))) AS score
		FROM rag_document_embeddings e
		JOIN rag_documents d ON d.id = e.document_id
		WHERE d.collection_id = $2
		ORDER BY (e.embedding <-> $1) ASC
		LIMIT $3
	`, pgvector.NewVector(embedding), collectionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []rag.ScoredDocument
	for rows.Next() {
		var d rag.ScoredDocument
		if err := rows.Scan(&d.DocumentID, &d.Score); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

func normalizeEmbedding(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case pgvector.Vector:
		return append([]float32(nil), v.Slice()...), nil
	case []float32:
		return append([]float32(nil), v...), nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case string:
		trimmed := strings.TrimSpace(v)
		trimmed = strings.TrimPrefix(trimmed, "[")
		trimmed = strings.TrimSuffix(trimmed, "]")
		if trimmed == "" {
			return nil, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]float32, 0, len(parts))
		for _, p := range parts {
			numStr := strings.TrimSpace(p)
			if numStr == "" {
				continue
			}
			f, err := strconv.ParseFloat(numStr, 32)
			if err != nil {
				return nil, err
			}
			out = append(out, float32(f))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported embedding type %T", raw)
	}
}

var _ rag.VectorIndex = (*PostgresVectorIndex)(nil)
