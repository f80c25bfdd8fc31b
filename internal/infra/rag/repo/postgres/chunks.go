package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ChunkRepository persists document chunks in Postgres.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

// NewChunkRepository constructs the repository.
func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

func (r *ChunkRepository) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []rag.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM rag_chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		mediaRefs := strings.Join(c.Metadata.MediaRefs, ",")
		batch.Queue(`
			INSERT INTO rag_chunks (id, document_id, collection_id, chunk_index, content, token_count, embedding, parent_section, page, media_refs, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, c.ID, c.DocumentID, c.CollectionID, c.ChunkIndex, c.Content, c.TokenCount, pgvector.NewVector(c.Embedding), c.Metadata.ParentSection, c.Metadata.Page, mediaRefs, c.CreatedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ChunkRepository) DeleteForDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM rag_chunks WHERE document_id = $1`, documentID)
	return err
}

func (r *ChunkRepository) ListForDocument(ctx context.Context, documentID uuid.UUID) ([]rag.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, collection_id, chunk_index, content, token_count, embedding, parent_section, page, media_refs, created_at
		FROM rag_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []rag.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepository) Neighbors(ctx context.Context, documentID uuid.UUID, chunkIndex int) (*rag.Chunk, *rag.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, collection_id, chunk_index, content, token_count, embedding, parent_section, page, media_refs, created_at
		FROM rag_chunks
		WHERE document_id = $1 AND chunk_index IN ($2, $3)
	`, documentID, chunkIndex-1, chunkIndex+1)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var prev, next *rag.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, nil, err
		}
		switch c.ChunkIndex {
		case chunkIndex - 1:
			prev = &c
		case chunkIndex + 1:
			next = &c
		}
	}
	return prev, next, rows.Err()
}

func scanChunk(row pgx.Row) (rag.Chunk, error) {
	var c rag.Chunk
	var mediaRefsRaw string
	var embeddingRaw any
	if err := row.Scan(
		&c.ID, &c.DocumentID, &c.CollectionID, &c.ChunkIndex, &c.Content, &c.TokenCount, &embeddingRaw,
		&c.Metadata.ParentSection, &c.Metadata.Page, &mediaRefsRaw, &c.CreatedAt,
	); err != nil {
		return rag.Chunk{}, err
	}
	embedding, err := normalizeEmbedding(embeddingRaw)
	if err != nil {
		return rag.Chunk{}, err
	}
	c.Embedding = embedding
	if mediaRefsRaw != "" {
		c.Metadata.MediaRefs = strings.Split(mediaRefsRaw, ",")
	}
	return c, nil
}

var _ rag.ChunkRepository = (*ChunkRepository)(nil)
