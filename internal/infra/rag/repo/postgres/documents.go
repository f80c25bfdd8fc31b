package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// DocumentRepository persists documents in Postgres.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d rag.Document) error {
	metadata, err := json.Marshal(d.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO rag_documents (
			id, collection_id, user_id, title, filename, content_type, size_bytes, content_hash,
			unique_identity_hash, status, metadata, chunk_count, total_tokens, processing_error, processing_step,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12, $13, $14, $15, $16, $17)
	`, d.ID, d.CollectionID, d.UserID, d.Title, d.Filename, d.ContentType, d.SizeBytes, d.ContentHash,
		d.UniqueIdentityHash, d.Status, metadata, d.ProcessingInfo.ChunkCount, d.ProcessingInfo.TotalTokens,
		d.ProcessingInfo.Error, d.ProcessingInfo.Step, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *DocumentRepository) Update(ctx context.Context, d rag.Document) error {
	metadata, err := json.Marshal(d.Metadata)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE rag_documents
		SET title = $1, filename = $2, content_type = $3, size_bytes = $4, content_hash = $5,
			unique_identity_hash = NULLIF($6, ''), status = $7, metadata = $8,
			chunk_count = $9, total_tokens = $10, processing_error = $11, processing_step = $12,
			updated_at = NOW()
		WHERE id = $13
	`, d.Title, d.Filename, d.ContentType, d.SizeBytes, d.ContentHash, d.UniqueIdentityHash, d.Status,
		metadata, d.ProcessingInfo.ChunkCount, d.ProcessingInfo.TotalTokens, d.ProcessingInfo.Error, d.ProcessingInfo.Step, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status rag.DocumentStatus, info rag.ProcessingInfo) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rag_documents
		SET status = $1, chunk_count = $2, total_tokens = $3, processing_error = $4, processing_step = $5,
			processed_at = CASE WHEN $1 IN ('completed', 'failed') THEN NOW() ELSE processed_at END,
			updated_at = NOW()
		WHERE id = $6
	`, status, info.ChunkCount, info.TotalTokens, info.Error, info.Step, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, id, userID uuid.UUID) (rag.Document, bool, error) {
	row := r.pool.QueryRow(ctx, documentSelect+` WHERE id = $1 AND user_id = $2 LIMIT 1`, id, userID)
	return scanDocument(row)
}

func (r *DocumentRepository) List(ctx context.Context, userID uuid.UUID, filter rag.DocumentFilter) ([]rag.Document, int, error) {
	where := `WHERE user_id = $1`
	countArgs := []any{userID}
	args := []any{userID}
	argPos := 2
	if filter.CollectionID != nil {
		where += ` AND collection_id = $` + strconv.Itoa(argPos)
		args = append(args, *filter.CollectionID)
		countArgs = append(countArgs, *filter.CollectionID)
		argPos++
	}
	if len(filter.Statuses) > 0 {
		where += ` AND status = ANY($` + strconv.Itoa(argPos) + `)`
		args = append(args, filter.Statuses)
		countArgs = append(countArgs, filter.Statuses)
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rag_documents `+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := documentSelect + " " + where + ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argPos) + ` OFFSET $` + strconv.Itoa(argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []rag.Document
	for rows.Next() {
		d, _, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	return docs, total, rows.Err()
}

func (r *DocumentRepository) FindByContentHash(ctx context.Context, userID uuid.UUID, contentHash string) (rag.Document, bool, error) {
	row := r.pool.QueryRow(ctx, documentSelect+` WHERE user_id = $1 AND content_hash = $2 LIMIT 1`, userID, contentHash)
	return scanDocument(row)
}

func (r *DocumentRepository) FindByUniqueIdentityHash(ctx context.Context, userID uuid.UUID, hash string) (rag.Document, bool, error) {
	row := r.pool.QueryRow(ctx, documentSelect+` WHERE user_id = $1 AND unique_identity_hash = $2 LIMIT 1`, userID, hash)
	return scanDocument(row)
}

func (r *DocumentRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rag_documents WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	return nil
}

func (r *DocumentRepository) SetSummaryIfNull(ctx context.Context, id uuid.UUID, summary string, embedding []float32) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rag_documents
		SET summary = $1, document_embedding = $2
		WHERE id = $3 AND (summary IS NULL OR summary = '')
	`, summary, pgvector.NewVector(embedding), id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const documentSelect = `
	SELECT id, collection_id, user_id, title, filename, content_type, size_bytes, content_hash,
		COALESCE(unique_identity_hash, ''), status, metadata, chunk_count, total_tokens,
		COALESCE(processing_error, ''), COALESCE(processing_step, ''), COALESCE(summary, ''),
		created_at, updated_at
	FROM rag_documents
`

func scanDocument(row pgx.Row) (rag.Document, bool, error) {
	var d rag.Document
	var metadata []byte
	if err := row.Scan(
		&d.ID, &d.CollectionID, &d.UserID, &d.Title, &d.Filename, &d.ContentType, &d.SizeBytes, &d.ContentHash,
		&d.UniqueIdentityHash, &d.Status, &metadata, &d.ProcessingInfo.ChunkCount, &d.ProcessingInfo.TotalTokens,
		&d.ProcessingInfo.Error, &d.ProcessingInfo.Step, &d.Summary, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rag.Document{}, false, nil
		}
		return rag.Document{}, false, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return rag.Document{}, false, err
		}
	}
	return d, true, nil
}

var _ rag.DocumentRepository = (*DocumentRepository)(nil)
