package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// CollectionRepository persists collections in Postgres.
type CollectionRepository struct {
	pool *pgxpool.Pool
}

// NewCollectionRepository constructs the repository.
func NewCollectionRepository(pool *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{pool: pool}
}

func (r *CollectionRepository) Create(ctx context.Context, c rag.Collection) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return err
	}
	config, err := json.Marshal(c.Config)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO rag_collections (id, user_id, name, description, metadata, config, document_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.UserID, c.Name, c.Description, metadata, config, c.DocumentCount, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CollectionRepository) Get(ctx context.Context, id, userID uuid.UUID) (rag.Collection, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, metadata, config, document_count, created_at, updated_at
		FROM rag_collections
		WHERE id = $1 AND user_id = $2
		LIMIT 1
	`, id, userID)
	return scanCollection(row)
}

func (r *CollectionRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]rag.Collection, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM rag_collections WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, description, metadata, config, document_count, created_at, updated_at
		FROM rag_collections
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var collections []rag.Collection
	for rows.Next() {
		c, _, err := scanCollection(rows)
		if err != nil {
			return nil, 0, err
		}
		collections = append(collections, c)
	}
	return collections, total, rows.Err()
}

func (r *CollectionRepository) Update(ctx context.Context, c rag.Collection) error {
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return err
	}
	config, err := json.Marshal(c.Config)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE rag_collections
		SET name = $1, description = $2, metadata = $3, config = $4, updated_at = NOW()
		WHERE id = $5
	`, c.Name, c.Description, metadata, config, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	return nil
}

func (r *CollectionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rag_collections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	return nil
}

func (r *CollectionRepository) IncrementDocumentCount(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rag_collections
		SET document_count = document_count + $1, updated_at = NOW()
		WHERE id = $2
	`, delta, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "collection not found")
	}
	return nil
}

func scanCollection(row pgx.Row) (rag.Collection, bool, error) {
	var c rag.Collection
	var metadata, config []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &metadata, &config, &c.DocumentCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rag.Collection{}, false, nil
		}
		return rag.Collection{}, false, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return rag.Collection{}, false, err
		}
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &c.Config); err != nil {
			return rag.Collection{}, false, err
		}
	}
	return c, true, nil
}

var _ rag.CollectionRepository = (*CollectionRepository)(nil)
