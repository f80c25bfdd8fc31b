// Package postgres implements the rag domain's repository ports against
// Postgres using pgx/v5, with pgvector for embedding columns.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// UserRepository persists users in Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs the repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u rag.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rag_users (id, email, credential_hash, api_key_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, u.CredentialHash, u.APIKeyHash, u.CreatedAt)
	if isDuplicateError(err) {
		return apperrors.New(apperrors.CodeConflict, "email already registered")
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (rag.User, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, credential_hash, api_key_hash, created_at
		FROM rag_users
		WHERE email = $1
		LIMIT 1
	`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (rag.User, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, credential_hash, api_key_hash, created_at
		FROM rag_users
		WHERE id = $1
		LIMIT 1
	`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByAPIKeyHash(ctx context.Context, hash string) (rag.User, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, credential_hash, api_key_hash, created_at
		FROM rag_users
		WHERE api_key_hash = $1
		LIMIT 1
	`, hash)
	return scanUser(row)
}

func scanUser(row pgx.Row) (rag.User, bool, error) {
	var u rag.User
	if err := row.Scan(&u.ID, &u.Email, &u.CredentialHash, &u.APIKeyHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rag.User{}, false, nil
		}
		return rag.User{}, false, err
	}
	return u, true, nil
}

func isDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ rag.UserRepository = (*UserRepository)(nil)
