package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// ChatSessionRepository persists chat sessions and their messages in
// Postgres.
type ChatSessionRepository struct {
	pool *pgxpool.Pool
}

// NewChatSessionRepository constructs the repository.
func NewChatSessionRepository(pool *pgxpool.Pool) *ChatSessionRepository {
	return &ChatSessionRepository{pool: pool}
}

func (r *ChatSessionRepository) Create(ctx context.Context, s rag.ChatSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO rag_chat_sessions (id, user_id, collection_id, title, created_at, message_count)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.UserID, s.CollectionID, s.Title, s.CreatedAt, s.MessageCount)
	return err
}

func (r *ChatSessionRepository) Get(ctx context.Context, id, userID uuid.UUID) (rag.ChatSession, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, collection_id, title, created_at, last_message_at, message_count
		FROM rag_chat_sessions
		WHERE id = $1 AND user_id = $2
		LIMIT 1
	`, id, userID)
	return scanSession(row)
}

func (r *ChatSessionRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]rag.ChatSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, collection_id, title, created_at, last_message_at, message_count
		FROM rag_chat_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []rag.ChatSession
	for rows.Next() {
		s, _, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *ChatSessionRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rag_chat_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	return nil
}

func (r *ChatSessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE rag_chat_sessions SET last_message_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeNotFound, "session not found")
	}
	return nil
}

func (r *ChatSessionRepository) ClearCollectionRef(ctx context.Context, collectionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE rag_chat_sessions SET collection_id = NULL WHERE collection_id = $1`, collectionID)
	return err
}

func (r *ChatSessionRepository) AppendMessage(ctx context.Context, m rag.ChatMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO rag_chat_messages (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE rag_chat_sessions SET message_count = message_count + 1 WHERE id = $1
	`, m.SessionID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ChatSessionRepository) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]rag.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM rag_chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []rag.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListRecentMessages fetches the full message history oldest-first and
// applies the token budget in-process, mirroring the in-memory adapter; the
// table has no per-message token count column to filter on in SQL.
func (r *ChatSessionRepository) ListRecentMessages(ctx context.Context, sessionID uuid.UUID, maxTokens, maxMessages int, tokenCounter func(string) int) ([]rag.ChatMessage, error) {
	all, err := r.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var out []rag.ChatMessage
	spent := 0
	for i := len(all) - 1; i >= 0 && len(out) < maxMessages; i-- {
		cost := tokenCounter(all[i].Content)
		if spent+cost > maxTokens {
			break
		}
		out = append([]rag.ChatMessage{all[i]}, out...)
		spent += cost
	}
	return out, nil
}

func scanSession(row pgx.Row) (rag.ChatSession, bool, error) {
	var s rag.ChatSession
	if err := row.Scan(&s.ID, &s.UserID, &s.CollectionID, &s.Title, &s.CreatedAt, &s.LastMessageAt, &s.MessageCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rag.ChatSession{}, false, nil
		}
		return rag.ChatSession{}, false, err
	}
	return s, true, nil
}

func scanMessage(row pgx.Row) (rag.ChatMessage, error) {
	var m rag.ChatMessage
	if err := row.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
		return rag.ChatMessage{}, err
	}
	return m, nil
}

var _ rag.ChatSessionRepository = (*ChatSessionRepository)(nil)
