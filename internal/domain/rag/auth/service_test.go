package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragforge/ragcore/internal/infra/rag/repo/memory"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceRegisterAndAuthenticate(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(DefaultConfig(), repo, newTestLogger())

	result, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "User@Example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", result.Email)
	require.NotEmpty(t, result.APIKey)
	require.NotZero(t, result.UserID)

	user, err := svc.Authenticate(context.Background(), result.APIKey)
	require.NoError(t, err)
	require.Equal(t, result.UserID, user.ID)
	require.Equal(t, "user@example.com", user.Email)
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(DefaultConfig(), repo, newTestLogger())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "dup@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "dup@example.com",
		Password: "anotherpass",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestServiceRegisterInvalidInput(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(DefaultConfig(), repo, newTestLogger())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "not-an-email", Password: "pass1234"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterRequest{Email: "ok@example.com", Password: "short"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestServiceAuthenticateUnknownKeyFails(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(DefaultConfig(), repo, newTestLogger())

	_, err := svc.Authenticate(context.Background(), "rag_doesnotexist")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeAuth))
}
