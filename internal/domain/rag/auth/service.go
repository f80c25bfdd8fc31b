package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ragforge/ragcore/internal/domain/rag"
	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

// Service exposes the registration and authentication workflows.
type Service interface {
	// Register creates a new user and issues a one-time API key.
	Register(ctx context.Context, req RegisterRequest) (RegisterResult, error)
	// Authenticate resolves a presented API key (Bearer, X-API-Key, or
	// ?api_key=) to the user it belongs to.
	Authenticate(ctx context.Context, apiKey string) (rag.User, error)
}

type service struct {
	cfg    Config
	repo   rag.UserRepository
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, repo rag.UserRepository, logger *slog.Logger) Service {
	if cfg.APIKeyBytes <= 0 {
		cfg.APIKeyBytes = 32
	}
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return RegisterResult{}, apperrors.Wrap(apperrors.CodeValidation, "invalid email address", err)
	}
	if err := validatePassword(req.Password); err != nil {
		return RegisterResult{}, apperrors.Wrap(apperrors.CodeValidation, err.Error(), err)
	}

	_, exists, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return RegisterResult{}, apperrors.Wrap(apperrors.CodeInternal, "failed to check existing user", err)
	}
	if exists {
		return RegisterResult{}, apperrors.New(apperrors.CodeConflict, "email already registered")
	}

	credentialHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResult{}, apperrors.Wrap(apperrors.CodeInternal, "failed to hash password", err)
	}

	apiKey, err := newAPIKey(s.cfg.APIKeyBytes)
	if err != nil {
		return RegisterResult{}, apperrors.Wrap(apperrors.CodeInternal, "failed to generate api key", err)
	}

	user := rag.User{
		ID:             uuid.New(),
		Email:          email,
		CredentialHash: string(credentialHash),
		APIKeyHash:     hashAPIKey(apiKey),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return RegisterResult{}, err
		}
		return RegisterResult{}, apperrors.Wrap(apperrors.CodeInternal, "failed to create user", err)
	}

	s.logger.Info("user registered", "userID", user.ID)
	return RegisterResult{UserID: user.ID, Email: user.Email, APIKey: apiKey}, nil
}

func (s *service) Authenticate(ctx context.Context, apiKey string) (rag.User, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return rag.User{}, apperrors.New(apperrors.CodeAuth, "missing api key")
	}
	user, found, err := s.repo.FindByAPIKeyHash(ctx, hashAPIKey(apiKey))
	if err != nil {
		return rag.User{}, apperrors.Wrap(apperrors.CodeInternal, "failed to look up api key", err)
	}
	if !found {
		return rag.User{}, apperrors.New(apperrors.CodeAuth, "invalid api key")
	}
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// newAPIKey generates a random API key, hex-encoded. The plaintext is
// returned to the caller exactly once; only its hash is persisted.
func newAPIKey(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "rag_" + hex.EncodeToString(buf), nil
}

// hashAPIKey produces a deterministic digest suitable for equality lookups.
// bcrypt can't serve this: its per-call salt means the same key hashes
// differently each time, so it can't be used as a lookup index.
func hashAPIKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}
