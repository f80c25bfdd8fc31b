package contract

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

func TestFromErrorMapsKnownCode(t *testing.T) {
	status, body := FromError(apperrors.New(apperrors.CodeNotFound, "document not found"), "/documents/{id}", 0)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, apperrors.CodeNotFound, body.Error)
	require.Equal(t, "document not found", body.Message)
}

func TestFromErrorRateLimitIncludesLimitAndEndpoint(t *testing.T) {
	status, body := FromError(apperrors.RateLimited("slow down", 30), "/chat", 60)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, "rate_limit_exceeded", body.Error)
	require.Equal(t, 30, body.RetryAfter)
	require.Equal(t, 60, body.Limit)
	require.Equal(t, "/chat", body.Endpoint)
}

func TestFromErrorUnknownFallsBackToInternal(t *testing.T) {
	status, body := FromError(errors.New("boom"), "/chat", 0)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, apperrors.CodeInternal, body.Error)
}
