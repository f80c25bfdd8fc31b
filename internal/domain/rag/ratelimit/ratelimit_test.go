package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ragforge/ragcore/pkg/errors"
)

func TestAllowBlocksAfterBurstExhausted(t *testing.T) {
	cfg := Config{Enabled: true, Limits: map[Class]ClassLimit{
		ClassChat: {RequestsPerPeriod: 10, Period: time.Minute, Burst: 10},
	}}
	limiter := New(cfg)

	for i := 0; i < 10; i++ {
		require.NoError(t, limiter.Allow(ClassChat, "api_key:abc"))
	}

	err := limiter.Allow(ClassChat, "api_key:abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeRateLimit))

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, appErr.RetryAfter, 1)
}

func TestAllowIsPerIdentity(t *testing.T) {
	cfg := Config{Enabled: true, Limits: map[Class]ClassLimit{
		ClassAuth: {RequestsPerPeriod: 1, Period: time.Minute, Burst: 1},
	}}
	limiter := New(cfg)

	require.NoError(t, limiter.Allow(ClassAuth, "ip:1.1.1.1"))
	assert.Error(t, limiter.Allow(ClassAuth, "ip:1.1.1.1"))
	assert.NoError(t, limiter.Allow(ClassAuth, "ip:2.2.2.2"))
}

func TestAllowDisabledNeverBlocks(t *testing.T) {
	limiter := New(Config{Enabled: false})
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Allow(ClassChat, "ip:1.1.1.1"))
	}
}

func TestAllowUnconfiguredClassIsUnrestricted(t *testing.T) {
	limiter := New(Config{Enabled: true, Limits: map[Class]ClassLimit{}})
	for i := 0; i < 50; i++ {
		require.NoError(t, limiter.Allow(ClassUpload, "ip:1.1.1.1"))
	}
}

func TestIdentityPrefersAPIKeyOverIP(t *testing.T) {
	assert.Equal(t, "api_key:abc123", Identity("abc123", "10.0.0.1"))
	assert.Equal(t, "ip:10.0.0.1", Identity("", "10.0.0.1"))
}
