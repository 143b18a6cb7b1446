package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-engine/internal/config"
	"casino-engine/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "0123456789abcdef", JWTTTL: time.Hour})

	token, err := svc.GenerateToken("alice")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.NotEmpty(t, claims.SessionID)

	other := services.NewJWTService(&config.Config{JWTSecret: "fedcba9876543210", JWTTTL: time.Hour})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)

	_, err = svc.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	svc := services.NewJWTService(&config.Config{JWTSecret: "0123456789abcdef", JWTTTL: -time.Minute})

	token, err := svc.GenerateToken("alice")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestMemoryRateLimiter(t *testing.T) {
	clock := services.NewManualClock(t0)
	l := services.NewMemoryRateLimiter(clock)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		ok, err := l.CheckRateLimit(ctx, "alice", "games", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.CheckRateLimit(ctx, "alice", "games", 3, time.Minute)
	assert.False(t, ok)

	ok, _ = l.CheckRateLimit(ctx, "bob", "games", 3, time.Minute)
	assert.True(t, ok, "limits are per subject")

	clock.Advance(time.Minute)
	ok, _ = l.CheckRateLimit(ctx, "alice", "games", 3, time.Minute)
	assert.True(t, ok)
}
