package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-engine/internal/fairness"
	"casino-engine/internal/models"
	"casino-engine/internal/payout"
	"casino-engine/internal/services"
)

func TestVerifyReveal(t *testing.T) {
	seed := "verify-seed"
	hash := fairness.HashSeed(seed)

	v, err := services.VerifyReveal(models.GameTypeSlots, nil, seed, hash, clientSeed, 3)
	require.NoError(t, err)
	assert.True(t, v.Valid)

	want := payout.ResolveOutcome(models.GameTypeSlots, fairness.DeriveOutcome(seed, clientSeed, 3))
	assert.Equal(t, want, v.Outcome)
	m, err := payout.Multiplier(models.GameTypeSlots, nil, want)
	require.NoError(t, err)
	assert.Equal(t, m, v.Multiplier)

	v, err = services.VerifyReveal(models.GameTypeSlots, nil, "other-seed", hash, clientSeed, 3)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Empty(t, v.Outcome)

	_, err = services.VerifyReveal(models.GameTypeCoinFlip, nil, seed, hash, clientSeed, 3)
	assert.ErrorIs(t, err, models.ErrInvalidPrediction)

	_, err = services.VerifyReveal(models.GameTypeSlots, nil, "", hash, clientSeed, 3)
	assert.ErrorIs(t, err, models.ErrInvalidServerSeed)
}
