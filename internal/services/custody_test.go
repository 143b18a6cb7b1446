package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

func TestMemoryCustodyTransfer(t *testing.T) {
	c := services.NewMemoryCustody()
	ctx := t.Context()
	require.NoError(t, c.Deposit(ctx, "a", 100))

	applied, err := c.Transfer(ctx, "ref-1", "a", "b", 60)
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = c.Transfer(ctx, "ref-1", "a", "b", 60)
	require.NoError(t, err)
	assert.False(t, applied, "replayed ref is a no-op")

	a, _ := c.Balance(ctx, "a")
	b, _ := c.Balance(ctx, "b")
	assert.Equal(t, uint64(40), a)
	assert.Equal(t, uint64(60), b)

	_, err = c.Transfer(ctx, "ref-2", "a", "b", 41)
	assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	applied, err = c.Transfer(ctx, "ref-2", "a", "b", 40)
	require.NoError(t, err)
	assert.True(t, applied, "failed ref can be retried")

	history, err := c.History(ctx, "b", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ref-2", history[0].Ref)
	assert.Equal(t, "ref-1", history[1].Ref)

	none, err := c.History(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryCustodyReverse(t *testing.T) {
	c := services.NewMemoryCustody()
	ctx := t.Context()
	require.NoError(t, c.Deposit(ctx, "a", 100))

	require.NoError(t, c.Reverse(ctx, "ref-1", "a", "b", 60), "unknown ref is a no-op")
	a, _ := c.Balance(ctx, "a")
	assert.Equal(t, uint64(100), a)

	_, err := c.Transfer(ctx, "ref-1", "a", "b", 60)
	require.NoError(t, err)
	require.NoError(t, c.Reverse(ctx, "ref-1", "a", "b", 60))
	require.NoError(t, c.Reverse(ctx, "ref-1", "a", "b", 60), "second reversal is a no-op")

	a, _ = c.Balance(ctx, "a")
	b, _ := c.Balance(ctx, "b")
	assert.Equal(t, uint64(100), a)
	assert.Equal(t, uint64(0), b)

	applied, err := c.Transfer(ctx, "ref-1", "a", "b", 60)
	require.NoError(t, err)
	assert.True(t, applied, "reversed ref applies again")
	b, _ = c.Balance(ctx, "b")
	assert.Equal(t, uint64(60), b)

	history, err := c.History(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "reversal:ref-1", history[1].Ref)
	assert.Equal(t, "b", history[1].From)
	assert.Equal(t, "a", history[1].To)
}

func TestMemoryCustodyReverseNeedsDestinationFunds(t *testing.T) {
	c := services.NewMemoryCustody()
	ctx := t.Context()
	require.NoError(t, c.Deposit(ctx, "a", 100))
	_, err := c.Transfer(ctx, "ref-1", "a", "b", 100)
	require.NoError(t, err)
	_, err = c.Transfer(ctx, "ref-2", "b", "c", 50)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Reverse(ctx, "ref-1", "a", "b", 100), models.ErrInsufficientBalance)
	b, _ := c.Balance(ctx, "b")
	assert.Equal(t, uint64(50), b)
}
