package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

type counter struct {
	N int `json:"n"`
}

func TestMemoryStoreCommitsOnSuccess(t *testing.T) {
	s := services.NewMemoryStore()
	ctx := t.Context()

	err := s.Update(ctx, []string{"a", "b"}, func(tx services.Tx) error {
		var c counter
		assert.ErrorIs(t, tx.Get("a", &c), models.ErrNotFound)

		require.NoError(t, tx.Put("a", counter{N: 1}))
		require.NoError(t, tx.Get("a", &c), "staged writes are visible inside the update")
		assert.Equal(t, 1, c.N)
		return tx.Put("b", counter{N: 2})
	})
	require.NoError(t, err)

	var c counter
	require.NoError(t, s.View(ctx, "b", &c))
	assert.Equal(t, 2, c.N)

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestMemoryStoreDiscardsOnError(t *testing.T) {
	s := services.NewMemoryStore()
	ctx := t.Context()
	boom := errors.New("boom")

	err := s.Update(ctx, []string{"a"}, func(tx services.Tx) error {
		require.NoError(t, tx.Put("a", counter{N: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var c counter
	assert.ErrorIs(t, s.View(ctx, "a", &c), models.ErrNotFound)
}

func TestMemoryStoreRejectsUndeclaredKeys(t *testing.T) {
	s := services.NewMemoryStore()

	err := s.Update(t.Context(), []string{"a"}, func(tx services.Tx) error {
		return tx.Put("b", counter{N: 1})
	})
	assert.Error(t, err)

	var c counter
	assert.ErrorIs(t, s.View(t.Context(), "b", &c), models.ErrNotFound)
}

func TestMemoryStoreSerializesSameKey(t *testing.T) {
	s := services.NewMemoryStore()
	ctx := t.Context()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate key order to exercise the sorted lock acquisition.
			keys := []string{"x", "y"}
			if i%2 == 0 {
				keys = []string{"y", "x"}
			}
			err := s.Update(ctx, keys, func(tx services.Tx) error {
				var c counter
				if err := tx.Get("x", &c); err != nil && !errors.Is(err, models.ErrNotFound) {
					return err
				}
				c.N++
				if err := tx.Put("x", c); err != nil {
					return err
				}
				return tx.Put("y", c)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var c counter
	require.NoError(t, s.View(ctx, "x", &c))
	assert.Equal(t, 50, c.N)
}
