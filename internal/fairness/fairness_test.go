package fairness

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casino-engine/internal/models"
)

func TestHashSeedKnownVector(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashSeed("abc"))
}

func TestCommit(t *testing.T) {
	hash := HashSeed("abc")

	pf, err := Commit(hash, "xyz", 1)
	require.NoError(t, err)
	assert.Equal(t, hash, pf.ServerSeedHash)
	assert.True(t, pf.ServerSeed.IsNone())

	_, err = Commit("deadbeef", "xyz", 1)
	assert.ErrorIs(t, err, models.ErrInvalidServerSeed)

	_, err = Commit(strings.Repeat("zz", 32), "xyz", 1)
	assert.ErrorIs(t, err, models.ErrInvalidServerSeed)

	_, err = Commit(hash, "", 1)
	assert.ErrorIs(t, err, models.ErrInvalidClientSeed)

	_, err = Commit(hash, strings.Repeat("c", models.MaxClientSeedLen+1), 1)
	assert.ErrorIs(t, err, models.ErrInvalidClientSeed)
}

func TestVerify(t *testing.T) {
	pf, err := Commit(HashSeed("abc"), "xyz", 1)
	require.NoError(t, err)

	assert.True(t, Verify(pf, "abc"))
	assert.False(t, Verify(pf, "abd"), "single character change must not verify")
	assert.False(t, Verify(pf, "ABC"))
	assert.False(t, Verify(pf, "abc "))

	upper := pf
	upper.ServerSeedHash = strings.ToUpper(pf.ServerSeedHash)
	assert.False(t, Verify(upper, "abc"), "comparison is not case normalised")
}

func TestDeriveOutcomeIsDeterministic(t *testing.T) {
	first := DeriveOutcome("abc", "xyz", 1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeriveOutcome("abc", "xyz", 1))
	}
	assert.Equal(t, sha256.Sum256([]byte("abc-xyz-1")), first)
	assert.NotEqual(t, first, DeriveOutcome("abc", "xyz", 2))
	assert.Equal(t, first[0]%2, DeriveOutcome("abc", "xyz", 1)[0]%2)
}

func TestReveal(t *testing.T) {
	pf, err := Commit(HashSeed("abc"), "xyz", 1)
	require.NoError(t, err)

	_, err = Reveal(&pf, "abc", 2)
	assert.ErrorIs(t, err, models.ErrInvalidNonce)

	_, err = Reveal(&pf, "wrong", 1)
	assert.ErrorIs(t, err, models.ErrProvableFairnessVerificationFailed)
	assert.True(t, pf.ServerSeed.IsNone())

	digest, err := Reveal(&pf, "abc", 1)
	require.NoError(t, err)
	assert.Equal(t, DeriveOutcome("abc", "xyz", 1), digest)
	assert.Equal(t, "abc", pf.ServerSeed.OrElse(""))

	_, err = Reveal(&pf, "abc", 1)
	assert.ErrorIs(t, err, models.ErrSeedAlreadyUsed)
}
