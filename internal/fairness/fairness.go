// Package fairness implements the commit-reveal scheme binding a wager to a
// server secret. The house commits to SHA-256(serverSeed) when the bet is
// placed and reveals serverSeed at resolution; the outcome digest is
// SHA-256("{serverSeed}-{clientSeed}-{nonce}").
//
// This is a fairness proof, not an entropy source: the digest is fully
// determined by its three inputs. The only protection against the house
// choosing a favourable seed after the fact is that the revealed seed must
// hash to the commitment made before the client seed was known to it.
package fairness

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"casino-engine/internal/models"
)

// HashSeed returns the lowercase hex SHA-256 of seed, the commitment format.
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// Commit binds a server seed hash and client seed at game creation. The seed
// itself is not checked until it is revealed.
func Commit(serverSeedHash, clientSeed string, nonce uint64) (models.ProvableFairData, error) {
	if len(serverSeedHash) != sha256.Size*2 {
		return models.ProvableFairData{}, models.ErrInvalidServerSeed
	}
	if _, err := hex.DecodeString(serverSeedHash); err != nil {
		return models.ProvableFairData{}, models.ErrInvalidServerSeed
	}
	if clientSeed == "" || len(clientSeed) > models.MaxClientSeedLen {
		return models.ProvableFairData{}, models.ErrInvalidClientSeed
	}
	return models.ProvableFairData{
		ServerSeedHash: serverSeedHash,
		ClientSeed:     clientSeed,
		Nonce:          nonce,
		ServerSeed:     models.None[string](),
	}, nil
}

// Verify reports whether revealedSeed hashes to the stored commitment.
// The comparison is exact: a commitment in upper case never verifies.
func Verify(pf models.ProvableFairData, revealedSeed string) bool {
	return HashSeed(revealedSeed) == pf.ServerSeedHash
}

// DeriveOutcome returns SHA-256("{serverSeed}-{clientSeed}-{nonce}").
func DeriveOutcome(serverSeed, clientSeed string, nonce uint64) [sha256.Size]byte {
	combined := serverSeed + "-" + clientSeed + "-" + strconv.FormatUint(nonce, 10)
	return sha256.Sum256([]byte(combined))
}

// Reveal verifies revealedSeed and nonce against pf, records the seed and
// returns the outcome digest. pf is left untouched on failure.
func Reveal(pf *models.ProvableFairData, revealedSeed string, nonce uint64) ([sha256.Size]byte, error) {
	if nonce != pf.Nonce {
		return [sha256.Size]byte{}, models.ErrInvalidNonce
	}
	if !Verify(*pf, revealedSeed) {
		return [sha256.Size]byte{}, models.ErrProvableFairnessVerificationFailed
	}
	if err := pf.Reveal(revealedSeed); err != nil {
		return [sha256.Size]byte{}, err
	}
	return DeriveOutcome(revealedSeed, pf.ClientSeed, pf.Nonce), nil
}
