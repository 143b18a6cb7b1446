package services

import (
	"casino-engine/internal/fairness"
	"casino-engine/internal/models"
	"casino-engine/internal/payout"
)

// Verification is the result of replaying a revealed game offline.
type Verification struct {
	Valid      bool   `json:"valid"`
	Outcome    []byte `json:"outcome,omitempty"`
	Multiplier uint64 `json:"multiplier"`
}

// VerifyReveal lets anyone check a revealed seed against its commitment and
// recompute the outcome the engine derived from it. It touches no records.
func VerifyReveal(gameType models.GameType, prediction []byte, serverSeed, serverSeedHash, clientSeed string, nonce uint64) (Verification, error) {
	if !gameType.Valid() {
		return Verification{}, models.ErrInvalidGameType
	}
	if serverSeed == "" {
		return Verification{}, models.ErrInvalidServerSeed
	}

	pf := models.ProvableFairData{ServerSeedHash: serverSeedHash, ClientSeed: clientSeed, Nonce: nonce}
	if !fairness.Verify(pf, serverSeed) {
		return Verification{Valid: false}, nil
	}

	digest := fairness.DeriveOutcome(serverSeed, clientSeed, nonce)
	v := Verification{Valid: true, Outcome: payout.ResolveOutcome(gameType, digest)}
	if err := models.ValidatePrediction(gameType, prediction); err != nil {
		return v, err
	}
	multiplier, err := payout.Multiplier(gameType, prediction, v.Outcome)
	if err != nil {
		return v, err
	}
	v.Multiplier = multiplier
	return v, nil
}
