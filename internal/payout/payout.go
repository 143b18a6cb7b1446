// Package payout maps an outcome digest to a game outcome and a settled
// result. Everything here is pure and integer only.
package payout

import (
	"crypto/sha256"

	"casino-engine/internal/bps"
	"casino-engine/internal/models"
)

const (
	slotsTripleSevenMultiplier uint64 = 25000
	slotsTripleMultiplier      uint64 = 10000
	slotsPairMultiplier        uint64 = 2000

	diceRTPBasisPoints uint64 = 9800
	rouletteSlots             = 37 // European single zero wheel
)

// ResolveOutcome extracts the game specific outcome from the digest.
func ResolveOutcome(gameType models.GameType, digest [sha256.Size]byte) []byte {
	switch gameType {
	case models.GameTypeCoinFlip:
		return []byte{digest[0] % 2}
	case models.GameTypeDiceRoll:
		return []byte{digest[0]%100 + 1}
	case models.GameTypeSlots:
		return []byte{digest[0] % 10, digest[1] % 10, digest[2] % 10}
	case models.GameTypeRoulette:
		return []byte{digest[0] % rouletteSlots}
	default:
		// Placeholder for games without a payout model.
		out := make([]byte, 4)
		copy(out, digest[:4])
		return out
	}
}

// CalculatePayout settles a wager. The house edge is levied on the stake on
// every resolution; a win pays bet*multiplier/10000 less that edge, never
// below zero. TreasuryFeeTaken is left for the ledger to fill in.
func CalculatePayout(gameType models.GameType, prediction, outcome []byte, betAmount uint64, houseEdge uint16) (models.GameResult, error) {
	houseEdgeAmount, ok := bps.Apply(betAmount, uint64(houseEdge))
	if !ok {
		return models.GameResult{}, models.ErrArithmeticOverflow
	}

	multiplier, err := Multiplier(gameType, prediction, outcome)
	if err != nil {
		return models.GameResult{}, err
	}

	var gross uint64
	if multiplier > 0 {
		gross, ok = bps.Apply(betAmount, multiplier)
		if !ok {
			return models.GameResult{}, models.ErrArithmeticOverflow
		}
	}

	return models.GameResult{
		Outcome:          append([]byte(nil), outcome...),
		Multiplier:       multiplier,
		Payout:           bps.SatSub(gross, houseEdgeAmount),
		HouseEdgeTaken:   houseEdgeAmount,
		TreasuryFeeTaken: 0,
	}, nil
}

// Multiplier returns the win multiplier in basis points, 0 on a loss.
func Multiplier(gameType models.GameType, prediction, outcome []byte) (uint64, error) {
	switch gameType {
	case models.GameTypeCoinFlip:
		if len(prediction) < 1 || len(outcome) < 1 {
			return 0, models.ErrInvalidPrediction
		}
		if prediction[0] == outcome[0] {
			return models.CoinFlipPayout, nil
		}
		return 0, nil

	case models.GameTypeDiceRoll:
		if len(prediction) < 2 || len(outcome) < 1 {
			return 0, models.ErrInvalidPrediction
		}
		return diceMultiplier(prediction[0], prediction[1], outcome[0]), nil

	case models.GameTypeSlots:
		if len(outcome) < 3 {
			return 0, models.ErrInvalidPrediction
		}
		return min(slotsMultiplier(outcome[0], outcome[1], outcome[2]), models.SlotsMaxPayout), nil

	case models.GameTypeRoulette:
		if len(prediction) < 1 || len(outcome) < 1 {
			return 0, models.ErrInvalidPrediction
		}
		if prediction[0] == outcome[0] {
			return models.RouletteStraightPayout, nil
		}
		return 0, nil

	default:
		return 0, nil
	}
}

// diceMultiplier: direction 0 bets under target, anything else bets over.
func diceMultiplier(target, direction, roll byte) uint64 {
	var won bool
	var probability uint64
	if direction == 0 {
		won = roll < target
		probability = uint64(target)
	} else {
		won = roll > target
		probability = bps.SatSub(100, uint64(target))
	}
	if !won || probability == 0 {
		return 0
	}
	return min(diceRTPBasisPoints*100/probability, models.DiceMaxPayout)
}

func slotsMultiplier(r1, r2, r3 byte) uint64 {
	switch {
	case r1 == r2 && r2 == r3 && r1 == 7:
		return slotsTripleSevenMultiplier
	case r1 == r2 && r2 == r3:
		return slotsTripleMultiplier
	case r1 == r2 || r2 == r3 || r1 == r3:
		return slotsPairMultiplier
	default:
		return 0
	}
}
