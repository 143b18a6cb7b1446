package models

import "time"

const (
	MaxGameDuration       = time.Hour
	MaxTournamentDuration = 7 * 24 * time.Hour

	MinHouseEdge   uint16 = 50   // 0.5%
	MaxHouseEdge   uint16 = 1000 // 10%
	MaxTreasuryFee uint16 = 500  // 5%

	MaxPredictionLen = 256
	MaxClientSeedLen = 64
)

// Multipliers in basis points, 10000 = 1x.
const (
	CoinFlipPayout         uint64 = 19500
	DiceMaxPayout          uint64 = 98000
	SlotsMaxPayout         uint64 = 250000
	BlackjackPayout        uint64 = 20000
	RouletteStraightPayout uint64 = 350000
)
