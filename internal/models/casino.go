package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"casino-engine/internal/bps"
)

type CasinoStats struct {
	TotalGames            uint64 `json:"total_games"`
	TotalVolume           uint64 `json:"total_volume"`
	TotalProfit           int64  `json:"total_profit"`
	TotalPayouts          uint64 `json:"total_payouts"`
	ActivePlayers         uint32 `json:"active_players"`
	HouseEdgeCollected    uint64 `json:"house_edge_collected"`
	TreasuryFeesCollected uint64 `json:"treasury_fees_collected"`
}

type Casino struct {
	ID          string `json:"id"`
	Authority   string `json:"authority"`
	TokenMint   string `json:"token_mint"`
	Treasury    string `json:"treasury"`
	Vault       string `json:"vault"`
	HouseEdge   uint16 `json:"house_edge"`
	MinBet      uint64 `json:"min_bet"`
	MaxBet      uint64 `json:"max_bet"`
	TreasuryFee uint16 `json:"treasury_fee"`
	IsActive    bool   `json:"is_active"`
	IsPaused    bool   `json:"is_paused"`

	Stats CasinoStats `json:"stats"`

	// TreasuryWithdrawn is the part of Stats.TreasuryFeesCollected already swept out.
	TreasuryWithdrawn uint64 `json:"treasury_withdrawn"`
	NextSessionID     uint64 `json:"next_session_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Casino) ValidateBetAmount(amount uint64) error {
	if amount < c.MinBet {
		return ErrBetTooSmall
	}
	if amount > c.MaxBet {
		return ErrBetTooLarge
	}
	return nil
}

// CheckOperational fails unless the casino is active and not paused.
func (c *Casino) CheckOperational() error {
	if !c.IsActive {
		return ErrCasinoNotActive
	}
	if c.IsPaused {
		return ErrCasinoPaused
	}
	return nil
}

func (c *Casino) IsOperational() bool {
	return c.IsActive && !c.IsPaused
}

func (c *Casino) ValidateHouseEdge() error {
	if c.HouseEdge < MinHouseEdge || c.HouseEdge > MaxHouseEdge {
		return ErrInvalidHouseEdge
	}
	return nil
}

func (c *Casino) ValidateTreasuryFee() error {
	if c.TreasuryFee > MaxTreasuryFee {
		return ErrInvalidTreasuryFee
	}
	return nil
}

// Validate checks every configuration invariant.
func (c *Casino) Validate() error {
	if err := c.ValidateHouseEdge(); err != nil {
		return err
	}
	if err := c.ValidateTreasuryFee(); err != nil {
		return err
	}
	if c.MinBet == 0 || c.MinBet > c.MaxBet {
		return fmt.Errorf("%w: min_bet %d max_bet %d", ErrInvalidConfiguration, c.MinBet, c.MaxBet)
	}
	return nil
}

func (c *Casino) CalculateHouseEdge(betAmount uint64) uint64 {
	return bps.ApplySaturating(betAmount, uint64(c.HouseEdge))
}

func (c *Casino) CalculateTreasuryFee(betAmount uint64) uint64 {
	return bps.ApplySaturating(betAmount, uint64(c.TreasuryFee))
}

// CalculateMaxPayout is the gross payout for multiplier less house edge and
// treasury fee, floored at zero and clamped at the uint64 maximum.
func (c *Casino) CalculateMaxPayout(betAmount, multiplier uint64) uint64 {
	gross := bps.ApplySaturating(betAmount, multiplier)
	return bps.SatSub(bps.SatSub(gross, c.CalculateHouseEdge(betAmount)), c.CalculateTreasuryFee(betAmount))
}

func (c *Casino) UpdateStats(betAmount, payout, houseEdgeTaken, treasuryFeeTaken uint64, now time.Time) {
	c.Stats.TotalGames = bps.SatAdd(c.Stats.TotalGames, 1)
	c.Stats.TotalVolume = bps.SatAdd(c.Stats.TotalVolume, betAmount)
	c.Stats.TotalPayouts = bps.SatAdd(c.Stats.TotalPayouts, payout)
	c.Stats.HouseEdgeCollected = bps.SatAdd(c.Stats.HouseEdgeCollected, houseEdgeTaken)
	c.Stats.TreasuryFeesCollected = bps.SatAdd(c.Stats.TreasuryFeesCollected, treasuryFeeTaken)
	c.Stats.TotalProfit = bps.SatAddInt64(c.Stats.TotalProfit, bps.SignedDiff(houseEdgeTaken, payout))
	c.UpdatedAt = now
}

// WithdrawableTreasury is the collected treasury fee not yet withdrawn.
func (c *Casino) WithdrawableTreasury() uint64 {
	return bps.SatSub(c.Stats.TreasuryFeesCollected, c.TreasuryWithdrawn)
}

// ProfitMargin is total_profit / total_volume, zero when nothing was wagered.
func (c *Casino) ProfitMargin() decimal.Decimal {
	if c.Stats.TotalVolume == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(c.Stats.TotalProfit).DivRound(decimalFromUint64(c.Stats.TotalVolume), 6)
}

// PayoutRatio is total_payouts / total_volume, zero when nothing was wagered.
func (c *Casino) PayoutRatio() decimal.Decimal {
	if c.Stats.TotalVolume == 0 {
		return decimal.Zero
	}
	return decimalFromUint64(c.Stats.TotalPayouts).DivRound(decimalFromUint64(c.Stats.TotalVolume), 6)
}

func decimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
