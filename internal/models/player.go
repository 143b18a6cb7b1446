package models

import (
	"math"
	"time"

	"casino-engine/internal/bps"
)

// ExperiencePerLevel is the wagered volume that earns one player level.
const ExperiencePerLevel uint64 = 100_000

type PlayerStats struct {
	Player        string    `json:"player"`
	Casino        string    `json:"casino"`
	GamesPlayed   uint64    `json:"games_played"`
	TotalWagered  uint64    `json:"total_wagered"`
	TotalWon      uint64    `json:"total_won"`
	BiggestWin    uint64    `json:"biggest_win"`
	CurrentStreak int32     `json:"current_streak"`
	BestStreak    int32     `json:"best_streak"`
	Level         uint32    `json:"level"`
	Experience    uint64    `json:"experience"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewPlayerStats(player, casino string, now time.Time) *PlayerStats {
	return &PlayerStats{
		Player:    player,
		Casino:    casino,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Accumulate adds externally reported totals.
func (p *PlayerStats) Accumulate(gamesPlayed, totalWagered, totalWon uint64, now time.Time) {
	p.GamesPlayed = bps.SatAdd(p.GamesPlayed, gamesPlayed)
	p.TotalWagered = bps.SatAdd(p.TotalWagered, totalWagered)
	p.TotalWon = bps.SatAdd(p.TotalWon, totalWon)
	p.gainExperience(totalWagered)
	p.UpdatedAt = now
}

// RecordGame folds one resolved wager into the stats.
func (p *PlayerStats) RecordGame(betAmount, payout uint64, won bool, now time.Time) {
	p.GamesPlayed = bps.SatAdd(p.GamesPlayed, 1)
	p.TotalWagered = bps.SatAdd(p.TotalWagered, betAmount)
	p.TotalWon = bps.SatAdd(p.TotalWon, payout)
	if payout > p.BiggestWin {
		p.BiggestWin = payout
	}

	// Positive streaks count wins, negative streaks count losses.
	switch {
	case won && p.CurrentStreak >= 0:
		if p.CurrentStreak < math.MaxInt32 {
			p.CurrentStreak++
		}
	case won:
		p.CurrentStreak = 1
	case p.CurrentStreak <= 0:
		if p.CurrentStreak > math.MinInt32 {
			p.CurrentStreak--
		}
	default:
		p.CurrentStreak = -1
	}
	if p.CurrentStreak > p.BestStreak {
		p.BestStreak = p.CurrentStreak
	}

	p.gainExperience(betAmount)
	p.UpdatedAt = now
}

func (p *PlayerStats) gainExperience(amount uint64) {
	p.Experience = bps.SatAdd(p.Experience, amount)
	level := p.Experience/ExperiencePerLevel + 1
	if level > math.MaxUint32 {
		level = math.MaxUint32
	}
	p.Level = uint32(level)
}
