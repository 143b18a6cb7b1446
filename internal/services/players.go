package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"casino-engine/internal/audit"
	"casino-engine/internal/bps"
	"casino-engine/internal/models"
)

// InitializePlayer creates the caller's stats record at this casino.
func (e *Engine) InitializePlayer(ctx context.Context, caller string) (*models.PlayerStats, error) {
	if caller == "" {
		return nil, models.ErrUnauthorized
	}
	now := e.clock.Now()
	key := playerKey(e.casinoID, caller)

	var player *models.PlayerStats
	err := e.update(ctx, []string{casinoKey(e.casinoID), key}, func(tx Tx) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}

		var existing models.PlayerStats
		err = tx.Get(key, &existing)
		if err == nil {
			return models.ErrAccountAlreadyInitialized
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		player = models.NewPlayerStats(caller, casino.ID, now)
		casino.Stats.ActivePlayers = bps.SatAdd32(casino.Stats.ActivePlayers, 1)
		casino.UpdatedAt = now

		if err := tx.Put(key, player); err != nil {
			return err
		}
		return tx.Put(casinoKey(casino.ID), casino)
	})
	if err != nil {
		return nil, err
	}

	if e.seedBalance > 0 {
		if err := e.custody.Deposit(ctx, WalletAccount(caller), e.seedBalance); err != nil {
			e.log.Error("wallet seed failed", zap.String("player", caller), zap.Error(err))
		}
	}

	e.log.Info("player initialized", zap.String("player", caller))
	e.publish(ctx, audit.KindPlayerInitialized, caller, caller, 0, nil)
	return player, nil
}

func (e *Engine) GetPlayer(ctx context.Context, player string) (*models.PlayerStats, error) {
	var p models.PlayerStats
	if err := e.store.View(ctx, playerKey(e.casinoID, player), &p); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

type PlayerStatsUpdate struct {
	Player       string `json:"player"`
	GamesPlayed  uint64 `json:"games_played"`
	TotalWagered uint64 `json:"total_wagered"`
	TotalWon     uint64 `json:"total_won"`
}

// UpdatePlayerStats folds externally reported totals into a player record.
// Only the casino authority may report them.
func (e *Engine) UpdatePlayerStats(ctx context.Context, caller string, u PlayerStatsUpdate) (*models.PlayerStats, error) {
	key := playerKey(e.casinoID, u.Player)
	now := e.clock.Now()

	var player models.PlayerStats
	err := e.update(ctx, []string{casinoKey(e.casinoID), key}, func(tx Tx) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		if err := e.requireAuthority(casino, caller); err != nil {
			return err
		}
		if err := tx.Get(key, &player); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrPlayerNotFound
			}
			return err
		}
		player.Accumulate(u.GamesPlayed, u.TotalWagered, u.TotalWon, now)
		return tx.Put(key, &player)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("player stats updated", zap.String("player", u.Player), zap.Uint64("games", u.GamesPlayed))
	e.publish(ctx, audit.KindPlayerUpdated, u.Player, caller, u.TotalWagered, u)
	return &player, nil
}
