package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"casino-engine/internal/audit"
	"casino-engine/internal/fairness"
	"casino-engine/internal/models"
	"casino-engine/internal/monitoring"
	"casino-engine/internal/payout"
)

type CreateGameParams struct {
	GameType       models.GameType `json:"game_type"`
	BetAmount      uint64          `json:"bet_amount"`
	Prediction     []byte          `json:"prediction"`
	ClientSeed     string          `json:"client_seed"`
	ServerSeedHash string          `json:"server_seed_hash"`
}

// CreateGame stakes the bet into the vault and opens a game bound to the
// server seed commitment.
func (e *Engine) CreateGame(ctx context.Context, caller string, p CreateGameParams) (*models.Game, error) {
	if caller == "" {
		return nil, models.ErrUnauthorized
	}
	if !p.GameType.Valid() {
		return nil, models.ErrInvalidGameType
	}

	id := models.GameID(e.casinoID, caller, p.ServerSeedHash)
	now := e.clock.Now()

	var game *models.Game
	err := e.settle(ctx, []string{casinoKey(e.casinoID), gameKey(id)}, func(tx Tx, j *journal) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		if err := casino.CheckOperational(); err != nil {
			return err
		}
		if err := casino.ValidateBetAmount(p.BetAmount); err != nil {
			return err
		}
		if err := models.ValidatePrediction(p.GameType, p.Prediction); err != nil {
			return err
		}

		pf, err := fairness.Commit(p.ServerSeedHash, p.ClientSeed, casino.NextSessionID)
		if err != nil {
			return err
		}

		var existing models.Game
		err = tx.Get(gameKey(id), &existing)
		if err == nil {
			return models.ErrSeedAlreadyUsed
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		if err := j.transfer(ctx, "stake:"+id, WalletAccount(caller), casino.Vault, p.BetAmount, models.ErrInsufficientBalance); err != nil {
			return err
		}

		game = &models.Game{
			ID:           id,
			Player:       caller,
			Casino:       casino.ID,
			GameType:     p.GameType,
			BetAmount:    p.BetAmount,
			Prediction:   append([]byte(nil), p.Prediction...),
			ProvableFair: pf,
			Status:       models.GameStatusCreated,
			CreatedAt:    now,
			ExpiresAt:    now.Add(e.gameTTL),
			SessionID:    casino.NextSessionID,
		}
		casino.NextSessionID++
		casino.UpdatedAt = now

		if err := tx.Put(gameKey(id), game); err != nil {
			return err
		}
		return tx.Put(casinoKey(casino.ID), casino)
	})
	if err != nil {
		return nil, err
	}

	monitoring.GamesCreated.WithLabelValues(game.GameType.String()).Inc()
	monitoring.WageredVolume.Add(float64(game.BetAmount))
	e.log.Info("game created",
		zap.String("game", id),
		zap.String("player", caller),
		zap.String("game_type", game.GameType.String()),
		zap.Uint64("bet", game.BetAmount),
		zap.Uint64("nonce", game.ProvableFair.Nonce))
	e.publish(ctx, audit.KindGameCreated, id, caller, game.BetAmount, game)
	return game, nil
}

func (e *Engine) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var g models.Game
	if err := e.store.View(ctx, gameKey(id), &g); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ResolveGame reveals the server seed and settles the game. Anyone holding
// the seed may resolve.
func (e *Engine) ResolveGame(ctx context.Context, caller, gameID, serverSeed string, nonce uint64) (models.GameResult, error) {
	// The player never changes, so it is safe to read it ahead of the
	// transaction to declare the player key.
	current, err := e.GetGame(ctx, gameID)
	if err != nil {
		return models.GameResult{}, err
	}
	pKey := playerKey(e.casinoID, current.Player)
	now := e.clock.Now()

	var (
		game   *models.Game
		result models.GameResult
	)
	err = e.update(ctx, []string{casinoKey(e.casinoID), gameKey(gameID), pKey}, func(tx Tx) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		game, err = loadGame(tx, gameID)
		if err != nil {
			return err
		}
		if !game.CanBeResolved(now) {
			return models.ErrCannotResolveGame
		}

		digest, err := fairness.Reveal(&game.ProvableFair, serverSeed, nonce)
		if err != nil {
			if errors.Is(err, models.ErrProvableFairnessVerificationFailed) {
				monitoring.FairnessFailures.Inc()
				e.log.Warn("fairness verification failed", zap.String("game", gameID), zap.String("caller", caller))
			}
			return err
		}

		outcome := payout.ResolveOutcome(game.GameType, digest)
		result, err = payout.CalculatePayout(game.GameType, game.Prediction, outcome, game.BetAmount, casino.HouseEdge)
		if err != nil {
			return err
		}
		result.TreasuryFeeTaken = casino.CalculateTreasuryFee(game.BetAmount)
		if result.Won() {
			result.Payout = min(result.Payout, casino.CalculateMaxPayout(game.BetAmount, result.Multiplier))
		}

		var player models.PlayerStats
		err = tx.Get(pKey, &player)
		switch {
		case err == nil:
			player.RecordGame(game.BetAmount, result.Payout, result.Won(), now)
			if err := tx.Put(pKey, &player); err != nil {
				return err
			}
		case !errors.Is(err, models.ErrNotFound):
			return err
		}

		if err := game.Resolve(result, now); err != nil {
			return err
		}
		casino.UpdateStats(game.BetAmount, result.Payout, result.HouseEdgeTaken, result.TreasuryFeeTaken, now)

		if err := tx.Put(gameKey(gameID), game); err != nil {
			return err
		}
		return tx.Put(casinoKey(casino.ID), casino)
	})
	if err != nil {
		return models.GameResult{}, err
	}

	outcome := "lost"
	if result.Won() {
		outcome = "won"
	}
	monitoring.GamesResolved.WithLabelValues(game.GameType.String(), outcome).Inc()
	e.log.Info("game resolved",
		zap.String("game", gameID),
		zap.String("player", game.Player),
		zap.String("outcome", outcome),
		zap.Uint64("multiplier", result.Multiplier),
		zap.Uint64("payout", result.Payout),
		zap.Uint64("house_edge", result.HouseEdgeTaken),
		zap.Uint64("treasury_fee", result.TreasuryFeeTaken))
	e.publish(ctx, audit.KindGameResolved, gameID, caller, result.Payout, game)
	return result, nil
}

// ClaimWinnings pays a resolved winning game out of the vault. The game only
// moves to Claimed once the transfer has succeeded. Only the game record is
// watched so new games and resolutions never abort a claim.
func (e *Engine) ClaimWinnings(ctx context.Context, caller, gameID string) (uint64, error) {
	now := e.clock.Now()
	vault := VaultAccount(e.casinoID)

	var paid uint64
	err := e.settle(ctx, []string{gameKey(gameID)}, func(tx Tx, j *journal) error {
		game, err := loadGame(tx, gameID)
		if err != nil {
			return err
		}
		if caller == "" || game.Player != caller {
			return models.ErrUnauthorized
		}
		if !game.CanClaimWinnings() {
			return models.ErrCannotClaimWinnings
		}

		result, _ := game.Result.Get()
		if err := j.transfer(ctx, "payout:"+gameID, vault, WalletAccount(game.Player), result.Payout, models.ErrInsufficientVaultFunds); err != nil {
			return err
		}

		if paid, err = game.Claim(now); err != nil {
			return err
		}
		return tx.Put(gameKey(gameID), game)
	})
	if err != nil {
		return 0, err
	}

	monitoring.GamesClosed.WithLabelValues(models.GameStatusClaimed.String()).Inc()
	monitoring.PayoutVolume.Add(float64(paid))
	e.log.Info("winnings claimed", zap.String("game", gameID), zap.String("player", caller), zap.Uint64("payout", paid))
	e.publish(ctx, audit.KindGameClaimed, gameID, caller, paid, nil)
	return paid, nil
}

// CancelGame closes an open game and refunds the stake. The player or the
// casino authority may cancel.
func (e *Engine) CancelGame(ctx context.Context, caller, gameID string) (*models.Game, error) {
	// The authority is fixed at initialization, so it is read outside the update.
	casino, err := e.GetCasino(ctx)
	if err != nil {
		return nil, err
	}
	game, err := e.closeGame(ctx, gameID, func(game *models.Game) error {
		if caller == "" || (caller != game.Player && caller != casino.Authority) {
			return models.ErrUnauthorized
		}
		return game.Cancel()
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("game cancelled", zap.String("game", gameID), zap.String("by", caller))
	e.publish(ctx, audit.KindGameCancelled, gameID, caller, game.BetAmount, nil)
	return game, nil
}

// ExpireGame closes a game whose deadline has passed and refunds the stake.
// Anyone may expire.
func (e *Engine) ExpireGame(ctx context.Context, caller, gameID string) (*models.Game, error) {
	now := e.clock.Now()
	game, err := e.closeGame(ctx, gameID, func(game *models.Game) error {
		return game.Expire(now)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("game expired", zap.String("game", gameID), zap.String("by", caller))
	e.publish(ctx, audit.KindGameExpired, gameID, caller, game.BetAmount, nil)
	return game, nil
}

// closeGame applies transition and refunds the stake in the same update.
// Cancel and expire are mutually exclusive, so they share the refund ref.
func (e *Engine) closeGame(ctx context.Context, gameID string, transition func(*models.Game) error) (*models.Game, error) {
	vault := VaultAccount(e.casinoID)

	var game *models.Game
	err := e.settle(ctx, []string{gameKey(gameID)}, func(tx Tx, j *journal) error {
		var err error
		game, err = loadGame(tx, gameID)
		if err != nil {
			return err
		}
		if err := transition(game); err != nil {
			return err
		}
		if err := j.transfer(ctx, "refund:"+gameID, vault, WalletAccount(game.Player), game.BetAmount, models.ErrInsufficientVaultFunds); err != nil {
			return err
		}
		return tx.Put(gameKey(gameID), game)
	})
	if err != nil {
		return nil, err
	}

	monitoring.GamesClosed.WithLabelValues(game.Status.String()).Inc()
	return game, nil
}

// ExpireStaleGames expires every open game past its deadline and returns how
// many it closed.
func (e *Engine) ExpireStaleGames(ctx context.Context) (int, error) {
	keys, err := e.store.Keys(ctx, PrefixGame)
	if err != nil {
		return 0, err
	}

	now := e.clock.Now()
	expired := 0
	for _, key := range keys {
		id := strings.TrimPrefix(key, PrefixGame)

		game, err := e.GetGame(ctx, id)
		if err != nil {
			continue
		}
		if game.Status.Terminal() || game.Status == models.GameStatusResolved || !game.IsExpired(now) {
			continue
		}

		if _, err := e.ExpireGame(ctx, "system", id); err != nil {
			e.log.Warn("stale game not expired", zap.String("game", id), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}
