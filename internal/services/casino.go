package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"casino-engine/internal/audit"
	"casino-engine/internal/bps"
	"casino-engine/internal/models"
)

type CasinoParams struct {
	TokenMint   string `json:"token_mint"`
	HouseEdge   uint16 `json:"house_edge"`
	MinBet      uint64 `json:"min_bet"`
	MaxBet      uint64 `json:"max_bet"`
	TreasuryFee uint16 `json:"treasury_fee"`
}

// CasinoConfigUpdate changes only the fields that are present.
type CasinoConfigUpdate struct {
	HouseEdge   models.Optional[uint16] `json:"house_edge"`
	MinBet      models.Optional[uint64] `json:"min_bet"`
	MaxBet      models.Optional[uint64] `json:"max_bet"`
	TreasuryFee models.Optional[uint16] `json:"treasury_fee"`
	IsActive    models.Optional[bool]   `json:"is_active"`
}

// InitializeCasino creates the casino with caller as its authority.
func (e *Engine) InitializeCasino(ctx context.Context, caller string, p CasinoParams) (*models.Casino, error) {
	if caller == "" {
		return nil, models.ErrUnauthorized
	}
	now := e.clock.Now()

	casino := &models.Casino{
		ID:          e.casinoID,
		Authority:   caller,
		TokenMint:   p.TokenMint,
		Treasury:    TreasuryAccount(e.casinoID),
		Vault:       VaultAccount(e.casinoID),
		HouseEdge:   p.HouseEdge,
		MinBet:      p.MinBet,
		MaxBet:      p.MaxBet,
		TreasuryFee: p.TreasuryFee,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := casino.Validate(); err != nil {
		return nil, err
	}

	key := casinoKey(e.casinoID)
	err := e.update(ctx, []string{key}, func(tx Tx) error {
		var existing models.Casino
		err := tx.Get(key, &existing)
		if err == nil {
			return models.ErrAccountAlreadyInitialized
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		return tx.Put(key, casino)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("casino initialized",
		zap.String("casino", e.casinoID),
		zap.String("authority", caller),
		zap.Uint16("house_edge", casino.HouseEdge),
		zap.Uint16("treasury_fee", casino.TreasuryFee))
	e.publish(ctx, audit.KindCasinoInitialized, e.casinoID, caller, 0, p)
	return casino, nil
}

func (e *Engine) GetCasino(ctx context.Context) (*models.Casino, error) {
	var c models.Casino
	if err := e.store.View(ctx, casinoKey(e.casinoID), &c); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAccountNotInitialized
		}
		return nil, err
	}
	return &c, nil
}

// mutateCasino runs an authority-only change against the casino record.
func (e *Engine) mutateCasino(ctx context.Context, caller string, fn func(c *models.Casino) error) (*models.Casino, error) {
	return e.settleCasino(ctx, caller, func(c *models.Casino, _ *journal) error {
		return fn(c)
	})
}

// settleCasino is mutateCasino for changes that also move funds.
func (e *Engine) settleCasino(ctx context.Context, caller string, fn func(c *models.Casino, j *journal) error) (*models.Casino, error) {
	key := casinoKey(e.casinoID)
	var out *models.Casino
	err := e.settle(ctx, []string{key}, func(tx Tx, j *journal) error {
		c, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		if err := e.requireAuthority(c, caller); err != nil {
			return err
		}
		if err := fn(c, j); err != nil {
			return err
		}
		c.UpdatedAt = e.clock.Now()
		out = c
		return tx.Put(key, c)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) UpdateCasinoConfig(ctx context.Context, caller string, u CasinoConfigUpdate) (*models.Casino, error) {
	c, err := e.mutateCasino(ctx, caller, func(c *models.Casino) error {
		if v, ok := u.HouseEdge.Get(); ok {
			c.HouseEdge = v
		}
		if v, ok := u.MinBet.Get(); ok {
			c.MinBet = v
		}
		if v, ok := u.MaxBet.Get(); ok {
			c.MaxBet = v
		}
		if v, ok := u.TreasuryFee.Get(); ok {
			c.TreasuryFee = v
		}
		if v, ok := u.IsActive.Get(); ok {
			c.IsActive = v
		}
		return c.Validate()
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("casino config updated", zap.String("casino", e.casinoID), zap.String("by", caller))
	e.publish(ctx, audit.KindCasinoConfigured, e.casinoID, caller, 0, u)
	return c, nil
}

// EmergencyPause stops new games and tournament entries. Open games can
// still be resolved, claimed, cancelled and expired.
func (e *Engine) EmergencyPause(ctx context.Context, caller string) (*models.Casino, error) {
	c, err := e.mutateCasino(ctx, caller, func(c *models.Casino) error {
		c.IsPaused = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Warn("casino paused", zap.String("casino", e.casinoID), zap.String("by", caller))
	e.publish(ctx, audit.KindCasinoPaused, e.casinoID, caller, 0, nil)
	return c, nil
}

func (e *Engine) ResumeCasino(ctx context.Context, caller string) (*models.Casino, error) {
	c, err := e.mutateCasino(ctx, caller, func(c *models.Casino) error {
		c.IsPaused = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("casino resumed", zap.String("casino", e.casinoID), zap.String("by", caller))
	e.publish(ctx, audit.KindCasinoResumed, e.casinoID, caller, 0, nil)
	return c, nil
}

// WithdrawTreasury sweeps collected treasury fees from the vault to the
// treasury account.
func (e *Engine) WithdrawTreasury(ctx context.Context, caller string, amount uint64) (*models.Casino, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", models.ErrInvalidConfiguration)
	}

	c, err := e.settleCasino(ctx, caller, func(c *models.Casino, j *journal) error {
		if amount > c.WithdrawableTreasury() {
			return models.ErrInsufficientVaultFunds
		}
		// TreasuryWithdrawn only grows, so the ref is unique per withdrawal
		// and stable across a retried commit.
		ref := fmt.Sprintf("treasury:%s:%d", c.ID, c.TreasuryWithdrawn)
		if err := j.transfer(ctx, ref, c.Vault, c.Treasury, amount, models.ErrInsufficientVaultFunds); err != nil {
			return err
		}
		c.TreasuryWithdrawn = bps.SatAdd(c.TreasuryWithdrawn, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("treasury withdrawn", zap.String("casino", e.casinoID), zap.Uint64("amount", amount))
	e.publish(ctx, audit.KindTreasuryWithdrawn, e.casinoID, caller, amount, nil)
	return c, nil
}

// FundVault credits the vault so it can cover payouts.
func (e *Engine) FundVault(ctx context.Context, caller string, amount uint64) error {
	c, err := e.GetCasino(ctx)
	if err != nil {
		return err
	}
	if err := e.requireAuthority(c, caller); err != nil {
		return err
	}
	if err := e.custody.Deposit(ctx, c.Vault, amount); err != nil {
		return fmt.Errorf("%w: %v", models.ErrTokenTransferFailed, err)
	}
	e.log.Info("vault funded", zap.String("casino", e.casinoID), zap.Uint64("amount", amount))
	return nil
}
