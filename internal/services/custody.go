package services

import (
	"context"
	"math"
	"sync"
	"time"

	"casino-engine/internal/bps"
	"casino-engine/internal/models"
)

// Custody moves funds between accounts. Transfer is idempotent by ref: a
// second call with a ref that was already applied succeeds without moving
// anything and reports false. A short source balance fails with
// models.ErrInsufficientBalance.
//
// Reverse undoes an applied transfer and forgets its ref so the same ref can
// be applied again. It is a no-op for a ref that was never applied.
type Custody interface {
	Transfer(ctx context.Context, ref, from, to string, amount uint64) (bool, error)
	Reverse(ctx context.Context, ref, from, to string, amount uint64) error
	Deposit(ctx context.Context, account string, amount uint64) error
	Balance(ctx context.Context, account string) (uint64, error)
	History(ctx context.Context, account string, limit int64) ([]*models.Transfer, error)
}

func WalletAccount(player string) string         { return "wallet:" + player }
func VaultAccount(casinoID string) string        { return "vault:" + casinoID }
func TreasuryAccount(casinoID string) string     { return "treasury:" + casinoID }
func TournamentAccount(tournament string) string { return "tournament:" + tournament }

const (
	maxHistory     = 100
	defaultHistory = 50
)

func historyLimit(limit int64) int64 {
	if limit <= 0 || limit > maxHistory {
		return defaultHistory
	}
	return limit
}

type MemoryCustody struct {
	mu        sync.Mutex
	balances  map[string]uint64
	applied   map[string]bool
	transfers []*models.Transfer
}

func NewMemoryCustody() *MemoryCustody {
	return &MemoryCustody{
		balances: make(map[string]uint64),
		applied:  make(map[string]bool),
	}
}

func (c *MemoryCustody) Transfer(ctx context.Context, ref, from, to string, amount uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.applied[ref] {
		return false, nil
	}
	if c.balances[from] < amount {
		return false, models.ErrInsufficientBalance
	}
	if c.balances[to] > math.MaxUint64-amount {
		return false, models.ErrArithmeticOverflow
	}
	c.balances[from] -= amount
	c.balances[to] += amount
	c.applied[ref] = true
	c.transfers = append(c.transfers, &models.Transfer{
		ID:        models.GenerateTransferID(),
		Ref:       ref,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	})
	return true, nil
}

func (c *MemoryCustody) Reverse(ctx context.Context, ref, from, to string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.applied[ref] {
		return nil
	}
	if c.balances[to] < amount {
		return models.ErrInsufficientBalance
	}
	if c.balances[from] > math.MaxUint64-amount {
		return models.ErrArithmeticOverflow
	}
	c.balances[to] -= amount
	c.balances[from] += amount
	delete(c.applied, ref)
	c.transfers = append(c.transfers, &models.Transfer{
		ID:        models.GenerateTransferID(),
		Ref:       reversalRef(ref),
		From:      to,
		To:        from,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func reversalRef(ref string) string { return "reversal:" + ref }

func (c *MemoryCustody) Deposit(ctx context.Context, account string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[account] = bps.SatAdd(c.balances[account], amount)
	return nil
}

func (c *MemoryCustody) Balance(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[account], nil
}

// History returns the latest transfers touching account, newest first.
func (c *MemoryCustody) History(ctx context.Context, account string, limit int64) ([]*models.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = historyLimit(limit)

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*models.Transfer
	for i := len(c.transfers) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		t := c.transfers[i]
		if t.From == account || t.To == account {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}
