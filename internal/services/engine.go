package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"casino-engine/internal/audit"
	"casino-engine/internal/models"
	"casino-engine/internal/monitoring"
)

// Engine maps every external operation onto the casino, game and player
// records. Each operation reads, checks and writes inside one Store.Update so
// it either fully applies or leaves every record untouched. Custody transfers
// made by an update that does not commit are reversed.
type Engine struct {
	casinoID    string
	store       Store
	custody     Custody
	clock       Clock
	broadcaster Broadcaster
	recorder    audit.Recorder
	log         *zap.Logger
	gameTTL     time.Duration
	seedBalance uint64
}

type EngineOption func(*Engine)

func WithClock(c Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

func WithBroadcaster(b Broadcaster) EngineOption {
	return func(e *Engine) { e.broadcaster = b }
}

func WithRecorder(r audit.Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithGameTTL sets how long a game stays open. It is capped at
// models.MaxGameDuration.
func WithGameTTL(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 && d <= models.MaxGameDuration {
			e.gameTTL = d
		}
	}
}

// WithSeedBalance credits every newly initialized player wallet.
func WithSeedBalance(amount uint64) EngineOption {
	return func(e *Engine) { e.seedBalance = amount }
}

func NewEngine(casinoID string, store Store, custody Custody, opts ...EngineOption) *Engine {
	e := &Engine{
		casinoID:    casinoID,
		store:       store,
		custody:     custody,
		clock:       SystemClock{},
		broadcaster: nopBroadcaster{},
		recorder:    audit.Nop(),
		log:         zap.NewNop(),
		gameTTL:     models.MaxGameDuration,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) CasinoID() string {
	return e.casinoID
}

func casinoKey(id string) string {
	return fmt.Sprintf(KeyCasino, id)
}

func gameKey(id string) string {
	return fmt.Sprintf(KeyGame, id)
}

func playerKey(casinoID, player string) string {
	return fmt.Sprintf(KeyPlayer, casinoID, player)
}

func tournamentKey(id string) string {
	return fmt.Sprintf(KeyTournament, id)
}

func (e *Engine) update(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	err := e.store.Update(ctx, keys, fn)
	if errors.Is(err, models.ErrConcurrentModification) {
		monitoring.StoreConflicts.Inc()
	}
	return err
}

func loadCasino(tx Tx, id string) (*models.Casino, error) {
	var c models.Casino
	if err := tx.Get(casinoKey(id), &c); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrAccountNotInitialized
		}
		return nil, err
	}
	return &c, nil
}

func loadGame(tx Tx, id string) (*models.Game, error) {
	var g models.Game
	if err := tx.Get(gameKey(id), &g); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (e *Engine) requireAuthority(c *models.Casino, caller string) error {
	if caller == "" || caller != c.Authority {
		return models.ErrUnauthorized
	}
	return nil
}

// move is a custody transfer applied while an Update attempt was running.
type move struct {
	ref      string
	from, to string
	amount   uint64
}

// journal collects the transfers of one Update attempt so they can be undone
// when the attempt does not commit.
type journal struct {
	e       *Engine
	applied []move
}

// transfer moves funds through custody. shortfall is returned when the
// source cannot cover amount. A ref that is already applied belongs to a
// competing attempt on the same record, which either commits it or reverses
// it, so this attempt aborts as a conflict.
func (j *journal) transfer(ctx context.Context, ref, from, to string, amount uint64, shortfall error) error {
	if amount == 0 {
		return nil
	}
	applied, err := j.e.custody.Transfer(ctx, ref, from, to, amount)
	switch {
	case err == nil && !applied:
		return fmt.Errorf("%w: transfer %s already applied", models.ErrConcurrentModification, ref)
	case err == nil:
		j.applied = append(j.applied, move{ref: ref, from: from, to: to, amount: amount})
		return nil
	case errors.Is(err, models.ErrInsufficientBalance):
		return shortfall
	case errors.Is(err, models.ErrArithmeticOverflow):
		return err
	default:
		return fmt.Errorf("%w: %v", models.ErrTokenTransferFailed, err)
	}
}

// settle runs fn inside one Update and moves funds through the journal. When
// the update returns an error, including a lost commit race, every transfer
// the attempt applied is reversed newest first, so records and balances
// change together or not at all.
func (e *Engine) settle(ctx context.Context, keys []string, fn func(tx Tx, j *journal) error) error {
	j := &journal{e: e}
	err := e.update(ctx, keys, func(tx Tx) error {
		return fn(tx, j)
	})
	if err != nil {
		e.rollback(ctx, j.applied)
	}
	return err
}

func (e *Engine) rollback(ctx context.Context, moves []move) {
	ctx = context.WithoutCancel(ctx)
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		if err := e.custody.Reverse(ctx, m.ref, m.from, m.to, m.amount); err != nil {
			monitoring.CustodyReversals.WithLabelValues("failed").Inc()
			e.log.Error("transfer reversal failed",
				zap.String("ref", m.ref),
				zap.String("from", m.from),
				zap.String("to", m.to),
				zap.Uint64("amount", m.amount),
				zap.Error(err),
			)
			continue
		}
		monitoring.CustodyReversals.WithLabelValues("reversed").Inc()
		e.log.Warn("transfer reversed after aborted update", zap.String("ref", m.ref), zap.Uint64("amount", m.amount))
	}
}

// publish records a committed operation and pushes it to subscribers.
// Failures here never undo the operation.
func (e *Engine) publish(ctx context.Context, kind audit.Kind, subject, actor string, amount uint64, details any) {
	now := e.clock.Now()
	err := e.recorder.Record(ctx, audit.Entry{
		Kind:      kind,
		Casino:    e.casinoID,
		Subject:   subject,
		Actor:     actor,
		Amount:    amount,
		Details:   details,
		CreatedAt: now,
	})
	if err != nil {
		e.log.Error("audit record failed", zap.String("kind", string(kind)), zap.String("subject", subject), zap.Error(err))
	}

	e.broadcaster.Broadcast(Event{
		Type:      string(kind),
		Casino:    e.casinoID,
		Subject:   subject,
		Actor:     actor,
		Amount:    amount,
		Data:      details,
		Timestamp: now,
	})
}

// Balance reports the custody balance of a player wallet.
func (e *Engine) Balance(ctx context.Context, player string) (uint64, error) {
	return e.custody.Balance(ctx, WalletAccount(player))
}

func (e *Engine) Transfers(ctx context.Context, player string, limit int64) ([]*models.Transfer, error) {
	return e.custody.History(ctx, WalletAccount(player), limit)
}
