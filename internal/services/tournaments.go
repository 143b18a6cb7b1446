package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"casino-engine/internal/audit"
	"casino-engine/internal/models"
)

// PrizeDistributor pays out a finished tournament from its pool account.
// It runs inside the finalize update; an error aborts finalization. A failed
// commit may run it again, so its transfers must be idempotent by ref.
type PrizeDistributor interface {
	Distribute(ctx context.Context, t *models.Tournament, pool string) error
}

type TournamentManager struct {
	engine      *Engine
	distributor PrizeDistributor
}

// NewTournamentManager returns a manager over engine's records. With a nil
// distributor a finalized pool stays in the tournament account.
func NewTournamentManager(engine *Engine, distributor PrizeDistributor) *TournamentManager {
	return &TournamentManager{engine: engine, distributor: distributor}
}

type TournamentParams struct {
	EntryFee   uint64        `json:"entry_fee"`
	MaxPlayers uint32        `json:"max_players"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
}

func loadTournament(tx Tx, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := tx.Get(tournamentKey(id), &t); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (m *TournamentManager) Create(ctx context.Context, caller string, p TournamentParams) (*models.Tournament, error) {
	e := m.engine
	now := e.clock.Now()
	id := models.TournamentID(e.casinoID, caller, p.StartTime)

	var tournament *models.Tournament
	err := e.update(ctx, []string{casinoKey(e.casinoID), tournamentKey(id)}, func(tx Tx) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		if err := e.requireAuthority(casino, caller); err != nil {
			return err
		}
		if err := casino.CheckOperational(); err != nil {
			return err
		}

		tournament, err = models.NewTournament(id, casino.ID, caller, p.EntryFee, p.MaxPlayers, p.StartTime, p.Duration, now)
		if err != nil {
			return err
		}

		var existing models.Tournament
		err = tx.Get(tournamentKey(id), &existing)
		if err == nil {
			return models.ErrAccountAlreadyInitialized
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		return tx.Put(tournamentKey(id), tournament)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("tournament created",
		zap.String("tournament", id),
		zap.Uint64("entry_fee", p.EntryFee),
		zap.Uint32("max_players", p.MaxPlayers),
		zap.Time("start", p.StartTime),
		zap.Duration("duration", p.Duration))
	e.publish(ctx, audit.KindTournamentCreated, id, caller, 0, tournament)
	return tournament, nil
}

func (m *TournamentManager) Get(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := m.engine.store.View(ctx, tournamentKey(id), &t); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Join enrols the caller and moves the entry fee into the tournament pool.
func (m *TournamentManager) Join(ctx context.Context, caller, id string) (*models.Tournament, error) {
	if caller == "" {
		return nil, models.ErrUnauthorized
	}
	e := m.engine
	now := e.clock.Now()

	var tournament *models.Tournament
	err := e.settle(ctx, []string{casinoKey(e.casinoID), tournamentKey(id)}, func(tx Tx, j *journal) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		if err := casino.CheckOperational(); err != nil {
			return err
		}
		tournament, err = loadTournament(tx, id)
		if err != nil {
			return err
		}
		if err := tournament.CheckJoin(caller, now); err != nil {
			return err
		}

		ref := "entry:" + id + ":" + caller
		if err := j.transfer(ctx, ref, WalletAccount(caller), TournamentAccount(id), tournament.EntryFee, models.ErrInsufficientBalance); err != nil {
			return err
		}
		if err := tournament.Join(caller, now); err != nil {
			return err
		}
		return tx.Put(tournamentKey(id), tournament)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("tournament joined", zap.String("tournament", id), zap.String("player", caller), zap.Int("players", len(tournament.Players)))
	e.publish(ctx, audit.KindTournamentJoined, id, caller, tournament.EntryFee, nil)
	return tournament, nil
}

// Finalize closes a tournament whose window has passed. Authority only.
func (m *TournamentManager) Finalize(ctx context.Context, caller, id string) (*models.Tournament, error) {
	e := m.engine
	now := e.clock.Now()

	var tournament *models.Tournament
	err := e.update(ctx, []string{casinoKey(e.casinoID), tournamentKey(id)}, func(tx Tx) error {
		casino, err := loadCasino(tx, e.casinoID)
		if err != nil {
			return err
		}
		if err := e.requireAuthority(casino, caller); err != nil {
			return err
		}
		tournament, err = loadTournament(tx, id)
		if err != nil {
			return err
		}
		if err := tournament.Finalize(now); err != nil {
			return err
		}
		if m.distributor != nil {
			if err := m.distributor.Distribute(ctx, tournament, TournamentAccount(id)); err != nil {
				return err
			}
		}
		return tx.Put(tournamentKey(id), tournament)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("tournament finalized", zap.String("tournament", id), zap.Uint64("prize_pool", tournament.PrizePool))
	e.publish(ctx, audit.KindTournamentFinished, id, caller, tournament.PrizePool, nil)
	return tournament, nil
}
