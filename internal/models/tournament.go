package models

import (
	"slices"
	"time"

	"casino-engine/internal/bps"
)

type Tournament struct {
	ID          string              `json:"id"`
	Casino      string              `json:"casino"`
	Authority   string              `json:"authority"`
	EntryFee    uint64              `json:"entry_fee"`
	MaxPlayers  uint32              `json:"max_players"`
	StartTime   time.Time           `json:"start_time"`
	Duration    time.Duration       `json:"duration"`
	Players     []string            `json:"players"`
	PrizePool   uint64              `json:"prize_pool"`
	Status      TournamentStatus    `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	FinalizedAt Optional[time.Time] `json:"finalized_at"`
}

func NewTournament(id, casino, authority string, entryFee uint64, maxPlayers uint32, startTime time.Time, duration time.Duration, now time.Time) (*Tournament, error) {
	if entryFee == 0 {
		return nil, ErrInvalidTournamentEntryFee
	}
	if maxPlayers == 0 || duration <= 0 || duration > MaxTournamentDuration {
		return nil, ErrInvalidConfiguration
	}
	if startTime.Before(now) {
		return nil, ErrInvalidTimestamp
	}
	return &Tournament{
		ID:         id,
		Casino:     casino,
		Authority:  authority,
		EntryFee:   entryFee,
		MaxPlayers: maxPlayers,
		StartTime:  startTime,
		Duration:   duration,
		Players:    []string{},
		Status:     TournamentStatusCreated,
		CreatedAt:  now,
	}, nil
}

func (t *Tournament) EndTime() time.Time {
	return t.StartTime.Add(t.Duration)
}

func (t *Tournament) HasPlayer(player string) bool {
	return slices.Contains(t.Players, player)
}

// CheckJoin reports why player may not join at now, if anything.
func (t *Tournament) CheckJoin(player string, now time.Time) error {
	if t.Status != TournamentStatusCreated && t.Status != TournamentStatusActive {
		return ErrTournamentEnded
	}
	if !now.Before(t.EndTime()) {
		return ErrTournamentEnded
	}
	if t.HasPlayer(player) {
		return ErrAlreadyJoinedTournament
	}
	if uint32(len(t.Players)) >= t.MaxPlayers {
		return ErrTournamentFull
	}
	return nil
}

func (t *Tournament) Join(player string, now time.Time) error {
	if err := t.CheckJoin(player, now); err != nil {
		return err
	}
	t.Players = append(t.Players, player)
	t.PrizePool = bps.SatAdd(t.PrizePool, t.EntryFee)
	if t.Status == TournamentStatusCreated && !now.Before(t.StartTime) {
		t.Status = TournamentStatusActive
	}
	return nil
}

// Finalize closes the tournament once its window has passed. It can happen once.
func (t *Tournament) Finalize(now time.Time) error {
	if t.Status != TournamentStatusCreated && t.Status != TournamentStatusActive {
		return ErrCannotFinalizeTournament
	}
	if now.Before(t.EndTime()) {
		if now.Before(t.StartTime) {
			return ErrTournamentNotStarted
		}
		return ErrCannotFinalizeTournament
	}
	t.Status = TournamentStatusFinished
	t.FinalizedAt = Some(now)
	return nil
}
