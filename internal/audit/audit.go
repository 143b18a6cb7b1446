// Package audit keeps an append-only log of settlement events.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

type Kind string

const (
	KindCasinoInitialized  Kind = "casino_initialized"
	KindCasinoConfigured   Kind = "casino_configured"
	KindCasinoPaused       Kind = "casino_paused"
	KindCasinoResumed      Kind = "casino_resumed"
	KindTreasuryWithdrawn  Kind = "treasury_withdrawn"
	KindGameCreated        Kind = "game_created"
	KindGameResolved       Kind = "game_resolved"
	KindGameClaimed        Kind = "game_claimed"
	KindGameCancelled      Kind = "game_cancelled"
	KindGameExpired        Kind = "game_expired"
	KindPlayerInitialized  Kind = "player_initialized"
	KindPlayerUpdated      Kind = "player_updated"
	KindTournamentCreated  Kind = "tournament_created"
	KindTournamentJoined   Kind = "tournament_joined"
	KindTournamentFinished Kind = "tournament_finalized"
)

type Entry struct {
	Kind      Kind      `json:"kind"`
	Casino    string    `json:"casino"`
	Subject   string    `json:"subject"` // game or tournament id
	Actor     string    `json:"actor"`
	Amount    uint64    `json:"amount"`
	Details   any       `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Entry) error { return nil }

// Nop discards every entry.
func Nop() Recorder { return nopRecorder{} }

const schema = `
CREATE TABLE IF NOT EXISTS casino_audit (
	id         BIGSERIAL PRIMARY KEY,
	kind       TEXT        NOT NULL,
	casino     TEXT        NOT NULL,
	subject    TEXT        NOT NULL,
	actor      TEXT        NOT NULL,
	amount     NUMERIC(20) NOT NULL,
	details    JSONB,
	created_at TIMESTAMPTZ NOT NULL
)`

type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %v", err)
	}
	// Simple protocol keeps the recorder usable behind PgBouncer.
	config.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db := stdlib.OpenDB(*config)
	db.SetConnMaxIdleTime(4 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %v", err)
	}
	return &PostgresRecorder{db: db}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	var details any
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %v", err)
		}
		details = string(b)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO casino_audit (kind, casino, subject, actor, amount, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.Kind), e.Casino, e.Subject, e.Actor, fmt.Sprint(e.Amount), details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s: %v", e.Kind, err)
	}
	return nil
}

// Recent returns the latest entries for subject, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, subject string, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, casino, subject, actor, amount::TEXT, created_at
		 FROM casino_audit WHERE subject = $1 ORDER BY id DESC LIMIT $2`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %v", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			kind   string
			amount string
		)
		if err := rows.Scan(&kind, &e.Casino, &e.Subject, &e.Actor, &amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %v", err)
		}
		e.Kind = Kind(kind)
		if _, err := fmt.Sscan(amount, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to parse audit amount: %v", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
