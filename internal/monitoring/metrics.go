package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	GamesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_games_created_total",
			Help: "Games created, by game type",
		},
		[]string{"game_type"},
	)

	GamesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_games_resolved_total",
			Help: "Games resolved, by game type and outcome",
		},
		[]string{"game_type", "outcome"},
	)

	GamesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_games_closed_total",
			Help: "Games claimed, cancelled or expired",
		},
		[]string{"status"},
	)

	WageredVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_wagered_volume_total",
			Help: "Total base units staked",
		},
	)

	PayoutVolume = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_payout_volume_total",
			Help: "Total base units paid out on claims",
		},
	)

	FairnessFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_fairness_failures_total",
			Help: "Reveals that did not match the commitment",
		},
	)

	StoreConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "casino_store_conflicts_total",
			Help: "Operations aborted by a concurrent modification",
		},
	)

	CustodyReversals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casino_custody_reversals_total",
			Help: "Transfers undone after their update failed to commit",
		},
		[]string{"result"},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. It is safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HttpRequests,
			GamesCreated,
			GamesResolved,
			GamesClosed,
			WageredVolume,
			PayoutVolume,
			FairnessFailures,
			StoreConflicts,
			CustodyReversals,
		)
	})
}
