package services

import "time"

const (
	KeyCasino      = "casino:%s"
	KeyGame        = "game:%s"
	KeyPlayer      = "player:%s:%s"
	KeyTournament  = "tournament:%s"
	KeyBalance     = "balance:%s"
	KeyTransferRef = "transfer:ref:%s"
	KeyTransfer    = "transfer:%s"
	KeyTransfers   = "account:%s:transfers"
	KeyRateLimit   = "ratelimit:%s:%s"

	PrefixGame = "game:"

	TTLTransfer = 30 * 24 * time.Hour // 30 days

	DefaultRateLimitGames = 30 // per minute
)
