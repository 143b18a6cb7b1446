package models

import "errors"

// Validation
var (
	ErrBetTooSmall               = errors.New("bet amount is too small")
	ErrBetTooLarge               = errors.New("bet amount is too large")
	ErrInvalidHouseEdge          = errors.New("invalid house edge percentage")
	ErrInvalidTreasuryFee        = errors.New("invalid treasury fee percentage")
	ErrInvalidPrediction         = errors.New("invalid prediction format")
	ErrInvalidGameType           = errors.New("invalid game type")
	ErrInvalidServerSeed         = errors.New("invalid server seed")
	ErrInvalidClientSeed         = errors.New("invalid client seed")
	ErrInvalidNonce              = errors.New("invalid nonce")
	ErrInvalidConfiguration      = errors.New("invalid configuration")
	ErrInvalidTimestamp          = errors.New("invalid timestamp")
	ErrInvalidTournamentEntryFee = errors.New("invalid tournament entry fee")
)

// Operational and state
var (
	ErrCasinoNotActive           = errors.New("casino is not active")
	ErrCasinoPaused              = errors.New("casino is paused")
	ErrCannotResolveGame         = errors.New("game cannot be resolved")
	ErrCannotCancelGame          = errors.New("game cannot be cancelled")
	ErrGameNotExpired            = errors.New("game has not expired")
	ErrCannotExpireGame          = errors.New("cannot expire game")
	ErrCannotClaimWinnings       = errors.New("cannot claim winnings")
	ErrSeedAlreadyUsed           = errors.New("seed already used")
	ErrAccountAlreadyInitialized = errors.New("account already initialized")
	ErrAccountNotInitialized     = errors.New("account not initialized")
	ErrGameNotFound              = errors.New("game not found")
	ErrPlayerNotFound            = errors.New("player not found")
)

// Fairness
var ErrProvableFairnessVerificationFailed = errors.New("provable fairness verification failed")

// Authorization
var ErrUnauthorized = errors.New("unauthorized access")

// Resource
var (
	ErrInsufficientVaultFunds = errors.New("insufficient funds in vault")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrTokenTransferFailed    = errors.New("token transfer failed")
)

// Arithmetic
var (
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")
)

// Tournament
var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentFull           = errors.New("tournament is full")
	ErrTournamentNotStarted     = errors.New("tournament has not started")
	ErrTournamentEnded          = errors.New("tournament has ended")
	ErrAlreadyJoinedTournament  = errors.New("already joined tournament")
	ErrCannotFinalizeTournament = errors.New("cannot finalize tournament")
)

// Storage
var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
)
