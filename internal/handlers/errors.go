package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-engine/internal/logger"
	"casino-engine/internal/models"
)

// APIError is the error body of every failed request.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	// validation
	{models.ErrBetTooSmall, http.StatusBadRequest, "BET_TOO_SMALL"},
	{models.ErrBetTooLarge, http.StatusBadRequest, "BET_TOO_LARGE"},
	{models.ErrInvalidHouseEdge, http.StatusBadRequest, "INVALID_HOUSE_EDGE"},
	{models.ErrInvalidTreasuryFee, http.StatusBadRequest, "INVALID_TREASURY_FEE"},
	{models.ErrInvalidPrediction, http.StatusBadRequest, "INVALID_PREDICTION"},
	{models.ErrInvalidGameType, http.StatusBadRequest, "INVALID_GAME_TYPE"},
	{models.ErrInvalidServerSeed, http.StatusBadRequest, "INVALID_SERVER_SEED"},
	{models.ErrInvalidClientSeed, http.StatusBadRequest, "INVALID_CLIENT_SEED"},
	{models.ErrInvalidNonce, http.StatusBadRequest, "INVALID_NONCE"},
	{models.ErrInvalidConfiguration, http.StatusBadRequest, "INVALID_CONFIGURATION"},
	{models.ErrInvalidTimestamp, http.StatusBadRequest, "INVALID_TIMESTAMP"},
	{models.ErrInvalidTournamentEntryFee, http.StatusBadRequest, "INVALID_TOURNAMENT_ENTRY_FEE"},

	// state
	{models.ErrCasinoNotActive, http.StatusConflict, "CASINO_NOT_ACTIVE"},
	{models.ErrCasinoPaused, http.StatusConflict, "CASINO_PAUSED"},
	{models.ErrCannotResolveGame, http.StatusConflict, "CANNOT_RESOLVE_GAME"},
	{models.ErrCannotCancelGame, http.StatusConflict, "CANNOT_CANCEL_GAME"},
	{models.ErrGameNotExpired, http.StatusConflict, "GAME_NOT_EXPIRED"},
	{models.ErrCannotExpireGame, http.StatusConflict, "CANNOT_EXPIRE_GAME"},
	{models.ErrCannotClaimWinnings, http.StatusConflict, "CANNOT_CLAIM_WINNINGS"},
	{models.ErrSeedAlreadyUsed, http.StatusConflict, "SEED_ALREADY_USED"},
	{models.ErrAccountAlreadyInitialized, http.StatusConflict, "ACCOUNT_ALREADY_INITIALIZED"},
	{models.ErrAccountNotInitialized, http.StatusNotFound, "ACCOUNT_NOT_INITIALIZED"},
	{models.ErrGameNotFound, http.StatusNotFound, "GAME_NOT_FOUND"},
	{models.ErrPlayerNotFound, http.StatusNotFound, "PLAYER_NOT_FOUND"},

	// fairness
	{models.ErrProvableFairnessVerificationFailed, http.StatusUnprocessableEntity, "PROVABLE_FAIRNESS_VERIFICATION_FAILED"},

	// authorization
	{models.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},

	// resource
	{models.ErrInsufficientVaultFunds, http.StatusConflict, "INSUFFICIENT_VAULT_FUNDS"},
	{models.ErrInsufficientBalance, http.StatusPaymentRequired, "INSUFFICIENT_BALANCE"},
	{models.ErrTokenTransferFailed, http.StatusBadGateway, "TOKEN_TRANSFER_FAILED"},

	// arithmetic
	{models.ErrArithmeticOverflow, http.StatusUnprocessableEntity, "ARITHMETIC_OVERFLOW"},
	{models.ErrArithmeticUnderflow, http.StatusUnprocessableEntity, "ARITHMETIC_UNDERFLOW"},

	// tournament
	{models.ErrTournamentNotFound, http.StatusNotFound, "TOURNAMENT_NOT_FOUND"},
	{models.ErrTournamentFull, http.StatusConflict, "TOURNAMENT_FULL"},
	{models.ErrTournamentNotStarted, http.StatusConflict, "TOURNAMENT_NOT_STARTED"},
	{models.ErrTournamentEnded, http.StatusConflict, "TOURNAMENT_ENDED"},
	{models.ErrAlreadyJoinedTournament, http.StatusConflict, "ALREADY_JOINED_TOURNAMENT"},
	{models.ErrCannotFinalizeTournament, http.StatusConflict, "CANNOT_FINALIZE_TOURNAMENT"},

	// storage
	{models.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
	{models.ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
}

// statusFor maps err onto its HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "Internal server error"
	}
	c.JSON(status, APIError{Error: message, Code: code})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, APIError{Error: "Invalid request: " + err.Error(), Code: "INVALID_REQUEST"})
}
