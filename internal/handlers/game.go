package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

type GameHandler struct {
	engine *services.Engine
}

func NewGameHandler(engine *services.Engine) *GameHandler {
	return &GameHandler{engine: engine}
}

type createGameRequest struct {
	GameType       string `json:"game_type" binding:"required"`
	BetAmount      uint64 `json:"bet_amount"`
	Prediction     []int  `json:"prediction" binding:"dive,min=0,max=255"`
	ClientSeed     string `json:"client_seed"`
	ServerSeedHash string `json:"server_seed_hash"`
}

type resolveGameRequest struct {
	ServerSeed string `json:"server_seed"`
	Nonce      uint64 `json:"nonce"`
}

type verifyRequest struct {
	GameType       string `json:"game_type" binding:"required"`
	Prediction     []int  `json:"prediction" binding:"dive,min=0,max=255"`
	ServerSeed     string `json:"server_seed"`
	ServerSeedHash string `json:"server_seed_hash" binding:"required"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`
}

func toBytes(values []int) []byte {
	if len(values) == 0 {
		return nil
	}
	out := make([]byte, len(values))
	for i, v := range values {
		out[i] = byte(v)
	}
	return out
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// gameView renders byte fields as number arrays instead of base64.
func gameView(g *models.Game) gin.H {
	view := gin.H{
		"id":            g.ID,
		"player":        g.Player,
		"game_type":     g.GameType,
		"bet_amount":    g.BetAmount,
		"prediction":    toInts(g.Prediction),
		"provable_fair": g.ProvableFair,
		"status":        g.Status,
		"session_id":    g.SessionID,
		"created_at":    g.CreatedAt,
		"expires_at":    g.ExpiresAt,
		"resolved_at":   g.ResolvedAt,
		"claimed_at":    g.ClaimedAt,
	}
	if r, ok := g.Result.Get(); ok {
		view["result"] = resultView(r)
	}
	return view
}

func resultView(r models.GameResult) gin.H {
	return gin.H{
		"outcome":            toInts(r.Outcome),
		"won":                r.Won(),
		"multiplier":         r.Multiplier,
		"payout":             r.Payout,
		"house_edge_taken":   r.HouseEdgeTaken,
		"treasury_fee_taken": r.TreasuryFeeTaken,
	}
}

func (h *GameHandler) Create(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	gameType, err := models.ParseGameType(req.GameType)
	if err != nil {
		respondError(c, err)
		return
	}

	game, err := h.engine.CreateGame(c.Request.Context(), c.GetString("user_id"), services.CreateGameParams{
		GameType:       gameType,
		BetAmount:      req.BetAmount,
		Prediction:     toBytes(req.Prediction),
		ClientSeed:     req.ClientSeed,
		ServerSeedHash: req.ServerSeedHash,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "game": gameView(game)})
}

func (h *GameHandler) Get(c *gin.Context) {
	game, err := h.engine.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game": gameView(game)})
}

func (h *GameHandler) Resolve(c *gin.Context) {
	var req resolveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.engine.ResolveGame(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.ServerSeed, req.Nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": resultView(result)})
}

func (h *GameHandler) Claim(c *gin.Context) {
	paid, err := h.engine.ClaimWinnings(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payout": paid})
}

func (h *GameHandler) Cancel(c *gin.Context) {
	game, err := h.engine.CancelGame(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game": gameView(game), "refunded": game.BetAmount})
}

func (h *GameHandler) Expire(c *gin.Context) {
	game, err := h.engine.ExpireGame(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "game": gameView(game), "refunded": game.BetAmount})
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")
	balance, err := h.engine.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": balance,
		"wallet":  models.BalanceResponse{Account: services.WalletAccount(userID), Balance: balance},
	})
}

func (h *GameHandler) GetTransfers(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	transfers, err := h.engine.Transfers(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transfers": transfers, "count": len(transfers)})
}

// Verify replays a revealed game. It is public and reads no records.
func (h *GameHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	gameType, err := models.ParseGameType(req.GameType)
	if err != nil {
		respondError(c, err)
		return
	}

	v, err := services.VerifyReveal(gameType, toBytes(req.Prediction), req.ServerSeed, req.ServerSeedHash, req.ClientSeed, req.Nonce)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"valid":      v.Valid,
		"outcome":    toInts(v.Outcome),
		"multiplier": v.Multiplier,
		"won":        v.Multiplier > 0,
	})
}
