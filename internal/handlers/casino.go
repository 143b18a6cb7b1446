package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

type CasinoHandler struct {
	engine *services.Engine
}

func NewCasinoHandler(engine *services.Engine) *CasinoHandler {
	return &CasinoHandler{engine: engine}
}

type initCasinoRequest struct {
	TokenMint   string `json:"token_mint"`
	HouseEdge   uint16 `json:"house_edge"`
	MinBet      uint64 `json:"min_bet"`
	MaxBet      uint64 `json:"max_bet"`
	TreasuryFee uint16 `json:"treasury_fee"`
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

func casinoView(c *models.Casino) gin.H {
	return gin.H{
		"casino":        c,
		"profit_margin": c.ProfitMargin().StringFixed(4),
		"payout_ratio":  c.PayoutRatio().StringFixed(4),
		"withdrawable":  c.WithdrawableTreasury(),
	}
}

func (h *CasinoHandler) Initialize(c *gin.Context) {
	var req initCasinoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	casino, err := h.engine.InitializeCasino(c.Request.Context(), c.GetString("user_id"), services.CasinoParams{
		TokenMint:   req.TokenMint,
		HouseEdge:   req.HouseEdge,
		MinBet:      req.MinBet,
		MaxBet:      req.MaxBet,
		TreasuryFee: req.TreasuryFee,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "casino": casino})
}

func (h *CasinoHandler) Get(c *gin.Context) {
	casino, err := h.engine.GetCasino(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := casinoView(casino)
	resp["success"] = true
	c.JSON(http.StatusOK, resp)
}

// UpdateConfig applies a partial update: absent or null fields are left as they are.
func (h *CasinoHandler) UpdateConfig(c *gin.Context) {
	var req services.CasinoConfigUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	casino, err := h.engine.UpdateCasinoConfig(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "casino": casino})
}

func (h *CasinoHandler) Pause(c *gin.Context) {
	casino, err := h.engine.EmergencyPause(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "casino": casino})
}

func (h *CasinoHandler) Resume(c *gin.Context) {
	casino, err := h.engine.ResumeCasino(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "casino": casino})
}

func (h *CasinoHandler) WithdrawTreasury(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	casino, err := h.engine.WithdrawTreasury(c.Request.Context(), c.GetString("user_id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"withdrawn":          req.Amount,
		"treasury_withdrawn": casino.TreasuryWithdrawn,
		"withdrawable":       casino.WithdrawableTreasury(),
	})
}

func (h *CasinoHandler) FundVault(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.engine.FundVault(c.Request.Context(), c.GetString("user_id"), req.Amount); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "funded": req.Amount})
}
