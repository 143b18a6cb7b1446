package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-engine/internal/services"
)

type PlayerHandler struct {
	engine *services.Engine
}

func NewPlayerHandler(engine *services.Engine) *PlayerHandler {
	return &PlayerHandler{engine: engine}
}

func (h *PlayerHandler) Initialize(c *gin.Context) {
	player, err := h.engine.InitializePlayer(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "player": player})
}

func (h *PlayerHandler) GetCurrentPlayer(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	player, err := h.engine.GetPlayer(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.engine.Balance(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"player":  player,
		"balance": balance,
	})
}

func (h *PlayerHandler) UpdateStats(c *gin.Context) {
	var req services.PlayerStatsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if req.Player == "" {
		c.JSON(http.StatusBadRequest, APIError{Error: "Invalid request: player is required", Code: "INVALID_REQUEST"})
		return
	}

	player, err := h.engine.UpdatePlayerStats(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "player": player})
}
