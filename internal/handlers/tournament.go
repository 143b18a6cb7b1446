package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"casino-engine/internal/services"
)

type TournamentHandler struct {
	manager *services.TournamentManager
}

func NewTournamentHandler(manager *services.TournamentManager) *TournamentHandler {
	return &TournamentHandler{manager: manager}
}

type createTournamentRequest struct {
	EntryFee        uint64    `json:"entry_fee"`
	MaxPlayers      uint32    `json:"max_players"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	DurationSeconds int64     `json:"duration_seconds"`
}

func (h *TournamentHandler) Create(c *gin.Context) {
	var req createTournamentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	t, err := h.manager.Create(c.Request.Context(), c.GetString("user_id"), services.TournamentParams{
		EntryFee:   req.EntryFee,
		MaxPlayers: req.MaxPlayers,
		StartTime:  req.StartTime.UTC(),
		Duration:   time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "tournament": t, "end_time": t.EndTime()})
}

func (h *TournamentHandler) Get(c *gin.Context) {
	t, err := h.manager.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tournament": t, "end_time": t.EndTime()})
}

func (h *TournamentHandler) Join(c *gin.Context) {
	t, err := h.manager.Join(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tournament": t})
}

func (h *TournamentHandler) Finalize(c *gin.Context) {
	t, err := h.manager.Finalize(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tournament": t})
}
