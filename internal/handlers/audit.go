package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"casino-engine/internal/audit"
	"casino-engine/internal/models"
	"casino-engine/internal/services"
)

const maxAuditEntries = 100

// AuditLog is the read side of the settlement audit log.
type AuditLog interface {
	Recent(ctx context.Context, subject string, limit int) ([]audit.Entry, error)
}

type AuditHandler struct {
	engine *services.Engine
	log    AuditLog
}

func NewAuditHandler(engine *services.Engine, log AuditLog) *AuditHandler {
	return &AuditHandler{engine: engine, log: log}
}

// Recent lists audit entries for a subject. Authority only.
func (h *AuditHandler) Recent(c *gin.Context) {
	ctx := c.Request.Context()

	casino, err := h.engine.GetCasino(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.GetString("user_id") != casino.Authority {
		respondError(c, models.ErrUnauthorized)
		return
	}

	subject := c.Query("subject")
	if subject == "" {
		subject = casino.ID
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > maxAuditEntries {
		limit = maxAuditEntries
	}

	entries, err := h.log.Recent(ctx, subject, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "entries": entries, "count": len(entries)})
}
