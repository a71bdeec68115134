package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradient/internal/export"
)

type SyncHandler struct {
	syncer *export.Syncer
	logger *zap.Logger
}

func NewSyncHandler(syncer *export.Syncer, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncer, logger: logger}
}

// Sync handles POST /gmail/sync: one on-demand pull-and-export pass.
func (h *SyncHandler) Sync(c *gin.Context) {
	count, err := h.syncer.Sync(c.Request.Context())
	if err != nil {
		h.logger.Error("manual sync failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"exported": count,
	})
}
