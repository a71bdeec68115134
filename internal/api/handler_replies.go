package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gradient/internal/service"
)

type ReplyHandler struct {
	replies *service.ReplyService
	logger  *zap.Logger
}

func NewReplyHandler(replies *service.ReplyService, logger *zap.Logger) *ReplyHandler {
	return &ReplyHandler{replies: replies, logger: logger}
}

// GetReplies handles POST /leads/replies
func (h *ReplyHandler) GetReplies(c *gin.Context) {
	var req struct {
		MessageID       string                 `json:"message_id" binding:"required"`
		Regenerate      bool                   `json:"regenerate"`
		Placeholders    map[string]interface{} `json:"placeholders"`
		PromptOverrides map[string]string      `json:"prompt_overrides"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	replies, err := h.replies.GetReplies(c.Request.Context(), service.DraftRequest{
		MessageID:       req.MessageID,
		Regenerate:      req.Regenerate,
		Placeholders:    req.Placeholders,
		PromptOverrides: req.PromptOverrides,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		h.logger.Error("failed to draft replies", zap.String("message_id", req.MessageID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to draft replies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"replies": replies})
}
