package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradient/internal/repository"
)

type SettingsHandler struct {
	prompts *repository.PromptRepository
	logger  *zap.Logger
}

func NewSettingsHandler(prompts *repository.PromptRepository, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{prompts: prompts, logger: logger}
}

// GetReplyPrompts handles GET /settings/reply-prompts
func (h *SettingsHandler) GetReplyPrompts(c *gin.Context) {
	prompts, err := h.prompts.GetReplyPrompts(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load reply prompts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prompts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prompts": prompts})
}

// UpdateReplyPrompts handles PUT /settings/reply-prompts. Unknown variant
// keys in the payload are ignored.
func (h *SettingsHandler) UpdateReplyPrompts(c *gin.Context) {
	var req struct {
		Prompts map[string]string `json:"prompts" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.prompts.UpdateReplyPrompts(c.Request.Context(), req.Prompts); err != nil {
		h.logger.Error("failed to update reply prompts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update prompts"})
		return
	}

	prompts, err := h.prompts.GetReplyPrompts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "prompts": prompts})
}
