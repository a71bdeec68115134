package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gradient/internal/model"
	"gradient/internal/report"
	"gradient/internal/repository"
)

type DashboardHandler struct {
	messages *repository.MessageRepository
	logger   *zap.Logger
}

func NewDashboardHandler(messages *repository.MessageRepository, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{messages: messages, logger: logger}
}

// GetDashboard handles GET /analytics/dashboard. The dashboard degrades to
// an all-zero payload instead of erroring, so the frontend always renders.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	msgs, err := h.messages.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Warn("dashboard: failed to list messages, serving zeros", zap.Error(err))
		msgs = []model.Message{}
	}

	c.JSON(http.StatusOK, report.Build(msgs, time.Now()))
}
