package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/service"
)

type AchievementHandler struct {
	engine *service.AchievementEngine
}

func NewAchievementHandler(engine *service.AchievementEngine) *AchievementHandler {
	return &AchievementHandler{engine: engine}
}

func (h *AchievementHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"achievements": h.engine.List(),
		"completed":    h.engine.Completed(),
	})
}

func (h *AchievementHandler) Reset(c *gin.Context) {
	if err := h.engine.ResetAll(c.Request.Context()); err != nil {
		writeError(c, apperrors.FromError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"achievements": h.engine.List(),
		"completed":    h.engine.Completed(),
	})
}
