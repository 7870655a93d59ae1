package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodoro/focus/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

type authRequest struct {
	Password string `json:"password"`
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Setup(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.authService.Setup(c.Request.Context(), req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	result, apiErr := h.authService.Login(c.Request.Context(), req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	c.JSON(http.StatusOK, result)
}
