package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/service"
)

const SubjectContextKey = "subject"

func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			// EventSource clients cannot set headers.
			token = c.Query("access_token")
		}
		if token == "" {
			writeError(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		subject, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(SubjectContextKey, subject)
		c.Next()
	}
}

func Subject(c *gin.Context) string {
	value, ok := c.Get(SubjectContextKey)
	if !ok {
		return ""
	}
	subject, ok := value.(string)
	if !ok {
		return ""
	}
	return subject
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
