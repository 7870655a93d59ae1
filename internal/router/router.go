package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pomodoro/focus/internal/handler"
	"pomodoro/focus/internal/middleware"
	"pomodoro/focus/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	pomodoroHandler *handler.PomodoroHandler,
	achievementHandler *handler.AchievementHandler,
	corsOrigins []string,
	logger zerolog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/setup", authHandler.Setup)
	auth.POST("/login", authHandler.Login)

	pomodoro := api.Group("/pomodoro")
	pomodoro.Use(middleware.Auth(authService))
	pomodoro.GET("/state", pomodoroHandler.GetState)
	pomodoro.POST("/start", pomodoroHandler.Start)
	pomodoro.POST("/pause", pomodoroHandler.Pause)
	pomodoro.POST("/reset", pomodoroHandler.Reset)
	pomodoro.POST("/skip", pomodoroHandler.Skip)
	pomodoro.POST("/mode", pomodoroHandler.SwitchMode)
	pomodoro.GET("/settings", pomodoroHandler.GetSettings)
	pomodoro.PUT("/settings", pomodoroHandler.UpdateSettings)
	pomodoro.GET("/history", pomodoroHandler.GetHistory)
	pomodoro.GET("/events", pomodoroHandler.Events)

	achievements := api.Group("/achievements")
	achievements.Use(middleware.Auth(authService))
	achievements.GET("", achievementHandler.List)
	achievements.POST("/reset", achievementHandler.Reset)

	return engine
}
