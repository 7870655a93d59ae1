package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pomodoro/focus/internal/config"
	"pomodoro/focus/internal/db"
	"pomodoro/focus/internal/handler"
	"pomodoro/focus/internal/logging"
	"pomodoro/focus/internal/notify"
	"pomodoro/focus/internal/repository"
	"pomodoro/focus/internal/router"
	"pomodoro/focus/internal/service"
	"pomodoro/focus/internal/timer"
)

// App holds the wired timer, its stores and services for one process.
type App struct {
	cfg    config.Config
	logger zerolog.Logger
	db     *sql.DB

	Sessions     *repository.SessionRepository
	Achievements *service.AchievementEngine
	Settings     *service.SettingsService
	Auth         *service.AuthService
	Hub          *notify.Hub
	Machine      *timer.Machine
	Pomodoro     *service.PomodoroService
}

type Options struct {
	// Bell receives the audible signal. Nil keeps the timer silent.
	Bell io.Writer
	// Errors receives background timer failures; sends never block.
	Errors chan<- error
}

func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sessionRepo := repository.NewSessionRepository(database)
	achievementRepo := repository.NewAchievementRepository(database)
	kvRepo := repository.NewKVRepository(database)

	bell := opts.Bell
	if !cfg.Bell {
		bell = nil
	}
	hub := notify.NewHub(logging.Component(logger, "notify"), bell)

	var counter service.CompletionCounter = service.ThresholdCounter{}
	if cfg.CountStrategy == config.CountFromSessionLog {
		counter = service.NewSessionLogCounter(sessionRepo, kvRepo)
	}
	engine := service.NewAchievementEngine(achievementRepo, counter, hub, logging.Component(logger, "achievements"))
	if err := engine.Initialize(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("initialize achievements: %w", err)
	}

	settings := service.NewSettingsService(kvRepo, cfg.Settings(), logging.Component(logger, "settings"))
	if err := settings.Load(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	recorder := service.NewCompletionRecorder(sessionRepo, engine, logging.Component(logger, "recorder"))
	machine := timer.NewMachine(settings, recorder, hub, timer.Options{
		CyclesPerLongBreak: cfg.CyclesPerLongBreak,
		Logger:             logging.Component(logger, "timer"),
		Errors:             opts.Errors,
	})

	return &App{
		cfg:          cfg,
		logger:       logger,
		db:           database,
		Sessions:     sessionRepo,
		Achievements: engine,
		Settings:     settings,
		Auth:         service.NewAuthService(kvRepo, cfg.JWTSecret, cfg.TokenTTL),
		Hub:          hub,
		Machine:      machine,
		Pomodoro:     service.NewPomodoroService(machine, settings, sessionRepo),
	}, nil
}

// Handler builds the HTTP API over the app's services.
func (a *App) Handler() *gin.Engine {
	return router.New(
		a.Auth,
		handler.NewAuthHandler(a.Auth),
		handler.NewPomodoroHandler(a.Pomodoro, a.Hub),
		handler.NewAchievementHandler(a.Achievements),
		a.cfg.CORSOrigins,
		logging.Component(a.logger, "http"),
	)
}

// Close stops the timer, flushes pending writes and closes the database.
func (a *App) Close() error {
	a.Machine.Close()
	a.Hub.Close()
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
