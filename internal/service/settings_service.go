package service

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
	"pomodoro/focus/internal/repository"
)

const (
	settingsKey = "timer.settings"

	minPhaseSeconds = 60
	maxPhaseSeconds = 60 * 60
)

// SettingsService holds the phase durations. Reads are served from memory so
// the timer never waits on storage.
type SettingsService struct {
	mu       sync.RWMutex
	kv       KVStore
	defaults model.Settings
	current  model.Settings
	logger   zerolog.Logger
}

func NewSettingsService(kv KVStore, defaults model.Settings, logger zerolog.Logger) *SettingsService {
	return &SettingsService{
		kv:       kv,
		defaults: defaults,
		current:  defaults,
		logger:   logger,
	}
}

// Load replaces the in-memory durations with the persisted ones, if any.
func (s *SettingsService) Load(ctx context.Context) error {
	var stored model.Settings
	err := s.kv.Get(ctx, settingsKey, &stored)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Storage("load settings", err)
	}

	s.mu.Lock()
	s.current = s.withDefaults(stored)
	s.mu.Unlock()
	return nil
}

func (s *SettingsService) Current() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *SettingsService) Update(ctx context.Context, next model.Settings) (model.Settings, *apperrors.APIError) {
	for _, seconds := range []int{next.FocusSeconds, next.ShortBreakSeconds, next.LongBreakSeconds} {
		if seconds < minPhaseSeconds || seconds > maxPhaseSeconds {
			return model.Settings{}, apperrors.BadRequest("invalid_duration", "durations must be between 1 and 60 minutes")
		}
	}

	if err := s.kv.Set(ctx, settingsKey, next); err != nil {
		s.logger.Error().Err(err).Msg("persist settings")
		return model.Settings{}, apperrors.Internal("failed to save settings")
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.Info().
		Int("focus", next.FocusSeconds).
		Int("shortBreak", next.ShortBreakSeconds).
		Int("longBreak", next.LongBreakSeconds).
		Msg("settings updated")
	return next, nil
}

func (s *SettingsService) FocusSeconds() int {
	return s.Current().FocusSeconds
}

func (s *SettingsService) ShortBreakSeconds() int {
	return s.Current().ShortBreakSeconds
}

func (s *SettingsService) LongBreakSeconds() int {
	return s.Current().LongBreakSeconds
}

// withDefaults fills fields a stored record left empty.
func (s *SettingsService) withDefaults(stored model.Settings) model.Settings {
	if stored.FocusSeconds <= 0 {
		stored.FocusSeconds = s.defaults.FocusSeconds
	}
	if stored.ShortBreakSeconds <= 0 {
		stored.ShortBreakSeconds = s.defaults.ShortBreakSeconds
	}
	if stored.LongBreakSeconds <= 0 {
		stored.LongBreakSeconds = s.defaults.LongBreakSeconds
	}
	return stored
}
