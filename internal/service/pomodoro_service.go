package service

import (
	"context"
	"time"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
	"pomodoro/focus/internal/timer"
)

type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]model.CompletedSession, error)
}

// PomodoroService exposes the single timer to the HTTP and terminal surfaces.
type PomodoroService struct {
	machine  *timer.Machine
	settings *SettingsService
	history  HistoryReader
}

type StateView struct {
	timer.Snapshot
	Clock      string         `json:"clock"`
	Settings   model.Settings `json:"settings"`
	ServerTime time.Time      `json:"serverTime"`
}

func NewPomodoroService(machine *timer.Machine, settings *SettingsService, history HistoryReader) *PomodoroService {
	return &PomodoroService{
		machine:  machine,
		settings: settings,
		history:  history,
	}
}

func (s *PomodoroService) GetState() StateView {
	return s.toStateView(s.machine.Snapshot())
}

func (s *PomodoroService) Start() (*StateView, *apperrors.APIError) {
	if err := s.machine.Start(); err != nil {
		return nil, apperrors.FromError(err)
	}
	return s.view(), nil
}

func (s *PomodoroService) Pause() *StateView {
	s.machine.Pause()
	return s.view()
}

func (s *PomodoroService) Reset() *StateView {
	s.machine.Reset()
	return s.view()
}

func (s *PomodoroService) Skip() *StateView {
	s.machine.SkipToNext()
	return s.view()
}

func (s *PomodoroService) SwitchMode(mode string) (*StateView, *apperrors.APIError) {
	phase, ok := model.ParsePhase(mode)
	if !ok {
		return nil, apperrors.BadRequest("invalid_mode", "mode must be one of focus, short_break, long_break")
	}
	if err := s.machine.SelectPhase(phase); err != nil {
		return nil, apperrors.FromError(err)
	}
	return s.view(), nil
}

func (s *PomodoroService) GetSettings() model.Settings {
	return s.settings.Current()
}

// UpdateSettings persists new durations. A phase that has not been started
// yet picks them up immediately; others on their next refill.
func (s *PomodoroService) UpdateSettings(ctx context.Context, input model.Settings) (*StateView, *apperrors.APIError) {
	if _, apiErr := s.settings.Update(ctx, input); apiErr != nil {
		return nil, apiErr
	}
	s.machine.ApplySettings()
	return s.view(), nil
}

func (s *PomodoroService) GetHistory(ctx context.Context, limit int) ([]model.CompletedSession, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// Subscribe streams state views until cancel is called.
func (s *PomodoroService) Subscribe(buffer int) (<-chan timer.Snapshot, func()) {
	return s.machine.Subscribe(buffer)
}

func (s *PomodoroService) View(snap timer.Snapshot) StateView {
	return s.toStateView(snap)
}

func (s *PomodoroService) view() *StateView {
	view := s.toStateView(s.machine.Snapshot())
	return &view
}

func (s *PomodoroService) toStateView(snap timer.Snapshot) StateView {
	return StateView{
		Snapshot:   snap,
		Clock:      snap.Clock(),
		Settings:   s.settings.Current(),
		ServerTime: time.Now().UTC(),
	}
}
