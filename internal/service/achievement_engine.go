package service

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
	"pomodoro/focus/internal/repository"
)

type AchievementStore interface {
	LoadAll(ctx context.Context) ([]model.Achievement, error)
	Upsert(ctx context.Context, achievement model.Achievement) error
	UpsertAll(ctx context.Context, achievements []model.Achievement) error
	// ResetAll stores locked and the reset time atomically.
	ResetAll(ctx context.Context, locked []model.Achievement, at time.Time) error
}

// CompletionCounter recovers the completed focus count at startup.
type CompletionCounter interface {
	Recover(ctx context.Context, achievements []model.Achievement) (int, error)
}

type UnlockNotifier interface {
	OnAchievementUnlocked(achievement model.Achievement)
}

// ThresholdCounter infers the count from the highest unlocked threshold.
// It is lossy: 15 completions look the same as 10 until the next increment.
type ThresholdCounter struct{}

func (ThresholdCounter) Recover(_ context.Context, achievements []model.Achievement) (int, error) {
	count := 0
	for _, achievement := range achievements {
		if achievement.Unlocked && achievement.Threshold > count {
			count = achievement.Threshold
		}
	}
	return count, nil
}

type SessionCounter interface {
	CountSince(ctx context.Context, kind model.Phase, since time.Time) (int, error)
}

type KVStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
}

// SessionLogCounter counts focus rows in the session log written after the
// last reset mark, which AchievementStore.ResetAll records.
type SessionLogCounter struct {
	sessions SessionCounter
	kv       KVStore
}

func NewSessionLogCounter(sessions SessionCounter, kv KVStore) *SessionLogCounter {
	return &SessionLogCounter{sessions: sessions, kv: kv}
}

func (c *SessionLogCounter) Recover(ctx context.Context, _ []model.Achievement) (int, error) {
	var since time.Time
	if err := c.kv.Get(ctx, repository.ResetMarkKey, &since); err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return 0, err
	}
	return c.sessions.CountSince(ctx, model.PhaseFocus, since)
}

// AchievementEngine unlocks milestones against the running count of
// completed focus sessions.
type AchievementEngine struct {
	mu           sync.Mutex
	store        AchievementStore
	counter      CompletionCounter
	notifier     UnlockNotifier
	now          func() time.Time
	logger       zerolog.Logger
	achievements []model.Achievement
	completed    int
}

func NewAchievementEngine(store AchievementStore, counter CompletionCounter, notifier UnlockNotifier, logger zerolog.Logger) *AchievementEngine {
	if counter == nil {
		counter = ThresholdCounter{}
	}
	return &AchievementEngine{
		store:    store,
		counter:  counter,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Initialize seeds the milestone set on first run and recovers the completed
// count. Milestones the recovered count already satisfies are unlocked.
func (e *AchievementEngine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	achievements, err := e.store.LoadAll(ctx)
	if err != nil {
		return apperrors.Storage("load achievements", err)
	}
	if len(achievements) == 0 {
		achievements = model.SeedAchievements()
		if err := e.store.UpsertAll(ctx, achievements); err != nil {
			return apperrors.Storage("seed achievements", err)
		}
		e.logger.Info().Int("count", len(achievements)).Msg("achievements seeded")
	}
	e.achievements = achievements

	completed, err := e.counter.Recover(ctx, achievements)
	if err != nil {
		return apperrors.Storage("recover completed count", err)
	}
	e.completed = completed
	e.logger.Info().Int("completed", completed).Msg("completed count recovered")

	return e.evaluateLocked(ctx)
}

func (e *AchievementEngine) IncrementCompleted(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.completed++
	return e.evaluateLocked(ctx)
}

func (e *AchievementEngine) Evaluate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluateLocked(ctx)
}

// evaluateLocked walks milestones in ascending threshold order. A milestone is
// only marked unlocked in memory once the store accepted it.
func (e *AchievementEngine) evaluateLocked(ctx context.Context) error {
	var errs []error
	for i := range e.achievements {
		current := e.achievements[i]
		if current.Unlocked || e.completed < current.Threshold {
			continue
		}

		unlockedAt := e.now()
		current.Unlocked = true
		current.UnlockedAt = &unlockedAt
		if err := e.store.Upsert(ctx, current); err != nil {
			errs = append(errs, apperrors.Storage("unlock achievement", err))
			continue
		}
		e.achievements[i] = current

		e.logger.Info().
			Str("title", current.Title).
			Int("threshold", current.Threshold).
			Msg("achievement unlocked")
		if e.notifier != nil {
			e.notifier.OnAchievementUnlocked(current)
		}
	}
	return stderrors.Join(errs...)
}

// ResetAll locks every milestone and zeroes the count. On a storage failure
// nothing changes.
func (e *AchievementEngine) ResetAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	locked := make([]model.Achievement, len(e.achievements))
	for i, achievement := range e.achievements {
		achievement.Unlocked = false
		achievement.UnlockedAt = nil
		locked[i] = achievement
	}
	if err := e.store.ResetAll(ctx, locked, e.now()); err != nil {
		return apperrors.Storage("reset achievements", err)
	}
	e.achievements = locked
	e.completed = 0
	e.logger.Info().Msg("achievements reset")
	return nil
}

// List returns a copy of the milestones in ascending threshold order.
func (e *AchievementEngine) List() []model.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Achievement(nil), e.achievements...)
}

func (e *AchievementEngine) Completed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed
}
