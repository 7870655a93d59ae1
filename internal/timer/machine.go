package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
)

// SettingsProvider supplies phase durations in seconds.
type SettingsProvider interface {
	FocusSeconds() int
	ShortBreakSeconds() int
	LongBreakSeconds() int
}

// Recorder persists a naturally completed focus session and lets the
// achievement engine count it.
type Recorder interface {
	Record(ctx context.Context, session model.CompletedSession) error
}

// NotificationSink is fire-and-forget; it runs off the tick path.
type NotificationSink interface {
	OnPhaseExpired(phase model.Phase)
	OnAchievementUnlocked(achievement model.Achievement)
}

type Options struct {
	TickInterval       time.Duration
	CyclesPerLongBreak int
	Now                func() time.Time
	Logger             zerolog.Logger
	// Errors receives background failures. Sends never block; a full channel drops.
	Errors chan<- error
}

// Machine owns the single PhaseClock and the Focus/ShortBreak/LongBreak cycle.
type Machine struct {
	// cmdMu serializes user commands so Stop can wait for the clock goroutine
	// without holding mu, which tick callbacks need.
	cmdMu sync.Mutex
	mu    sync.Mutex

	clock    *PhaseClock
	settings SettingsProvider
	recorder Recorder
	notifier NotificationSink
	effects  *sideEffects

	cyclesPerLongBreak int
	now                func() time.Time
	logger             zerolog.Logger
	errs               chan<- error

	phase          model.Phase
	remaining      int
	running        bool
	cycles         int
	phaseStartedAt time.Time
	generation     uint64

	subscribers map[int]chan Snapshot
	nextSubID   int
	closed      bool
}

// NewMachine builds an idle machine parked on a full Focus phase. recorder
// and notifier may be nil.
func NewMachine(settings SettingsProvider, recorder Recorder, notifier NotificationSink, opts Options) *Machine {
	if opts.CyclesPerLongBreak <= 0 {
		opts.CyclesPerLongBreak = model.DefaultCyclesPerLongBreak
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	m := &Machine{
		clock:              NewPhaseClock(opts.TickInterval),
		settings:           settings,
		recorder:           recorder,
		notifier:           notifier,
		cyclesPerLongBreak: opts.CyclesPerLongBreak,
		now:                opts.Now,
		logger:             opts.Logger,
		errs:               opts.Errors,
		phase:              model.PhaseFocus,
		subscribers:        make(map[int]chan Snapshot),
	}
	m.effects = newSideEffects(m.reportError)
	m.remaining = m.durationLocked(model.PhaseFocus)
	return m
}

// Start attaches the clock, resuming leftover time if the phase was paused.
// Calling it while running is a no-op.
func (m *Machine) Start() error {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.InvalidState("timer is closed")
	}
	if m.running {
		m.mu.Unlock()
		return nil
	}
	if m.remaining <= 0 {
		m.remaining = m.durationLocked(m.phase)
	}
	if m.phaseStartedAt.IsZero() {
		m.phaseStartedAt = m.now()
	}
	m.generation++
	gen := m.generation
	seconds := m.remaining

	err := m.clock.Start(seconds,
		func(left int) { m.onTick(gen, left) },
		func() { m.onExpire(gen) },
	)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.running = true
	phase := m.phase
	m.publishLocked()
	m.mu.Unlock()

	m.logger.Debug().Str("phase", phase.String()).Int("seconds", seconds).Msg("timer started")
	return nil
}

// Pause stops the clock and keeps the remaining time for a later Start.
func (m *Machine) Pause() {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	if !m.finishIfExpiredLocked() {
		m.detachLocked()
		m.publishLocked()
	}
	m.mu.Unlock()

	m.clock.Stop()
}

// Reset stops the clock and refills the current phase.
func (m *Machine) Reset() {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	if m.finishIfExpiredLocked() {
		m.mu.Unlock()
		m.clock.Stop()
		return
	}
	m.detachLocked()
	m.remaining = m.durationLocked(m.phase)
	m.phaseStartedAt = time.Time{}
	m.publishLocked()
	m.mu.Unlock()

	m.clock.Stop()
}

// SkipToNext advances the cycle without completing the session: a skipped
// focus phase counts toward the long break but is never recorded.
func (m *Machine) SkipToNext() {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	from := m.phase
	if !m.finishIfExpiredLocked() {
		m.detachLocked()
		m.advanceLocked()
		m.publishLocked()
	}
	to := m.phase
	m.mu.Unlock()

	m.clock.Stop()
	m.logger.Debug().Str("from", from.String()).Str("to", to.String()).Msg("phase skipped")
}

// SelectPhase switches phase manually. It is refused while the clock runs.
func (m *Machine) SelectPhase(target model.Phase) error {
	if _, ok := model.ParsePhase(string(target)); !ok {
		return apperrors.InvalidState("unknown phase %q", target)
	}

	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return apperrors.InvalidState("pause the timer before switching phase")
	}
	m.phase = target
	m.remaining = m.durationLocked(target)
	m.phaseStartedAt = time.Time{}
	m.publishLocked()
	return nil
}

// ApplySettings refills the current phase from the settings provider when the
// phase has not been started yet. A started or paused phase keeps its time.
func (m *Machine) ApplySettings() {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || !m.phaseStartedAt.IsZero() {
		return
	}
	m.remaining = m.durationLocked(m.phase)
	m.publishLocked()
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers an observer. The current snapshot is delivered first.
// Slow observers miss intermediate snapshots rather than blocking the timer.
func (m *Machine) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	ch <- m.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops the clock, waits for pending side effects and closes observers.
func (m *Machine) Close() {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.detachLocked()
	m.closed = true
	m.mu.Unlock()

	m.clock.Stop()
	m.effects.close()

	m.mu.Lock()
	for id, ch := range m.subscribers {
		delete(m.subscribers, id)
		close(ch)
	}
	m.mu.Unlock()
}

func (m *Machine) onTick(gen uint64, left int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || !m.running {
		return
	}
	if left < 0 {
		left = 0
	}
	m.remaining = left
	m.publishLocked()
}

func (m *Machine) onExpire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || !m.running {
		return
	}
	m.expireLocked()
}

// finishIfExpiredLocked completes a running phase whose final tick already
// landed but whose expiry callback has not run yet. A command arriving in that
// window must not swallow the completion.
func (m *Machine) finishIfExpiredLocked() bool {
	if !m.running || m.remaining > 0 {
		return false
	}
	m.expireLocked()
	return true
}

func (m *Machine) expireLocked() {
	finished := m.phase
	if finished == model.PhaseFocus && m.recorder != nil {
		session := model.CompletedSession{
			ID:        uuid.NewString(),
			Kind:      model.PhaseFocus,
			StartTime: m.phaseStartedAt,
			EndTime:   m.now(),
		}
		m.effects.enqueue(func(ctx context.Context) error {
			return m.recorder.Record(ctx, session)
		})
	}
	if m.notifier != nil {
		m.effects.enqueue(func(context.Context) error {
			m.notifier.OnPhaseExpired(finished)
			return nil
		})
	}

	m.detachLocked()
	m.advanceLocked()
	m.publishLocked()

	m.logger.Info().
		Str("finished", finished.String()).
		Str("next", m.phase.String()).
		Int("cycles", m.cycles).
		Msg("phase expired")
}

// detachLocked marks the clock as no longer driving state. Callbacks from the
// previous generation are ignored from here on.
func (m *Machine) detachLocked() {
	m.running = false
	m.generation++
}

func (m *Machine) advanceLocked() {
	next := model.PhaseFocus
	if m.phase == model.PhaseFocus {
		m.cycles++
		if m.cycles >= m.cyclesPerLongBreak {
			next = model.PhaseLongBreak
			m.cycles = 0
		} else {
			next = model.PhaseShortBreak
		}
	}
	m.phase = next
	m.remaining = m.durationLocked(next)
	m.phaseStartedAt = time.Time{}
}

func (m *Machine) durationLocked(phase model.Phase) int {
	var seconds int
	if m.settings != nil {
		switch phase {
		case model.PhaseShortBreak:
			seconds = m.settings.ShortBreakSeconds()
		case model.PhaseLongBreak:
			seconds = m.settings.LongBreakSeconds()
		default:
			seconds = m.settings.FocusSeconds()
		}
	}
	if seconds > 0 {
		return seconds
	}

	fallback := phase.DefaultSeconds()
	m.reportError(apperrors.Configuration("%s duration %d is not positive, using %ds", phase, seconds, fallback))
	return fallback
}

func (m *Machine) publishLocked() {
	snap := m.snapshotLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full buffer: drop the oldest snapshot so the observer ends on the latest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:                m.phase,
		RemainingSeconds:     m.remaining,
		Running:              m.running,
		FocusCyclesCompleted: m.cycles,
		CyclesPerLongBreak:   m.cyclesPerLongBreak,
		Progress:             fmt.Sprintf("%d/%d", m.cycles, m.cyclesPerLongBreak),
		At:                   m.now(),
	}
}

func (m *Machine) reportError(err error) {
	if err == nil {
		return
	}
	m.logger.Error().Err(err).Msg("timer side effect failed")
	if m.errs == nil {
		return
	}
	select {
	case m.errs <- err:
	default:
	}
}
