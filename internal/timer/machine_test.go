package timer

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
)

type fakeSettings struct {
	focus, short, long int
}

func (s fakeSettings) FocusSeconds() int      { return s.focus }
func (s fakeSettings) ShortBreakSeconds() int { return s.short }
func (s fakeSettings) LongBreakSeconds() int  { return s.long }

type fakeRecorder struct {
	mu       sync.Mutex
	sessions []model.CompletedSession
}

func (r *fakeRecorder) Record(_ context.Context, session model.CompletedSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeRecorder) recorded() []model.CompletedSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.CompletedSession(nil), r.sessions...)
}

type fakeNotifier struct {
	mu      sync.Mutex
	expired []model.Phase
}

func (n *fakeNotifier) OnPhaseExpired(phase model.Phase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, phase)
}

func (n *fakeNotifier) OnAchievementUnlocked(model.Achievement) {}

func (n *fakeNotifier) expiredPhases() []model.Phase {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Phase(nil), n.expired...)
}

type harness struct {
	machine  *Machine
	recorder *fakeRecorder
	notifier *fakeNotifier
	errs     chan error
}

func newHarness(t *testing.T, settings SettingsProvider) *harness {
	t.Helper()
	h := &harness{
		recorder: &fakeRecorder{},
		notifier: &fakeNotifier{},
		errs:     make(chan error, 16),
	}
	h.machine = NewMachine(settings, h.recorder, h.notifier, Options{
		TickInterval: 2 * time.Millisecond,
		Logger:       zerolog.Nop(),
		Errors:       h.errs,
	})
	t.Cleanup(h.machine.Close)
	return h
}

// runToExpiry starts the current phase and waits until it expires naturally.
func (h *harness) runToExpiry(t *testing.T) Snapshot {
	t.Helper()
	from := h.machine.Snapshot().Phase
	require.NoError(t, h.machine.Start())
	require.Eventually(t, func() bool {
		snap := h.machine.Snapshot()
		return snap.Phase != from && !snap.Running
	}, 2*time.Second, time.Millisecond)
	return h.machine.Snapshot()
}

func TestMachine_InitialState(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 30, short: 5, long: 15})

	snap := h.machine.Snapshot()
	assert.Equal(t, model.PhaseFocus, snap.Phase)
	assert.Equal(t, 30, snap.RemainingSeconds)
	assert.False(t, snap.Running)
	assert.Equal(t, 0, snap.FocusCyclesCompleted)
	assert.Equal(t, "0/4", snap.Progress)
}

func TestMachine_FourNaturalFocusPhasesReachLongBreak(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 1, short: 1, long: 1})

	for i := 1; i <= 4; i++ {
		snap := h.runToExpiry(t)
		if i < 4 {
			assert.Equal(t, model.PhaseShortBreak, snap.Phase)
			assert.Equal(t, i, snap.FocusCyclesCompleted)

			snap = h.runToExpiry(t)
			assert.Equal(t, model.PhaseFocus, snap.Phase)
			continue
		}
		assert.Equal(t, model.PhaseLongBreak, snap.Phase)
		assert.Equal(t, 0, snap.FocusCyclesCompleted)
		assert.False(t, snap.Running)
	}

	require.Eventually(t, func() bool { return len(h.recorder.recorded()) == 4 }, time.Second, time.Millisecond)
	for _, session := range h.recorder.recorded() {
		assert.Equal(t, model.PhaseFocus, session.Kind)
		assert.NotEmpty(t, session.ID)
		assert.False(t, session.StartTime.IsZero())
		assert.False(t, session.EndTime.Before(session.StartTime))
	}

	h.machine.Close()
	assert.Len(t, h.notifier.expiredPhases(), 7)
}

func TestMachine_NeverAutoRestarts(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 1, short: 50, long: 50})

	snap := h.runToExpiry(t)
	require.Equal(t, model.PhaseShortBreak, snap.Phase)

	time.Sleep(20 * time.Millisecond)
	snap = h.machine.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 50, snap.RemainingSeconds)
}

func TestMachine_SkipCountsCycleWithoutRecording(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 100, short: 5, long: 15})

	require.NoError(t, h.machine.Start())
	h.machine.SkipToNext()

	snap := h.machine.Snapshot()
	assert.Equal(t, model.PhaseShortBreak, snap.Phase)
	assert.Equal(t, 1, snap.FocusCyclesCompleted)
	assert.Equal(t, 5, snap.RemainingSeconds)
	assert.False(t, snap.Running)

	h.machine.Close()
	assert.Empty(t, h.recorder.recorded())
	assert.Empty(t, h.notifier.expiredPhases())
}

func TestMachine_SkippingFourFocusPhasesReachesLongBreak(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 100, short: 5, long: 15})

	for i := 0; i < 3; i++ {
		h.machine.SkipToNext()
		require.Equal(t, model.PhaseShortBreak, h.machine.Snapshot().Phase)
		h.machine.SkipToNext()
		require.Equal(t, model.PhaseFocus, h.machine.Snapshot().Phase)
	}
	h.machine.SkipToNext()

	snap := h.machine.Snapshot()
	assert.Equal(t, model.PhaseLongBreak, snap.Phase)
	assert.Equal(t, 0, snap.FocusCyclesCompleted)
	assert.Equal(t, 15, snap.RemainingSeconds)

	h.machine.SkipToNext()
	assert.Equal(t, model.PhaseFocus, h.machine.Snapshot().Phase)
}

func TestMachine_PauseKeepsRemainingAndResumes(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 500, short: 5, long: 15})

	require.NoError(t, h.machine.Start())
	require.Eventually(t, func() bool { return h.machine.Snapshot().RemainingSeconds <= 497 }, 2*time.Second, time.Millisecond)

	h.machine.Pause()
	paused := h.machine.Snapshot()
	assert.False(t, paused.Running)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, paused.RemainingSeconds, h.machine.Snapshot().RemainingSeconds)

	require.NoError(t, h.machine.Start())
	assert.True(t, h.machine.Snapshot().Running)
	require.Eventually(t, func() bool {
		return h.machine.Snapshot().RemainingSeconds < paused.RemainingSeconds
	}, 2*time.Second, time.Millisecond)
}

func TestMachine_StartWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 500, short: 5, long: 15})

	require.NoError(t, h.machine.Start())
	assert.NoError(t, h.machine.Start())
	assert.True(t, h.machine.Snapshot().Running)
}

func TestMachine_ResetRestoresPhaseDefault(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 500, short: 5, long: 15})

	require.NoError(t, h.machine.Start())
	require.Eventually(t, func() bool { return h.machine.Snapshot().RemainingSeconds < 500 }, 2*time.Second, time.Millisecond)

	h.machine.Reset()
	snap := h.machine.Snapshot()
	assert.Equal(t, model.PhaseFocus, snap.Phase)
	assert.Equal(t, 500, snap.RemainingSeconds)
	assert.False(t, snap.Running)
}

func TestMachine_SelectPhase(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 500, short: 5, long: 15})
	h.machine.SkipToNext()
	h.machine.SkipToNext()
	require.Equal(t, 1, h.machine.Snapshot().FocusCyclesCompleted)

	require.NoError(t, h.machine.Start())
	err := h.machine.SelectPhase(model.PhaseLongBreak)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, model.PhaseFocus, h.machine.Snapshot().Phase)

	h.machine.Pause()
	require.NoError(t, h.machine.SelectPhase(model.PhaseLongBreak))
	snap := h.machine.Snapshot()
	assert.Equal(t, model.PhaseLongBreak, snap.Phase)
	assert.Equal(t, 15, snap.RemainingSeconds)
	assert.Equal(t, 1, snap.FocusCyclesCompleted)

	assert.ErrorIs(t, h.machine.SelectPhase("nap"), apperrors.ErrInvalidState)
}

type mutableSettings struct {
	mu    sync.Mutex
	focus int
}

func (s *mutableSettings) FocusSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}
func (s *mutableSettings) ShortBreakSeconds() int { return 5 }
func (s *mutableSettings) LongBreakSeconds() int  { return 15 }

func (s *mutableSettings) setFocus(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = seconds
}

func TestMachine_ApplySettingsOnlyRefillsUnstartedPhase(t *testing.T) {
	settings := &mutableSettings{focus: 500}
	h := newHarness(t, settings)

	settings.setFocus(300)
	h.machine.ApplySettings()
	assert.Equal(t, 300, h.machine.Snapshot().RemainingSeconds)

	require.NoError(t, h.machine.Start())
	require.Eventually(t, func() bool { return h.machine.Snapshot().RemainingSeconds < 300 }, 2*time.Second, time.Millisecond)
	h.machine.Pause()
	paused := h.machine.Snapshot().RemainingSeconds

	settings.setFocus(100)
	h.machine.ApplySettings()
	assert.Equal(t, paused, h.machine.Snapshot().RemainingSeconds)

	h.machine.Reset()
	assert.Equal(t, 100, h.machine.Snapshot().RemainingSeconds)
}

func TestMachine_NonPositiveDurationFallsBack(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 0, short: -1, long: 15})

	assert.Equal(t, model.DefaultFocusDurationSeconds, h.machine.Snapshot().RemainingSeconds)
	select {
	case err := <-h.errs:
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	default:
		t.Fatal("expected a configuration error")
	}
}

func TestMachine_SubscribeDeliversSnapshots(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 3, short: 5, long: 15})

	snaps, cancel := h.machine.Subscribe(64)
	first := <-snaps
	assert.Equal(t, model.PhaseFocus, first.Phase)
	assert.False(t, first.Running)

	require.NoError(t, h.machine.Start())

	var sawRunning, sawBreak bool
	deadline := time.After(2 * time.Second)
	for !sawBreak {
		select {
		case snap := <-snaps:
			sawRunning = sawRunning || snap.Running
			sawBreak = snap.Phase == model.PhaseShortBreak
		case <-deadline:
			t.Fatal("no break snapshot observed")
		}
	}
	assert.True(t, sawRunning)

	cancel()
	for range snaps {
	}
	cancel()
}

func TestMachine_CommandSequencesKeepInvariants(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 2, short: 1, long: 2})
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		switch rng.Intn(4) {
		case 0:
			require.NoError(t, h.machine.Start())
		case 1:
			h.machine.Pause()
			assert.False(t, h.machine.Snapshot().Running)
		case 2:
			h.machine.Reset()
			assert.False(t, h.machine.Snapshot().Running)
		case 3:
			h.machine.SkipToNext()
			assert.False(t, h.machine.Snapshot().Running)
		}

		snap := h.machine.Snapshot()
		assert.GreaterOrEqual(t, snap.RemainingSeconds, 0)
		assert.GreaterOrEqual(t, snap.FocusCyclesCompleted, 0)
		assert.Less(t, snap.FocusCyclesCompleted, snap.CyclesPerLongBreak)
		if rng.Intn(3) == 0 {
			time.Sleep(time.Duration(rng.Intn(4)) * time.Millisecond)
		}
	}
}

func TestMachine_StartAfterCloseFails(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 3, short: 5, long: 15})
	h.machine.Close()

	assert.ErrorIs(t, h.machine.Start(), apperrors.ErrInvalidState)
	snaps, _ := h.machine.Subscribe(1)
	_, open := <-snaps
	assert.False(t, open)
}

// newIdleClockHarness builds a machine whose clock never ticks on its own, so
// tests can deliver the final tick by hand.
func newIdleClockHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		recorder: &fakeRecorder{},
		notifier: &fakeNotifier{},
		errs:     make(chan error, 16),
	}
	h.machine = NewMachine(fakeSettings{focus: 30, short: 5, long: 15}, h.recorder, h.notifier, Options{
		TickInterval: time.Hour,
		Logger:       zerolog.Nop(),
		Errors:       h.errs,
	})
	t.Cleanup(h.machine.Close)
	return h
}

// landFinalTick delivers the zero tick of the running phase without its expiry callback.
func (h *harness) landFinalTick(t *testing.T) {
	t.Helper()
	h.machine.mu.Lock()
	gen := h.machine.generation
	h.machine.mu.Unlock()
	h.machine.onTick(gen, 0)
	require.Equal(t, 0, h.machine.Snapshot().RemainingSeconds)
}

func TestMachine_CommandAfterFinalTickCompletesFocus(t *testing.T) {
	commands := map[string]func(m *Machine){
		"pause": (*Machine).Pause,
		"reset": (*Machine).Reset,
		"skip":  (*Machine).SkipToNext,
	}
	for name, command := range commands {
		t.Run(name, func(t *testing.T) {
			h := newIdleClockHarness(t)
			require.NoError(t, h.machine.Start())
			h.landFinalTick(t)

			command(h.machine)

			snap := h.machine.Snapshot()
			assert.Equal(t, model.PhaseShortBreak, snap.Phase)
			assert.Equal(t, 5, snap.RemainingSeconds)
			assert.Equal(t, 1, snap.FocusCyclesCompleted)
			assert.False(t, snap.Running)
			require.Eventually(t, func() bool {
				return len(h.recorder.recorded()) == 1 && len(h.notifier.expiredPhases()) == 1
			}, time.Second, time.Millisecond)
			assert.Equal(t, model.PhaseFocus, h.recorder.recorded()[0].Kind)
		})
	}
}

func TestMachine_PauseBeforeFinalTickKeepsTime(t *testing.T) {
	h := newIdleClockHarness(t)
	require.NoError(t, h.machine.Start())

	h.machine.Pause()

	snap := h.machine.Snapshot()
	assert.Equal(t, model.PhaseFocus, snap.Phase)
	assert.Equal(t, 30, snap.RemainingSeconds)
	h.machine.Close()
	assert.Empty(t, h.recorder.recorded())
}

func TestMachine_SlowSubscriberEndsOnLatestSnapshot(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 30, short: 5, long: 15})

	snaps, cancel := h.machine.Subscribe(1)
	defer cancel()
	<-snaps

	require.NoError(t, h.machine.SelectPhase(model.PhaseShortBreak))
	require.NoError(t, h.machine.SelectPhase(model.PhaseLongBreak))
	require.NoError(t, h.machine.SelectPhase(model.PhaseFocus))

	latest := <-snaps
	assert.Equal(t, model.PhaseFocus, latest.Phase)
	assert.Equal(t, 30, latest.RemainingSeconds)
	select {
	case extra := <-snaps:
		t.Fatalf("unexpected queued snapshot %+v", extra)
	default:
	}
}

// Run with -race: Start must not read machine state after releasing the lock
// while expiries advance the phase on the clock goroutine.
func TestMachine_StartConcurrentWithExpiry(t *testing.T) {
	h := newHarness(t, fakeSettings{focus: 1, short: 1, long: 1})

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, h.machine.Start())
	}
	h.machine.Pause()
	assert.False(t, h.machine.Snapshot().Running)
}
