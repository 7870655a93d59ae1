package timer

import (
	"sync"
	"time"

	apperrors "pomodoro/focus/internal/errors"
)

// PhaseClock counts down whole seconds on its own goroutine.
//
// Callbacks run on the clock goroutine. Stop waits for that goroutine to
// exit, so it must never be called from inside onTick or onExpire.
type PhaseClock struct {
	interval time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPhaseClock creates a clock ticking every interval; non-positive means one second.
func NewPhaseClock(interval time.Duration) *PhaseClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &PhaseClock{interval: interval}
}

// Start begins a countdown from initialSeconds. It fails with ErrInvalidState
// if a countdown is already live.
func (c *PhaseClock) Start(initialSeconds int, onTick func(secondsLeft int), onExpire func()) error {
	if initialSeconds <= 0 {
		return apperrors.InvalidState("clock needs a positive duration, got %d", initialSeconds)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopCh != nil {
		return apperrors.InvalidState("clock already running")
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	c.stopCh = stop
	c.doneCh = done

	go c.run(initialSeconds, stop, done, onTick, onExpire)
	return nil
}

// Stop cancels the countdown. It is idempotent and returns only once no
// further callback can fire.
func (c *PhaseClock) Stop() {
	c.mu.Lock()
	stop, done := c.stopCh, c.doneCh
	c.stopCh = nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if done != nil {
		<-done
	}
}

func (c *PhaseClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopCh != nil
}

func (c *PhaseClock) run(remaining int, stop, done chan struct{}, onTick func(int), onExpire func()) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		// both channels may be ready at once; stop wins
		select {
		case <-stop:
			return
		default:
		}

		remaining--
		if onTick != nil {
			onTick(remaining)
		}
		if remaining > 0 {
			continue
		}

		c.mu.Lock()
		if c.stopCh == stop {
			c.stopCh = nil
		}
		c.mu.Unlock()

		if onExpire != nil {
			onExpire()
		}
		return
	}
}
