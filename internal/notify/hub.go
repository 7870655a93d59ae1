package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomodoro/focus/internal/model"
)

type Kind string

const (
	KindPhaseExpired        Kind = "phase_expired"
	KindAchievementUnlocked Kind = "achievement_unlocked"
)

type Event struct {
	Kind        Kind               `json:"kind"`
	Message     string             `json:"message"`
	Phase       model.Phase        `json:"phase,omitempty"`
	Achievement *model.Achievement `json:"achievement,omitempty"`
	At          time.Time          `json:"at"`
}

// Hub receives timer and achievement notifications, logs them, rings the
// optional bell and fans them out to subscribers. Slow subscribers drop events.
type Hub struct {
	logger zerolog.Logger
	bell   io.Writer
	now    func() time.Time

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewHub builds a hub. A nil bell disables the audible signal.
func NewHub(logger zerolog.Logger, bell io.Writer) *Hub {
	return &Hub{
		logger: logger,
		bell:   bell,
		now:    func() time.Time { return time.Now().UTC() },
		subs:   make(map[int]chan Event),
	}
}

func (h *Hub) OnPhaseExpired(phase model.Phase) {
	message := "Focus session complete, time for a break"
	if phase.IsBreak() {
		message = "Break is over, ready to focus"
	}
	h.logger.Info().Str("phase", phase.String()).Msg(message)
	h.ring()
	h.publish(Event{Kind: KindPhaseExpired, Message: message, Phase: phase})
}

func (h *Hub) OnAchievementUnlocked(achievement model.Achievement) {
	message := fmt.Sprintf("Achievement unlocked: %s", achievement.Title)
	h.logger.Info().
		Int("id", achievement.ID).
		Int("threshold", achievement.Threshold).
		Msg(message)
	h.ring()
	h.publish(Event{Kind: KindAchievementUnlocked, Message: message, Achievement: &achievement})
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) publish(event Event) {
	event.At = h.now()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn().Str("kind", string(event.Kind)).Msg("subscriber full, event dropped")
		}
	}
}

func (h *Hub) ring() {
	if h.bell == nil {
		return
	}
	if _, err := io.WriteString(h.bell, "\a"); err != nil {
		h.logger.Debug().Err(err).Msg("bell write failed")
	}
}
