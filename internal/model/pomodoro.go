package model

import "time"

type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

const (
	DefaultFocusDurationSeconds      = 25 * 60
	DefaultShortBreakDurationSeconds = 5 * 60
	DefaultLongBreakDurationSeconds  = 15 * 60

	DefaultCyclesPerLongBreak = 4
)

// ParsePhase accepts the persisted/wire names of a phase.
func ParsePhase(raw string) (Phase, bool) {
	switch Phase(raw) {
	case PhaseFocus, PhaseShortBreak, PhaseLongBreak:
		return Phase(raw), true
	}
	return "", false
}

// DefaultSeconds is the built-in duration used when no positive value is configured.
func (p Phase) DefaultSeconds() int {
	switch p {
	case PhaseShortBreak:
		return DefaultShortBreakDurationSeconds
	case PhaseLongBreak:
		return DefaultLongBreakDurationSeconds
	default:
		return DefaultFocusDurationSeconds
	}
}

func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

func (p Phase) String() string {
	return string(p)
}

// CompletedSession is written once, when a focus phase reaches zero by ticking.
type CompletedSession struct {
	ID        string    `json:"id"`
	Kind      Phase     `json:"kind"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

func (s CompletedSession) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

type Settings struct {
	FocusSeconds      int `json:"focusDurationSeconds"`
	ShortBreakSeconds int `json:"shortBreakDurationSeconds"`
	LongBreakSeconds  int `json:"longBreakDurationSeconds"`
}

func DefaultSettings() Settings {
	return Settings{
		FocusSeconds:      DefaultFocusDurationSeconds,
		ShortBreakSeconds: DefaultShortBreakDurationSeconds,
		LongBreakSeconds:  DefaultLongBreakDurationSeconds,
	}
}

// SecondsFor returns the configured duration of a phase, or 0 when unset.
func (s Settings) SecondsFor(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return s.ShortBreakSeconds
	case PhaseLongBreak:
		return s.LongBreakSeconds
	default:
		return s.FocusSeconds
	}
}
