package timer

import (
	"fmt"
	"time"

	"pomodoro/focus/internal/model"
)

// Snapshot is an immutable view of the machine handed to observers.
type Snapshot struct {
	Phase                model.Phase `json:"phase"`
	RemainingSeconds     int         `json:"remainingSeconds"`
	Running              bool        `json:"running"`
	FocusCyclesCompleted int         `json:"focusCyclesCompleted"`
	CyclesPerLongBreak   int         `json:"cyclesPerLongBreak"`
	Progress             string      `json:"progress"`
	At                   time.Time   `json:"at"`
}

// Clock renders the remaining time as mm:ss.
func (s Snapshot) Clock() string {
	seconds := s.RemainingSeconds
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
