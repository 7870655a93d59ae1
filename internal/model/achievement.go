package model

import (
	"fmt"
	"time"
)

type Achievement struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ConditionKey string     `json:"conditionKey"`
	Threshold    int        `json:"threshold"`
	Unlocked     bool       `json:"unlocked"`
	UnlockedAt   *time.Time `json:"unlockedAt,omitempty"`
}

// SeedAchievements returns the fixed milestone set, all locked, in ascending threshold order.
func SeedAchievements() []Achievement {
	seeds := []struct {
		title     string
		threshold int
	}{
		{"First Pomodoro", 1},
		{"Productive", 10},
		{"Focus Master", 50},
		{"Centurion", 100},
		{"Unstoppable", 250},
	}

	achievements := make([]Achievement, 0, len(seeds))
	for i, seed := range seeds {
		achievements = append(achievements, Achievement{
			ID:           i + 1,
			Title:        seed.title,
			Description:  describeThreshold(seed.threshold),
			ConditionKey: conditionKey(seed.threshold),
			Threshold:    seed.threshold,
		})
	}
	return achievements
}

func describeThreshold(threshold int) string {
	if threshold == 1 {
		return "Complete your first pomodoro"
	}
	return fmt.Sprintf("Complete %d pomodoros", threshold)
}

func conditionKey(threshold int) string {
	if threshold == 1 {
		return "COMPLETE_1_POMODORO"
	}
	return fmt.Sprintf("COMPLETE_%d_POMODOROS", threshold)
}
