package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/focus/internal/model"
)

// ResetMarkKey holds the time of the last achievement reset in the settings table.
const ResetMarkKey = "achievements.reset_at"

type AchievementRepository struct {
	db *sql.DB
}

func NewAchievementRepository(db *sql.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// LoadAll returns every achievement ordered by ascending threshold.
func (r *AchievementRepository) LoadAll(ctx context.Context) ([]model.Achievement, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, title, description, condition_key, threshold, unlocked, unlocked_at
		 FROM achievements
		 ORDER BY threshold ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	achievements := make([]model.Achievement, 0, 8)
	for rows.Next() {
		achievement, scanErr := scanAchievement(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		achievements = append(achievements, *achievement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return achievements, nil
}

func (r *AchievementRepository) Upsert(ctx context.Context, achievement model.Achievement) error {
	if err := upsertAchievement(ctx, r.db, achievement); err != nil {
		return err
	}
	return nil
}

// UpsertAll writes every achievement in one transaction; nothing is written on failure.
func (r *AchievementRepository) UpsertAll(ctx context.Context, achievements []model.Achievement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, achievement := range achievements {
		if err := upsertAchievement(ctx, tx, achievement); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit achievements: %w", err)
	}
	return nil
}

// ResetAll replaces the stored set with locked and records the reset time
// under ResetMarkKey in the same transaction.
func (r *AchievementRepository) ResetAll(ctx context.Context, locked []model.Achievement, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM achievements`); err != nil {
		return fmt.Errorf("delete achievements: %w", err)
	}
	for _, achievement := range locked {
		if err := upsertAchievement(ctx, tx, achievement); err != nil {
			return err
		}
	}
	if err := setKV(ctx, tx, ResetMarkKey, at.UTC()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit achievement reset: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertAchievement(ctx context.Context, exec execer, achievement model.Achievement) error {
	var unlockedAt interface{}
	if achievement.UnlockedAt != nil {
		unlockedAt = formatTime(*achievement.UnlockedAt)
	}

	_, err := exec.ExecContext(
		ctx,
		`INSERT INTO achievements (id, title, description, condition_key, threshold, unlocked, unlocked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     description = excluded.description,
		     condition_key = excluded.condition_key,
		     threshold = excluded.threshold,
		     unlocked = excluded.unlocked,
		     unlocked_at = excluded.unlocked_at`,
		achievement.ID,
		achievement.Title,
		achievement.Description,
		achievement.ConditionKey,
		achievement.Threshold,
		achievement.Unlocked,
		unlockedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert achievement %d: %w", achievement.ID, err)
	}
	return nil
}

func scanAchievement(s scanner) (*model.Achievement, error) {
	achievement := model.Achievement{}
	var unlockedAt sql.NullString
	err := s.Scan(
		&achievement.ID,
		&achievement.Title,
		&achievement.Description,
		&achievement.ConditionKey,
		&achievement.Threshold,
		&achievement.Unlocked,
		&unlockedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan achievement: %w", err)
	}

	if unlockedAt.Valid {
		parsed, parseErr := parseTime(unlockedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse achievement unlocked_at: %w", parseErr)
		}
		achievement.UnlockedAt = &parsed
	}
	return &achievement, nil
}
