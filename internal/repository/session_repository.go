package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomodoro/focus/internal/model"
)

// SessionRepository is the append-only log of completed sessions.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Append(ctx context.Context, session model.CompletedSession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO completed_sessions (id, kind, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		string(session.Kind),
		formatTime(session.StartTime),
		formatTime(session.EndTime),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListAll returns every session, oldest first.
func (r *SessionRepository) ListAll(ctx context.Context) ([]model.CompletedSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, kind, start_time, end_time
		 FROM completed_sessions
		 ORDER BY end_time ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collectSessions(rows, 0)
}

// ListRecent returns at most limit sessions, newest first.
func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]model.CompletedSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, kind, start_time, end_time
		 FROM completed_sessions
		 ORDER BY end_time DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return collectSessions(rows, limit)
}

// CountSince counts sessions of kind that ended strictly after since.
// A zero since counts the whole log.
func (r *SessionRepository) CountSince(ctx context.Context, kind model.Phase, since time.Time) (int, error) {
	var count int
	var err error
	if since.IsZero() {
		err = r.db.QueryRowContext(
			ctx,
			`SELECT COUNT(1) FROM completed_sessions WHERE kind = ?`,
			string(kind),
		).Scan(&count)
	} else {
		err = r.db.QueryRowContext(
			ctx,
			`SELECT COUNT(1) FROM completed_sessions WHERE kind = ? AND end_time > ?`,
			string(kind),
			formatTime(since),
		).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func collectSessions(rows *sql.Rows, capacity int) ([]model.CompletedSession, error) {
	defer rows.Close()

	sessions := make([]model.CompletedSession, 0, capacity)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*model.CompletedSession, error) {
	session := model.CompletedSession{}
	var kind string
	var startTime string
	var endTime string
	if err := s.Scan(&session.ID, &kind, &startTime, &endTime); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Kind = model.Phase(kind)

	parsedStart, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStart

	parsedEnd, err := parseTime(endTime)
	if err != nil {
		return nil, fmt.Errorf("parse session end_time: %w", err)
	}
	session.EndTime = parsedEnd

	return &session, nil
}
