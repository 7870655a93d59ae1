package service

import (
	"context"
	stderrors "errors"

	"github.com/rs/zerolog"

	apperrors "pomodoro/focus/internal/errors"
	"pomodoro/focus/internal/model"
)

type SessionAppender interface {
	Append(ctx context.Context, session model.CompletedSession) error
}

type CompletionCounterSink interface {
	IncrementCompleted(ctx context.Context) error
}

// CompletionRecorder persists naturally completed sessions and feeds focus
// completions to the achievement engine.
type CompletionRecorder struct {
	sessions SessionAppender
	counter  CompletionCounterSink
	logger   zerolog.Logger
}

func NewCompletionRecorder(sessions SessionAppender, counter CompletionCounterSink, logger zerolog.Logger) *CompletionRecorder {
	return &CompletionRecorder{sessions: sessions, counter: counter, logger: logger}
}

// Record appends the session to the log. A focus completion is counted even
// when the append fails; a gap in the log is preferred over a missed milestone.
func (r *CompletionRecorder) Record(ctx context.Context, session model.CompletedSession) error {
	var appendErr error
	if err := r.sessions.Append(ctx, session); err != nil {
		appendErr = apperrors.Storage("record session", err)
	} else {
		r.logger.Debug().
			Str("id", session.ID).
			Str("kind", session.Kind.String()).
			Dur("duration", session.Duration()).
			Msg("session recorded")
	}

	if session.Kind != model.PhaseFocus || r.counter == nil {
		return appendErr
	}
	return stderrors.Join(appendErr, r.counter.IncrementCompleted(ctx))
}
