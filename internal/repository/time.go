package repository

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// storedTimeLayout is fixed width so stored timestamps sort lexically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type scanner interface {
	Scan(dest ...interface{}) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t.UTC(), nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}
