package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/focus/internal/db"
	"pomodoro/focus/internal/model"
	"pomodoro/focus/internal/repository"
)

func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")

	var out bytes.Buffer
	flags := &Flags{Out: &out}
	root, cleanup := NewRoot(flags, "test")
	defer cleanup()

	argv := append([]string{
		"pomodoro",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--db", dbPath,
		"--log-level", "error",
	}, args...)
	err := root.Run(context.Background(), argv)
	return out.String(), err
}

func TestMigrate_ReportsAppliedThenUpToDate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "focus.db")

	out, err := runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 0001_init.sql")

	out, err = runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "database is up to date")
}

func TestHistory_ListsSessions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "focus.db")

	out, err := runCLI(t, dbPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "no completed sessions yet")

	database, err := db.Open(context.Background(), dbPath)
	require.NoError(t, err)
	end := time.Date(2026, 3, 1, 9, 25, 0, 0, time.UTC)
	require.NoError(t, repository.NewSessionRepository(database).Append(context.Background(), model.CompletedSession{
		ID:        "session-1",
		Kind:      model.PhaseFocus,
		StartTime: end.Add(-25 * time.Minute),
		EndTime:   end,
	}))
	require.NoError(t, database.Close())

	out, err = runCLI(t, dbPath, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "session-1")
	assert.Contains(t, out, "25m0s")
}

func TestHistory_AllListsOldestFirst(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "focus.db")

	database, err := db.Open(ctx, dbPath)
	require.NoError(t, err)
	repo := repository.NewSessionRepository(database)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"oldest", "middle", "newest"} {
		end := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Append(ctx, model.CompletedSession{
			ID: id, Kind: model.PhaseFocus, StartTime: end.Add(-25 * time.Minute), EndTime: end,
		}))
	}
	require.NoError(t, database.Close())

	out, err := runCLI(t, dbPath, "history", "--all")
	require.NoError(t, err)
	oldest := strings.Index(out, "oldest")
	newest := strings.Index(out, "newest")
	require.NotEqual(t, -1, oldest)
	require.NotEqual(t, -1, newest)
	assert.Less(t, oldest, strings.Index(out, "middle"))
	assert.Less(t, strings.Index(out, "middle"), newest)

	out, err = runCLI(t, dbPath, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "newest")
	assert.NotContains(t, out, "oldest")
}

func TestAchievements_ListAndReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "focus.db")

	out, err := runCLI(t, dbPath, "achievements", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "completed: 0")
	assert.Contains(t, out, "First Pomodoro")
	assert.Contains(t, out, "Unstoppable")

	_, err = runCLI(t, dbPath, "achievements", "reset")
	require.Error(t, err)

	out, err = runCLI(t, dbPath, "achievements", "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "locked")
}
