package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/focus/internal/config"
	"pomodoro/focus/internal/model"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Load()
	cfg.DBPath = filepath.Join(t.TempDir(), "focus.db")
	cfg.FocusMinutes = 30
	return cfg
}

func TestNew_WiresTimerAndAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, zerolog.Nop(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	snap := a.Machine.Snapshot()
	assert.Equal(t, model.PhaseFocus, snap.Phase)
	assert.Equal(t, 30*60, snap.RemainingSeconds)
	assert.Len(t, a.Achievements.List(), 5)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	a.Handler().ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestNew_PersistedSettingsWinOverConfig(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := New(ctx, cfg, zerolog.Nop(), Options{})
	require.NoError(t, err)
	_, apiErr := first.Settings.Update(ctx, model.Settings{FocusSeconds: 600, ShortBreakSeconds: 120, LongBreakSeconds: 900})
	require.Nil(t, apiErr)
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg, zerolog.Nop(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	assert.Equal(t, 600, second.Machine.Snapshot().RemainingSeconds)
}

func TestNew_BellFollowsConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bell = false

	var bell bytes.Buffer
	a, err := New(context.Background(), cfg, zerolog.Nop(), Options{Bell: &bell})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Hub.OnPhaseExpired(model.PhaseFocus)
	assert.Zero(t, bell.Len())
}
