package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pomodoro/focus/internal/model"
	"pomodoro/focus/internal/notify"
	"pomodoro/focus/internal/service"
)

// EventSource is the notification stream merged into the SSE feed.
type EventSource interface {
	Subscribe(buffer int) (<-chan notify.Event, func())
}

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
	events          EventSource
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

func NewPomodoroHandler(pomodoroService *service.PomodoroService, events EventSource) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService, events: events}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.GetState()})
}

func (h *PomodoroHandler) Start(c *gin.Context) {
	state, apiErr := h.pomodoroService.Start()
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Pause()})
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Reset()})
}

func (h *PomodoroHandler) Skip(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.pomodoroService.Skip()})
}

func (h *PomodoroHandler) SwitchMode(c *gin.Context) {
	var req switchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, apiErr := h.pomodoroService.SwitchMode(req.Mode)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.pomodoroService.GetSettings()})
}

func (h *PomodoroHandler) UpdateSettings(c *gin.Context) {
	var req model.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state, apiErr := h.pomodoroService.UpdateSettings(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *PomodoroHandler) GetHistory(c *gin.Context) {
	limit := 50
	rawLimit := c.Query("limit")
	if rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.pomodoroService.GetHistory(c.Request.Context(), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Events streams state snapshots and notifications as server-sent events
// until the client goes away.
func (h *PomodoroHandler) Events(c *gin.Context) {
	snaps, cancelSnaps := h.pomodoroService.Subscribe(16)
	defer cancelSnaps()

	var notifications <-chan notify.Event
	if h.events != nil {
		ch, cancelEvents := h.events.Subscribe(16)
		defer cancelEvents()
		notifications = ch
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			c.SSEvent("state", h.pomodoroService.View(snap))
		case event, ok := <-notifications:
			if !ok {
				notifications = nil
				continue
			}
			c.SSEvent(string(event.Kind), event)
		}
		c.Writer.Flush()
	}
}
