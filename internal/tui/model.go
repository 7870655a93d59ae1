package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"pomodoro/focus/internal/model"
	"pomodoro/focus/internal/notify"
	"pomodoro/focus/internal/timer"
)

// Controller is the subset of the timer the terminal UI drives.
type Controller interface {
	Start() error
	Pause()
	Reset()
	SkipToNext()
	SelectPhase(phase model.Phase) error
	Snapshot() timer.Snapshot
}

type snapshotMsg timer.Snapshot

type eventMsg notify.Event

type streamClosedMsg struct{}

// Model renders the timer and forwards key presses to the Controller.
type Model struct {
	ctrl   Controller
	snaps  <-chan timer.Snapshot
	events <-chan notify.Event

	snap  timer.Snapshot
	flash string
	err   error
	width int
}

// New builds the model. events may be nil.
func New(ctrl Controller, snaps <-chan timer.Snapshot, events <-chan notify.Event) Model {
	return Model{
		ctrl:   ctrl,
		snaps:  snaps,
		events: events,
		snap:   ctrl.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.snaps), waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case snapshotMsg:
		m.snap = timer.Snapshot(msg)
		return m, waitForSnapshot(m.snaps)
	case eventMsg:
		m.flash = msg.Message
		return m, waitForEvent(m.events)
	case streamClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "s":
		m.err = m.ctrl.Start()
	case "p":
		m.ctrl.Pause()
	case " ":
		if m.ctrl.Snapshot().Running {
			m.ctrl.Pause()
		} else {
			m.err = m.ctrl.Start()
		}
	case "r":
		m.ctrl.Reset()
	case "n":
		m.ctrl.SkipToNext()
	case "1":
		m.err = m.ctrl.SelectPhase(model.PhaseFocus)
	case "2":
		m.err = m.ctrl.SelectPhase(model.PhaseShortBreak)
	case "3":
		m.err = m.ctrl.SelectPhase(model.PhaseLongBreak)
	default:
		return m, nil
	}
	m.snap = m.ctrl.Snapshot()
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pomodoro"))
	b.WriteString("\n\n")

	phaseStyle := focusStyle
	if m.snap.Phase.IsBreak() {
		phaseStyle = breakStyle
	}
	status := "paused"
	if m.snap.Running {
		status = "running"
	}
	b.WriteString(phaseStyle.Render(phaseLabel(m.snap.Phase)))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s  cycle %s", status, m.snap.Progress)))
	b.WriteString("\n")
	b.WriteString(clockStyle.Render(m.snap.Clock()))
	b.WriteString("\n")

	if m.flash != "" {
		b.WriteString(flashStyle.Render(m.flash))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("s start  p pause  space toggle  r reset  n skip  1/2/3 phase  q quit"))
	b.WriteString("\n")
	return b.String()
}

func phaseLabel(phase model.Phase) string {
	switch phase {
	case model.PhaseShortBreak:
		return "Short Break"
	case model.PhaseLongBreak:
		return "Long Break"
	default:
		return "Focus"
	}
}

func waitForSnapshot(ch <-chan timer.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func waitForEvent(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(event)
	}
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controller, snaps <-chan timer.Snapshot, events <-chan notify.Event) error {
	program := tea.NewProgram(New(ctrl, snaps, events), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
