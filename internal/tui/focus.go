package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/daybook/internal/store"
)

type focusPhase int

const (
	focusIdle focusPhase = iota
	focusWork
	focusBreak
)

type focusModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	workLength  time.Duration
	breakLength time.Duration

	phase     focusPhase
	timer     countdown
	startedAt time.Time
	taskID    string
	taskTitle string

	// Task picker state
	picking      bool
	pickerCursor int
	tasks        []store.Task // open tasks of today

	todayMinutes int
	weekMinutes  int
	todayCount   int
}

func newFocusModel(s *store.Store, workMinutes, breakMinutes int) focusModel {
	return focusModel{
		store:       s,
		now:         time.Now,
		timer:       newCountdown(time.Now),
		workLength:  time.Duration(workMinutes) * time.Minute,
		breakLength: time.Duration(breakMinutes) * time.Minute,
	}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

// setClock swaps the clock of the model and its countdown.
func (f *focusModel) setClock(now func() time.Time) {
	f.now = now
	f.timer.now = now
}

func (f focusModel) active() bool { return f.phase != focusIdle }

type focusDataMsg struct {
	tasks        []store.Task
	todayMinutes int
	weekMinutes  int
	todayCount   int
}

func (f focusModel) refresh() tea.Cmd {
	return func() tea.Msg {
		today := f.now().Format(store.DateLayout)
		msg := focusDataMsg{weekMinutes: f.store.FocusMinutes(7)}
		for _, t := range f.store.TasksForDate(today) {
			if !t.IsCompleted {
				msg.tasks = append(msg.tasks, t)
			}
		}
		for _, s := range f.store.FocusSessionsForDate(today) {
			if s.IsCompleted {
				msg.todayMinutes += s.DurationMinutes
				msg.todayCount++
			}
		}
		return msg
	}
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case focusDataMsg:
		f.tasks = msg.tasks
		f.todayMinutes = msg.todayMinutes
		f.weekMinutes = msg.weekMinutes
		f.todayCount = msg.todayCount
		return f, nil

	case tickMsg:
		if f.timer.finished() {
			return f.advancePhase()
		}
		return f, nil

	case tea.KeyMsg:
		if f.picking {
			return f.updatePicker(msg)
		}
		switch {
		case key.Matches(msg, keys.Start):
			if f.phase == focusIdle {
				if len(f.tasks) == 0 {
					return f.startWork("", "")
				}
				f.picking = true
				f.pickerCursor = 0
			}
		case key.Matches(msg, keys.Pause):
			f.timer.toggle()
		case key.Matches(msg, keys.Stop):
			switch f.phase {
			case focusWork:
				return f.cancelWork()
			case focusBreak:
				f.phase = focusIdle
				f.timer.stop()
				return f, func() tea.Msg { return statusMsg{text: "Break skipped"} }
			}
		}
	}
	return f, nil
}

// updatePicker chooses the task to link. Row zero is "no task".
func (f focusModel) updatePicker(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if f.pickerCursor > 0 {
			f.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if f.pickerCursor < len(f.tasks) {
			f.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		f.picking = false
		if f.pickerCursor == 0 {
			return f.startWork("", "")
		}
		t := f.tasks[f.pickerCursor-1]
		return f.startWork(t.ID, t.Title)
	case key.Matches(msg, keys.Back):
		f.picking = false
	}
	return f, nil
}

func (f focusModel) startWork(taskID, title string) (focusModel, tea.Cmd) {
	f.phase = focusWork
	f.taskID = taskID
	f.taskTitle = title
	f.startedAt = f.now()
	f.timer.start(f.workLength)
	return f, func() tea.Msg { return statusMsg{text: "Focus started"} }
}

func (f focusModel) record(minutes int, completed bool) error {
	ended := f.now()
	session := store.FocusSession{
		StartedAt:       f.startedAt,
		EndedAt:         &ended,
		DurationMinutes: minutes,
		IsCompleted:     completed,
	}
	if f.taskID != "" {
		id := f.taskID
		session.TaskID = &id
	}
	_, err := f.store.AddFocusSession(session)
	return err
}

func (f focusModel) advancePhase() (focusModel, tea.Cmd) {
	switch f.phase {
	case focusWork:
		if err := f.record(int(f.workLength.Minutes()), true); err != nil {
			f.phase = focusIdle
			f.timer.stop()
			return f, func() tea.Msg { return errStatus(err) }
		}
		f.phase = focusBreak
		f.timer.start(f.breakLength)
		return f, tea.Batch(f.refresh(), func() tea.Msg {
			return statusMsg{text: "Session recorded. Break time! \a"}
		})
	case focusBreak:
		f.phase = focusIdle
		f.timer.stop()
		return f, func() tea.Msg { return statusMsg{text: "Break over \a"} }
	}
	return f, nil
}

// cancelWork records the interrupted session when at least a minute was spent.
func (f focusModel) cancelWork() (focusModel, tea.Cmd) {
	minutes := int(f.timer.elapsed().Minutes())
	f.phase = focusIdle
	f.timer.stop()
	if minutes < 1 {
		return f, func() tea.Msg { return statusMsg{text: "Focus cancelled"} }
	}
	if err := f.record(minutes, false); err != nil {
		return f, func() tea.Msg { return errStatus(err) }
	}
	return f, tea.Batch(f.refresh(), func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Focus cancelled after %s", formatMinutes(minutes))}
	})
}

func (f focusModel) view() string {
	w := f.width - 4
	if f.picking {
		return f.renderPicker(w)
	}

	title := titleStyle.Render("Focus")
	var timeDisplay, phaseLabel, taskLine string
	inner := max(w-6, 1)

	switch f.phase {
	case focusIdle:
		timeDisplay = countdownStyle.Foreground(colorPrimary).Width(inner).Render(formatClock(f.workLength))
		phaseLabel = mutedStyle.Render("Ready")
	case focusWork:
		timeDisplay = countdownStyle.Foreground(colorAccent).Width(inner).Render(formatClock(f.timer.remaining()))
		phaseLabel = accentStyle.Bold(true).Render("FOCUS")
	case focusBreak:
		timeDisplay = countdownStyle.Foreground(colorSuccess).Width(inner).Render(formatClock(f.timer.remaining()))
		phaseLabel = successStyle.Bold(true).Render("BREAK")
	}
	if f.timer.paused() {
		phaseLabel = warningStyle.Render("⏸  PAUSED")
	}
	if f.taskTitle != "" && f.phase == focusWork {
		taskLine = highlightStyle.Render(f.taskTitle)
	}

	stats := mutedStyle.Render(fmt.Sprintf("Today: %d sessions, %s   Last 7 days: %s",
		f.todayCount, formatMinutes(f.todayMinutes), formatMinutes(f.weekMinutes)))

	var controls string
	switch f.phase {
	case focusIdle:
		controls = mutedStyle.Render("s: start")
	case focusWork:
		controls = mutedStyle.Render("p: pause/resume  c: cancel")
	case focusBreak:
		controls = mutedStyle.Render("p: pause/resume  c: skip break")
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
		title, "", timeDisplay, phaseLabel, taskLine, "", stats, "", controls,
	))
}

func (f focusModel) renderPicker(w int) string {
	rows := []string{titleStyle.Render("Focus on")}
	options := []string{"No task"}
	for _, t := range f.tasks {
		options = append(options, t.Title)
	}
	for i, o := range options {
		cursor := "  "
		style := normalItemStyle
		if i == f.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+o))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: start  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
