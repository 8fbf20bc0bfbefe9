package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/daybook/internal/store"
)

// chartDays is the width of the completion chart window.
const chartDays = 7

type habitRow struct {
	habit  store.Habit
	done   bool
	streak int
	rate   int // last 30 days
}

type habitsModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	rows   []habitRow
	daily  []int // habits completed per day, oldest first
	cursor int

	chart barchart.Model

	formActive bool
	form       *huh.Form
	formTitle  *string
	formIcon   *string
}

func newHabitsModel(s *store.Store) habitsModel {
	title, icon := "", ""
	return habitsModel{
		store:     s,
		now:       time.Now,
		chart:     barchart.New(60, 10),
		formTitle: &title,
		formIcon:  &icon,
	}
}

func (h *habitsModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type habitsDataMsg struct {
	rows  []habitRow
	daily []int
}

func (h habitsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		today := h.now().Format(store.DateLayout)
		daily := make([]int, chartDays)
		var rows []habitRow
		for _, habit := range h.store.ActiveHabits() {
			rows = append(rows, habitRow{
				habit:  habit,
				done:   h.store.IsHabitDone(habit.ID, today),
				streak: h.store.HabitStreak(habit.ID),
				rate:   h.store.HabitCompletionRate(habit.ID, 30),
			})
			for i, done := range h.store.HabitHistory(habit.ID, chartDays) {
				if done {
					daily[i]++
				}
			}
		}
		return habitsDataMsg{rows: rows, daily: daily}
	}
}

func (h habitsModel) update(msg tea.Msg) (habitsModel, tea.Cmd) {
	switch msg.(type) {
	case habitsDataMsg:
	default:
		if h.formActive && h.form != nil {
			return h.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case habitsDataMsg:
		h.rows = msg.rows
		h.daily = msg.daily
		if h.cursor >= len(h.rows) {
			h.cursor = max(0, len(h.rows)-1)
		}
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.rows)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if len(h.rows) == 0 {
				return h, nil
			}
			if _, err := h.store.ToggleHabitLog(h.rows[h.cursor].habit.ID, ""); err != nil {
				return h, func() tea.Msg { return errStatus(err) }
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Delete):
			if len(h.rows) == 0 {
				return h, nil
			}
			if err := h.store.DeleteHabit(h.rows[h.cursor].habit.ID); err != nil {
				return h, func() tea.Msg { return errStatus(err) }
			}
			return h, h.refresh()
		case key.Matches(msg, keys.New):
			return h.showForm()
		}
	}
	return h, nil
}

func (h habitsModel) showForm() (habitsModel, tea.Cmd) {
	*h.formTitle = ""
	*h.formIcon = ""
	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Habit").Value(h.formTitle).Validate(requireText),
			huh.NewInput().Title("Icon (optional)").Value(h.formIcon),
		),
	).WithShowHelp(true).WithShowErrors(true)
	h.formActive = true
	return h, h.form.Init()
}

func (h habitsModel) updateForm(msg tea.Msg) (habitsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		h.formActive = false
		h.form = nil
		return h, nil
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		if _, err := h.store.AddHabit(store.Habit{Title: *h.formTitle, Icon: *h.formIcon}); err != nil {
			return h, func() tea.Msg { return errStatus(err) }
		}
		return h, h.refresh()
	}
	return h, cmd
}

func (h *habitsModel) buildChart() {
	chartWidth := max(h.width-8, 20)
	chartHeight := 8
	if h.height > 30 {
		chartHeight = 12
	}
	h.chart = barchart.New(chartWidth, chartHeight)

	today := h.now()
	bars := make([]barchart.BarData, 0, len(h.daily))
	for i, n := range h.daily {
		day := today.AddDate(0, 0, i-len(h.daily)+1)
		style := lipgloss.NewStyle().Foreground(colorSuccess)
		if n == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label:  day.Format("Mon"),
			Values: []barchart.BarValue{{Name: "done", Value: float64(n), Style: style}},
		})
	}
	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h habitsModel) view() string {
	w := h.width - 4
	if h.formActive && h.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Habit"), "", h.form.View()),
		)
	}

	title := titleStyle.Render("Habits")
	if len(h.rows) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No habits yet. Press n to create one."),
		))
	}

	done := 0
	for _, r := range h.rows {
		if r.done {
			done++
		}
	}
	rows := []string{
		fmt.Sprintf("%s  %s", title, highlightStyle.Render(fmt.Sprintf("%d/%d today", done, len(h.rows)))),
		"",
	}
	for i, r := range h.rows {
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		streak := mutedStyle.Render("  -")
		if r.streak > 0 {
			streak = warningStyle.Render(fmt.Sprintf("🔥%d", r.streak))
		}
		rows = append(rows, fmt.Sprintf("%s%s %s %-24s %s  %s",
			cursor, checkbox(r.done), r.habit.Icon, style.Render(r.habit.Title),
			streak, mutedStyle.Render(fmt.Sprintf("%d%% / 30d", r.rate))))
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(rows, "\n"),
		"",
		mutedStyle.Render("Last 7 days"),
		h.chart.View(),
		"",
		mutedStyle.Render("  space: done today  n: new  d: delete"),
	))
}
