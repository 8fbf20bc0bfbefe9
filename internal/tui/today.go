package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/daybook/internal/store"
)

type todayModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	offset     int // days from today
	tasks      []store.Task
	schedules  []store.FixedSchedule
	categories map[string]store.Category
	cursor     int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	formTitle    *string
	formStart    *string
	formEnd      *string
	formCategory *string
}

func newTodayModel(s *store.Store) todayModel {
	title, start, end, cat := "", "", "", store.DefaultCategoryID
	return todayModel{
		store:        s,
		now:          time.Now,
		formTitle:    &title,
		formStart:    &start,
		formEnd:      &end,
		formCategory: &cat,
	}
}

func (t *todayModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t todayModel) day() time.Time {
	return t.now().AddDate(0, 0, t.offset)
}

type todayDataMsg struct {
	tasks      []store.Task
	schedules  []store.FixedSchedule
	categories []store.Category
}

func (t todayModel) loadData() tea.Cmd {
	day := t.day()
	return func() tea.Msg {
		return todayDataMsg{
			tasks:      t.store.TasksForDate(day.Format(store.DateLayout)),
			schedules:  t.store.SchedulesForDay(day.Weekday()),
			categories: t.store.Categories(),
		}
	}
}

func (t todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	switch msg.(type) {
	case todayDataMsg:
	default:
		if t.formActive && t.form != nil {
			return t.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case todayDataMsg:
		t.tasks = msg.tasks
		t.schedules = msg.schedules
		t.categories = make(map[string]store.Category, len(msg.categories))
		for _, c := range msg.categories {
			t.categories[c.ID] = c
		}
		if t.cursor >= len(t.tasks) {
			t.cursor = max(0, len(t.tasks)-1)
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.tasks)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Left):
			t.offset--
			t.cursor = 0
			return t, t.loadData()
		case key.Matches(msg, keys.Right):
			t.offset++
			t.cursor = 0
			return t, t.loadData()
		case key.Matches(msg, keys.Toggle):
			if len(t.tasks) == 0 {
				return t, nil
			}
			if _, err := t.store.ToggleTask(t.tasks[t.cursor].ID); err != nil {
				return t, func() tea.Msg { return errStatus(err) }
			}
			return t, t.loadData()
		case key.Matches(msg, keys.Delete):
			if len(t.tasks) == 0 {
				return t, nil
			}
			if err := t.store.DeleteTask(t.tasks[t.cursor].ID); err != nil {
				return t, func() tea.Msg { return errStatus(err) }
			}
			return t, t.loadData()
		case key.Matches(msg, keys.New):
			return t.showForm()
		}
	}
	return t, nil
}

func validateClock(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(store.ClockLayout, s); err != nil {
		return errors.New("use HH:MM")
	}
	return nil
}

func (t todayModel) showForm() (todayModel, tea.Cmd) {
	*t.formTitle = ""
	*t.formStart = ""
	*t.formEnd = ""
	*t.formCategory = store.DefaultCategoryID

	var options []huh.Option[string]
	for _, c := range t.store.Categories() {
		options = append(options, huh.NewOption(c.Icon+" "+c.Name, c.ID))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(t.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewInput().Title("Start (HH:MM, optional)").Value(t.formStart).Validate(validateClock),
			huh.NewInput().Title("End (HH:MM, optional)").Value(t.formEnd).Validate(validateClock),
			huh.NewSelect[string]().Title("Category").Options(options...).Value(t.formCategory),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t todayModel) updateForm(msg tea.Msg) (todayModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		if err := t.saveTask(); err != nil {
			return t, func() tea.Msg { return errStatus(err) }
		}
		return t, t.loadData()
	}
	return t, cmd
}

func (t todayModel) saveTask() error {
	task := store.Task{
		Title:      *t.formTitle,
		CategoryID: *t.formCategory,
		Date:       t.day().Format(store.DateLayout),
	}
	if *t.formStart != "" {
		start := *t.formStart
		task.StartTime = &start
	}
	if *t.formEnd != "" {
		end := *t.formEnd
		task.EndTime = &end
	}
	_, err := t.store.AddTask(task)
	return err
}

func (t todayModel) view() string {
	if t.width < 20 {
		return "Terminal too small"
	}
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		t.renderTasks(w),
		t.renderSchedule(w),
	)
}

func (t todayModel) dayLabel() string {
	day := t.day()
	switch t.offset {
	case 0:
		return "Today, " + day.Format("Mon Jan 02")
	case -1:
		return "Yesterday, " + day.Format("Mon Jan 02")
	case 1:
		return "Tomorrow, " + day.Format("Mon Jan 02")
	}
	return day.Format("Mon Jan 02, 2006")
}

func (t todayModel) category(id string) store.Category {
	if c, ok := t.categories[id]; ok {
		return c
	}
	return store.Category{Name: "?", Color: "#95A5A6"}
}

func (t todayModel) renderTasks(w int) string {
	done := 0
	for _, task := range t.tasks {
		if task.IsCompleted {
			done++
		}
	}
	header := fmt.Sprintf("%s  %s", titleStyle.Render(t.dayLabel()),
		highlightStyle.Render(fmt.Sprintf("%d/%d done", done, len(t.tasks))))

	if len(t.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No tasks. Press n to add one."),
		))
	}

	rows := []string{header, ""}
	for i, task := range t.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		title := style.Render(task.Title)
		if task.IsCompleted {
			title = doneStyle.Render(task.Title)
		}
		c := t.category(task.CategoryID)
		rows = append(rows, fmt.Sprintf("%s%s %s %s %s",
			cursor, checkbox(task.IsCompleted), mutedStyle.Render(timeRange(task.StartTime, task.EndTime)),
			categoryDot(c.Color), title))
	}
	rows = append(rows, "", mutedStyle.Render("  space: toggle  n: new  d: delete  ←/→: day"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t todayModel) renderSchedule(w int) string {
	title := titleStyle.Render("Fixed Schedule")
	if len(t.schedules) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing scheduled"),
		))
	}

	rows := []string{title}
	for _, s := range t.schedules {
		c := t.category(s.CategoryID)
		rows = append(rows, fmt.Sprintf("  %s-%s %s %s",
			s.StartTime, s.EndTime, categoryDot(c.Color), s.Title))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
