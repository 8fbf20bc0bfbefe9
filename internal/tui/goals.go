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

type goalsModel struct {
	store  *store.Store
	width  int
	height int

	goals       []store.Goal
	subGoals    []store.SubGoal
	cursor      int
	subCursor   int
	viewingSubs bool // true = viewing subgoals of the selected goal

	formActive bool
	form       *huh.Form
	formType   string // "goal" or "subgoal"

	// Form field pointers (survive value copies)
	formTitle *string
	formDesc  *string
	formDate  *string
}

func newGoalsModel(s *store.Store) goalsModel {
	title, desc, date := "", "", ""
	return goalsModel{
		store:     s,
		formTitle: &title,
		formDesc:  &desc,
		formDate:  &date,
	}
}

func (g *goalsModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

type goalsDataMsg struct {
	goals []store.Goal
}

type subGoalsDataMsg struct {
	subGoals []store.SubGoal
}

func (g goalsModel) refresh() tea.Cmd {
	cmds := []tea.Cmd{func() tea.Msg {
		return goalsDataMsg{goals: g.store.Goals()}
	}}
	if g.viewingSubs {
		cmds = append(cmds, g.refreshSubs())
	}
	return tea.Batch(cmds...)
}

func (g goalsModel) selected() (store.Goal, bool) {
	if g.cursor >= len(g.goals) {
		return store.Goal{}, false
	}
	return g.goals[g.cursor], true
}

func (g goalsModel) refreshSubs() tea.Cmd {
	goal, ok := g.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return subGoalsDataMsg{subGoals: g.store.SubGoalsForGoal(goal.ID)}
	}
}

func (g goalsModel) update(msg tea.Msg) (goalsModel, tea.Cmd) {
	switch msg.(type) {
	case goalsDataMsg, subGoalsDataMsg:
	default:
		if g.formActive && g.form != nil {
			return g.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case goalsDataMsg:
		g.goals = msg.goals
		if g.cursor >= len(g.goals) {
			g.cursor = max(0, len(g.goals)-1)
		}
		if len(g.goals) == 0 {
			g.viewingSubs = false
		}
		return g, nil

	case subGoalsDataMsg:
		g.subGoals = msg.subGoals
		if g.subCursor >= len(g.subGoals) {
			g.subCursor = max(0, len(g.subGoals)-1)
		}
		return g, nil

	case tea.KeyMsg:
		if g.viewingSubs {
			return g.updateSubView(msg)
		}
		return g.updateGoalList(msg)
	}
	return g, nil
}

func (g goalsModel) updateGoalList(msg tea.KeyMsg) (goalsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if g.cursor > 0 {
			g.cursor--
		}
	case key.Matches(msg, keys.Down):
		if g.cursor < len(g.goals)-1 {
			g.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(g.goals) > 0 {
			g.viewingSubs = true
			g.subCursor = 0
			return g, g.refreshSubs()
		}
	case key.Matches(msg, keys.New):
		return g.showForm("goal")
	case key.Matches(msg, keys.Delete):
		if goal, ok := g.selected(); ok {
			if err := g.store.DeleteGoal(goal.ID); err != nil {
				return g, func() tea.Msg { return errStatus(err) }
			}
			return g, g.refresh()
		}
	}
	return g, nil
}

func (g goalsModel) updateSubView(msg tea.KeyMsg) (goalsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		g.viewingSubs = false
		return g, nil
	case key.Matches(msg, keys.Up):
		if g.subCursor > 0 {
			g.subCursor--
		}
	case key.Matches(msg, keys.Down):
		if g.subCursor < len(g.subGoals)-1 {
			g.subCursor++
		}
	case key.Matches(msg, keys.Toggle):
		if len(g.subGoals) > 0 {
			if _, err := g.store.ToggleSubGoal(g.subGoals[g.subCursor].ID); err != nil {
				return g, func() tea.Msg { return errStatus(err) }
			}
			return g, g.refresh()
		}
	case key.Matches(msg, keys.New):
		return g.showForm("subgoal")
	case key.Matches(msg, keys.Delete):
		if len(g.subGoals) > 0 {
			if err := g.store.DeleteSubGoal(g.subGoals[g.subCursor].ID); err != nil {
				return g, func() tea.Msg { return errStatus(err) }
			}
			return g, g.refresh()
		}
	}
	return g, nil
}

func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(store.DateLayout, s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func requireText(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func (g goalsModel) showForm(kind string) (goalsModel, tea.Cmd) {
	*g.formTitle = ""
	*g.formDesc = ""
	*g.formDate = ""
	g.formType = kind

	dateTitle := "End date (YYYY-MM-DD, default 30 days)"
	if kind == "subgoal" {
		dateTitle = "Due date (YYYY-MM-DD, optional)"
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(g.formTitle).Validate(requireText),
			huh.NewInput().Title("Description").Value(g.formDesc),
			huh.NewInput().Title(dateTitle).Value(g.formDate).Validate(validateDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	g.formActive = true
	return g, g.form.Init()
}

func (g goalsModel) updateForm(msg tea.Msg) (goalsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		g.formActive = false
		g.form = nil
		return g, nil
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	if g.form.State == huh.StateCompleted {
		g.formActive = false
		if err := g.save(); err != nil {
			return g, func() tea.Msg { return errStatus(err) }
		}
		return g, g.refresh()
	}
	return g, cmd
}

func (g goalsModel) save() error {
	switch g.formType {
	case "goal":
		_, err := g.store.AddGoal(store.Goal{
			Title:       *g.formTitle,
			Description: *g.formDesc,
			EndDate:     *g.formDate,
		})
		return err
	case "subgoal":
		goal, ok := g.selected()
		if !ok {
			return nil
		}
		_, err := g.store.AddSubGoal(store.SubGoal{
			GoalID:      goal.ID,
			Title:       *g.formTitle,
			Description: *g.formDesc,
			DueDate:     *g.formDate,
		})
		return err
	}
	return nil
}

func (g goalsModel) view() string {
	w := g.width - 4
	if g.formActive && g.form != nil {
		title := titleStyle.Render("New Goal")
		if g.formType == "subgoal" {
			title = titleStyle.Render("New Step")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", g.form.View()),
		)
	}
	if g.viewingSubs {
		return g.renderSubView(w)
	}
	return g.renderGoalList(w)
}

func (g goalsModel) renderGoalList(w int) string {
	title := titleStyle.Render("Goals")
	if len(g.goals) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No goals yet. Press n to create one."),
		))
	}

	rows := []string{title, ""}
	for i, goal := range g.goals {
		cursor := "  "
		style := normalItemStyle
		if i == g.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, fmt.Sprintf("%s%-28s %s %3d%%  %s",
			cursor,
			style.Render(goal.Title),
			progressBar(goal.Progress, 20),
			goal.Progress,
			mutedStyle.Render(goal.StartDate+" → "+goal.EndDate),
		))
	}
	rows = append(rows, "", mutedStyle.Render("  n: new  d: delete  enter: steps"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (g goalsModel) renderSubView(w int) string {
	goal, ok := g.selected()
	if !ok {
		return ""
	}
	title := titleStyle.Render(fmt.Sprintf("%s  %d%%", goal.Title, goal.Progress))
	rows := []string{title, progressBar(goal.Progress, 30)}
	if goal.Description != "" {
		rows = append(rows, mutedStyle.Render(goal.Description))
	}
	rows = append(rows, "")

	if len(g.subGoals) == 0 {
		rows = append(rows, mutedStyle.Render("No steps. Press n to add one."))
	}
	for i, sg := range g.subGoals {
		cursor := "  "
		style := normalItemStyle
		if i == g.subCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		text := style.Render(sg.Title)
		if sg.IsCompleted {
			text = doneStyle.Render(sg.Title)
		}
		due := ""
		if sg.DueDate != "" {
			due = mutedStyle.Render("  due " + sg.DueDate)
		}
		rows = append(rows, fmt.Sprintf("%s%s %s%s", cursor, checkbox(sg.IsCompleted), text, due))
	}
	rows = append(rows, "", mutedStyle.Render("  space: toggle  n: new step  d: delete  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
