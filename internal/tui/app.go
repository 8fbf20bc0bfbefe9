// Package tui is the terminal dashboard over the daybook store.
package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/daybook/internal/bus"
	"github.com/sadopc/daybook/internal/config"
	"github.com/sadopc/daybook/internal/export"
	"github.com/sadopc/daybook/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	logger *slog.Logger
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	today    todayModel
	goals    goalsModel
	habits   habitsModel
	focus    focusModel
	settings settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, cfg *config.Config, logger *slog.Logger) App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := help.New()
	h.ShowAll = false

	start := s.Settings().DefaultView
	if cfg.UI.DefaultView != "" {
		start = cfg.UI.DefaultView
	}
	home, _ := os.UserHomeDir()

	return App{
		store:      s,
		logger:     logger.With("component", "tui"),
		activeView: viewFor(start),
		exportDir:  home,
		today:      newTodayModel(s),
		goals:      newGoalsModel(s),
		habits:     newHabitsModel(s),
		focus:      newFocusModel(s, cfg.Focus.WorkMinutes, cfg.Focus.BreakMinutes),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

// Listen forwards every store notification to send until the returned
// function is called. Pass (*tea.Program).Send. Delivery happens on a fresh
// goroutine because handlers must not block the mutating caller.
func Listen(s *store.Store, send func(tea.Msg)) func() {
	collections := append([]string{store.CollectionSettings}, store.Collections...)
	subs := make([]bus.Subscription, 0, len(collections))
	for _, c := range collections {
		subs = append(subs, s.Subscribe(c, func(ch bus.Change) {
			go send(storeChangedMsg{collection: c, change: ch})
		}))
	}
	return func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.refreshCurrentView(),
		a.focus.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.goals.setSize(a.width, contentHeight)
		a.habits.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, a.refreshCurrentView()

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewToday)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewGoals)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewHabits)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewFocus)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		// The focus countdown keeps running behind other views.
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case storeChangedMsg:
		a.logger.Debug("store changed", "collection", msg.collection, "type", msg.change.Type)
		cmds := []tea.Cmd{a.refreshCurrentView()}
		if a.activeView != viewFocus && (msg.collection == store.CollectionFocusSessions || msg.collection == store.CollectionTasks) {
			cmds = append(cmds, a.focus.refresh())
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.logger.Warn("action failed", "status", msg.text)
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case todayDataMsg:
		a.today, _ = a.today.update(msg)
		return a, nil
	case goalsDataMsg, subGoalsDataMsg:
		var cmd tea.Cmd
		a.goals, cmd = a.goals.update(msg)
		return a, cmd
	case habitsDataMsg:
		a.habits, _ = a.habits.update(msg)
		return a, nil
	case focusDataMsg:
		a.focus, _ = a.focus.update(msg)
		return a, nil
	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewGoals:
		a.goals, cmd = a.goals.update(msg)
	case viewHabits:
		a.habits, cmd = a.habits.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewToday:
		return a.today.formActive
	case viewGoals:
		return a.goals.formActive
	case viewHabits:
		return a.habits.formActive
	case viewFocus:
		return a.focus.picking
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.loadData()
	case viewGoals:
		return a.goals.refresh()
	case viewHabits:
		return a.habits.refresh()
	case viewFocus:
		return a.focus.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewGoals:
		content = a.goals.view()
	case viewHabits:
		content = a.habits.view()
	case viewFocus:
		content = a.focus.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("daybook")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Focus indicator in footer
	focusInfo := ""
	if a.focus.active() {
		remaining := formatClock(a.focus.timer.remaining())
		switch {
		case a.focus.timer.paused():
			focusInfo = warningStyle.Render(" ⏸ " + remaining)
		case a.focus.phase == focusBreak:
			focusInfo = successStyle.Render(" ☕ " + remaining)
		default:
			focusInfo = accentStyle.Render(" ● " + remaining)
		}
	}

	left := footerStyle.Render(helpView)
	right := focusInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"Tasks (CSV)", "Focus sessions (CSV)", "Full backup (JSON)"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		dateStr := time.Now().Format(store.DateLayout)

		var path string
		var err error
		switch format {
		case 0:
			path = filepath.Join(a.exportDir, fmt.Sprintf("daybook-tasks-%s.csv", dateStr))
			err = export.TasksToCSV(a.store.Tasks(), a.store.Categories(), path)
		case 1:
			path = filepath.Join(a.exportDir, fmt.Sprintf("daybook-focus-%s.csv", dateStr))
			err = export.FocusSessionsToCSV(a.store.FocusSessions(), path)
		default:
			path = filepath.Join(a.exportDir, fmt.Sprintf("daybook-backup-%s.json", dateStr))
			if err = export.ToJSON(a.store.ExportData(), path); err == nil {
				now := time.Now()
				_, err = a.store.UpdateSettings(store.SettingsPatch{LastBackup: &now})
			}
		}
		if err != nil {
			a.logger.Error("export failed", "path", path, "error", err)
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		a.logger.Info("exported", "path", path)
		return exportDoneMsg{path: path}
	}
}
