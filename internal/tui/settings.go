package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/daybook/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   store.Settings
	stats      store.Stats
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	theme         *string
	defaultView   *string
	weather       *string
	backupEnabled *bool
}

func newSettingsModel(s *store.Store) settingsModel {
	theme, view, weather, backup := "", "", "", false
	return settingsModel{
		store:         s,
		theme:         &theme,
		defaultView:   &view,
		weather:       &weather,
		backupEnabled: &backup,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings store.Settings
	stats    store.Stats
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return settingsDataMsg{settings: s.store.Settings(), stats: s.store.Stats()}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg.(type) {
	case settingsDataMsg:
	default:
		if s.formActive && s.form != nil {
			return s.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.stats = msg.stats
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func options(values []string) []huh.Option[string] {
	out := make([]huh.Option[string], len(values))
	for i, v := range values {
		out[i] = huh.NewOption(v, v)
	}
	return out
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	current := s.store.Settings()
	*s.theme = current.Theme
	*s.defaultView = current.DefaultView
	*s.weather = current.WeatherLocation
	*s.backupEnabled = current.BackupEnabled

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").Options(options(store.Themes)...).Value(s.theme),
			huh.NewSelect[string]().Title("Start view").Options(options(store.Views)...).Value(s.defaultView),
		).Title("Display"),
		huh.NewGroup(
			huh.NewInput().Title("Weather location").Value(s.weather),
			huh.NewConfirm().Title("Remind me to back up").Value(s.backupEnabled),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.save(); err != nil {
			return s, func() tea.Msg { return errStatus(err) }
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return statusMsg{text: "Settings saved"} })
	}
	return s, cmd
}

func (s settingsModel) save() error {
	weather := strings.TrimSpace(*s.weather)
	_, err := s.store.UpdateSettings(store.SettingsPatch{
		Theme:           s.theme,
		DefaultView:     s.defaultView,
		WeatherLocation: &weather,
		BackupEnabled:   s.backupEnabled,
	})
	return err
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	lastBackup := "never"
	if s.settings.LastBackup != nil {
		lastBackup = s.settings.LastBackup.Local().Format("2006-01-02 15:04")
	}
	backup := "off"
	if s.settings.BackupEnabled {
		backup = "on"
	}

	rows := []string{title, ""}
	for _, kv := range [][2]string{
		{"Theme", s.settings.Theme},
		{"Start view", s.settings.DefaultView},
		{"Weather location", s.settings.WeatherLocation},
		{"Backup reminder", backup},
		{"Last backup", lastBackup},
	} {
		label := lipgloss.NewStyle().Width(20).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}

	rows = append(rows, "", titleStyle.Render("Data"))
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  schema %s, updated %s", s.stats.Version, s.stats.LastUpdated)))
	for _, c := range store.Collections {
		label := lipgloss.NewStyle().Width(20).Render(c)
		rows = append(rows, fmt.Sprintf("  %s %d", label, s.stats.Counts[c]))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
