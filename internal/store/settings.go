package store

import (
	"slices"
	"time"
)

// Themes and views accepted by UpdateSettings.
var (
	Themes = []string{"light", "dark", "system"}
	Views  = []string{"today", "goals", "habits", "focus", "settings"}
)

type SettingsPatch struct {
	Theme           *string
	DefaultView     *string
	WeatherLocation *string
	BackupEnabled   *bool
	LastBackup      *time.Time
}

func (p SettingsPatch) apply(st *Settings) {
	if p.Theme != nil {
		st.Theme = *p.Theme
	}
	if p.DefaultView != nil {
		st.DefaultView = *p.DefaultView
	}
	if p.WeatherLocation != nil {
		st.WeatherLocation = *p.WeatherLocation
	}
	if p.BackupEnabled != nil {
		st.BackupEnabled = *p.BackupEnabled
	}
	if p.LastBackup != nil {
		st.LastBackup = cloneTime(p.LastBackup)
	}
}

func validateSettings(st *Settings) error {
	if !slices.Contains(Themes, st.Theme) {
		return invalid("theme %q is not one of %v", st.Theme, Themes)
	}
	if !slices.Contains(Views, st.DefaultView) {
		return invalid("defaultView %q is not one of %v", st.DefaultView, Views)
	}
	return nil
}

func (s *Store) UpdateSettings(p SettingsPatch) (Settings, error) {
	var out Settings
	err := s.mutate("update settings", func() ([]notice, error) {
		next := s.data.Settings.clone()
		p.apply(next)
		if err := validateSettings(next); err != nil {
			return nil, err
		}
		s.data.Settings = next
		out = *next.clone()
		return []notice{updated(CollectionSettings, next.clone())}, nil
	})
	return out, err
}

func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.data.Settings.clone()
}
