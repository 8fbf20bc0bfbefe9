package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/daybook/internal/bus"
	"github.com/sadopc/daybook/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewGoals
	viewHabits
	viewFocus
	viewSettings
)

var viewNames = []string{"Today", "Goals", "Habits", "Focus", "Settings"}

// viewFor maps a settings defaultView value to its tab.
func viewFor(name string) viewState {
	for i, v := range store.Views {
		if v == name {
			return viewState(i)
		}
	}
	return viewToday
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// storeChangedMsg carries a bus notification into the program loop.
type storeChangedMsg struct {
	collection string
	change     bus.Change
}

type exportDoneMsg struct {
	path string
}

func errStatus(err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
}

// --- Helpers ---

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

// progressBar renders pct (0-100) as a bar of width cells.
func progressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func timeRange(start, end *string) string {
	switch {
	case start == nil:
		return "     "
	case end == nil:
		return *start
	}
	return *start + "-" + *end
}
