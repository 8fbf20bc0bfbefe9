package tui

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/daybook/internal/config"
	"github.com/sadopc/daybook/internal/storage"
	"github.com/sadopc/daybook/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*store.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	s, err := store.Open(storage.NewMemory(), store.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, clock
}

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

var (
	spaceKey = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
)

// ============================================================
// Countdown
// ============================================================

func TestCountdownStartStop(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newCountdown(clock.Now)
	if c.running() {
		t.Fatal("countdown should start stopped")
	}

	c.start(25 * time.Minute)
	if !c.running() || c.paused() {
		t.Fatal("countdown should be running after start")
	}

	clock.Advance(10 * time.Minute)
	if got := c.elapsed(); got != 10*time.Minute {
		t.Fatalf("elapsed = %v, want 10m", got)
	}
	if got := c.remaining(); got != 15*time.Minute {
		t.Fatalf("remaining = %v, want 15m", got)
	}

	c.stop()
	if c.running() {
		t.Fatal("countdown should be stopped")
	}
	if c.elapsed() != 0 {
		t.Fatal("stopped countdown should report 0 elapsed")
	}
}

func TestCountdownPauseExcludesGap(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newCountdown(clock.Now)
	c.start(25 * time.Minute)

	clock.Advance(5 * time.Minute)
	c.pause()
	if !c.paused() || !c.running() {
		t.Fatal("paused countdown is still running (not stopped)")
	}

	clock.Advance(30 * time.Minute)
	if got := c.elapsed(); got != 5*time.Minute {
		t.Fatalf("elapsed while paused = %v, want 5m", got)
	}
	if c.finished() {
		t.Fatal("paused countdown should not finish")
	}

	c.resume()
	clock.Advance(5 * time.Minute)
	if got := c.elapsed(); got != 10*time.Minute {
		t.Fatalf("elapsed after resume = %v, want 10m", got)
	}
}

func TestCountdownToggle(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newCountdown(clock.Now)

	c.toggle() // stopped: no-op
	if c.running() {
		t.Fatal("toggle on stopped countdown should do nothing")
	}

	c.start(time.Minute)
	c.toggle()
	if !c.paused() {
		t.Fatal("toggle should pause")
	}
	c.toggle()
	if c.paused() {
		t.Fatal("toggle should resume")
	}
}

func TestCountdownFinished(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := newCountdown(clock.Now)
	c.start(time.Minute)

	if c.finished() {
		t.Fatal("should not be finished at start")
	}
	clock.Advance(2 * time.Minute)
	if !c.finished() {
		t.Fatal("should be finished after its length")
	}
	if c.remaining() != 0 {
		t.Fatalf("remaining should clamp at 0, got %v", c.remaining())
	}
}

// ============================================================
// Focus model
// ============================================================

func newTestFocus(t *testing.T) (focusModel, *store.Store, *fakeClock) {
	t.Helper()
	s, clock := newTestStore(t)
	f := newFocusModel(s, 25, 5)
	f.setClock(clock.Now)
	return f, s, clock
}

func TestFocusWorkPhaseRecordsSession(t *testing.T) {
	f, s, clock := newTestFocus(t)

	f, _ = f.update(runeKey("s"))
	if f.phase != focusWork {
		t.Fatalf("phase = %d, want work", f.phase)
	}

	clock.Advance(25 * time.Minute)
	f, _ = f.update(tickMsg(clock.Now()))
	if f.phase != focusBreak {
		t.Fatalf("phase = %d, want break", f.phase)
	}

	sessions := s.FocusSessions()
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	got := sessions[0]
	if !got.IsCompleted || got.DurationMinutes != 25 || got.TaskID != nil {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Date != "2026-03-10" {
		t.Fatalf("date = %q", got.Date)
	}

	clock.Advance(5 * time.Minute)
	f, _ = f.update(tickMsg(clock.Now()))
	if f.phase != focusIdle {
		t.Fatalf("phase after break = %d, want idle", f.phase)
	}
	if len(s.FocusSessions()) != 1 {
		t.Fatal("break should not record a session")
	}
}

func TestFocusPickerLinksTask(t *testing.T) {
	f, s, clock := newTestFocus(t)
	task, err := s.AddTask(store.Task{Title: "Write report"})
	if err != nil {
		t.Fatal(err)
	}
	f, _ = f.update(f.refresh()())

	f, _ = f.update(runeKey("s"))
	if !f.picking {
		t.Fatal("start with open tasks should show picker")
	}
	f, _ = f.update(downKey)
	f, _ = f.update(enterKey)
	if f.picking || f.taskID != task.ID {
		t.Fatalf("picker should link %s, got %q", task.ID, f.taskID)
	}

	clock.Advance(25 * time.Minute)
	f.update(tickMsg(clock.Now()))

	sessions := s.FocusSessions()
	if len(sessions) != 1 || sessions[0].TaskID == nil || *sessions[0].TaskID != task.ID {
		t.Fatalf("session should reference task: %+v", sessions)
	}
}

func TestFocusPickerCancel(t *testing.T) {
	f, s, _ := newTestFocus(t)
	s.AddTask(store.Task{Title: "Something"})
	f, _ = f.update(f.refresh()())

	f, _ = f.update(runeKey("s"))
	f, _ = f.update(escKey)
	if f.picking || f.phase != focusIdle {
		t.Fatal("esc should close the picker without starting")
	}
}

func TestFocusCancelRecordsPartialSession(t *testing.T) {
	f, s, clock := newTestFocus(t)

	f, _ = f.update(runeKey("s"))
	clock.Advance(10 * time.Minute)
	f, _ = f.update(runeKey("c"))

	if f.phase != focusIdle {
		t.Fatal("cancel should return to idle")
	}
	sessions := s.FocusSessions()
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if sessions[0].IsCompleted || sessions[0].DurationMinutes != 10 {
		t.Fatalf("unexpected partial session: %+v", sessions[0])
	}
	if s.FocusMinutes(1) != 0 {
		t.Fatal("interrupted sessions should not count toward focus minutes")
	}
}

func TestFocusCancelTooShortRecordsNothing(t *testing.T) {
	f, s, clock := newTestFocus(t)

	f, _ = f.update(runeKey("s"))
	clock.Advance(30 * time.Second)
	f.update(runeKey("c"))

	if len(s.FocusSessions()) != 0 {
		t.Fatal("a session under a minute should not be recorded")
	}
}

func TestFocusPauseDelaysFinish(t *testing.T) {
	f, s, clock := newTestFocus(t)

	f, _ = f.update(runeKey("s"))
	clock.Advance(20 * time.Minute)
	f, _ = f.update(runeKey("p"))
	clock.Advance(20 * time.Minute)
	f, _ = f.update(tickMsg(clock.Now()))

	if f.phase != focusWork {
		t.Fatal("paused focus should not finish")
	}
	if len(s.FocusSessions()) != 0 {
		t.Fatal("nothing should be recorded while paused")
	}
}

func TestFocusRefreshTotals(t *testing.T) {
	f, s, clock := newTestFocus(t)
	start := clock.Now().Add(-time.Hour)
	end := start.Add(25 * time.Minute)
	s.AddFocusSession(store.FocusSession{StartedAt: start, EndedAt: &end, DurationMinutes: 25, IsCompleted: true})
	s.AddFocusSession(store.FocusSession{StartedAt: start, DurationMinutes: 3})

	f, _ = f.update(f.refresh()())
	if f.todayCount != 1 || f.todayMinutes != 25 || f.weekMinutes != 25 {
		t.Fatalf("totals = %d/%d/%d, want 1/25/25", f.todayCount, f.todayMinutes, f.weekMinutes)
	}
}

// ============================================================
// Today model
// ============================================================

func newTestToday(t *testing.T) (todayModel, *store.Store) {
	t.Helper()
	s, clock := newTestStore(t)
	m := newTodayModel(s)
	m.now = clock.Now
	m.setSize(120, 40)
	return m, s
}

func TestTodayLoadsTasksAndSchedules(t *testing.T) {
	m, s := newTestToday(t)
	s.AddTask(store.Task{Title: "Standup"})
	s.AddTask(store.Task{Title: "Tomorrow", Date: "2026-03-11"})
	s.AddFixedSchedule(store.FixedSchedule{Title: "Gym", DayOfWeek: []int{2}, StartTime: "18:00", EndTime: "19:00"})

	m, _ = m.update(m.loadData()())
	if len(m.tasks) != 1 || m.tasks[0].Title != "Standup" {
		t.Fatalf("tasks = %+v", m.tasks)
	}
	if len(m.schedules) != 1 {
		t.Fatalf("schedules = %d, want 1 (2026-03-10 is a Tuesday)", len(m.schedules))
	}

	out := m.view()
	for _, want := range []string{"Standup", "Gym", "0/1 done"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestTodayNavigateDays(t *testing.T) {
	m, s := newTestToday(t)
	s.AddTask(store.Task{Title: "Tomorrow", Date: "2026-03-11"})

	m, cmd := m.update(runeKey("l"))
	if m.offset != 1 {
		t.Fatalf("offset = %d, want 1", m.offset)
	}
	m, _ = m.update(cmd())
	if len(m.tasks) != 1 {
		t.Fatal("next day should show its task")
	}
	if !strings.Contains(m.dayLabel(), "Tomorrow") {
		t.Fatalf("label = %q", m.dayLabel())
	}
}

func TestTodayToggleAndDelete(t *testing.T) {
	m, s := newTestToday(t)
	task, _ := s.AddTask(store.Task{Title: "Standup"})
	m, _ = m.update(m.loadData()())

	m, cmd := m.update(spaceKey)
	m, _ = m.update(cmd())
	if !m.tasks[0].IsCompleted {
		t.Fatal("space should complete the task")
	}

	m, cmd = m.update(runeKey("d"))
	m, _ = m.update(cmd())
	if len(m.tasks) != 0 {
		t.Fatal("task should be deleted")
	}
	if _, err := s.GetTask(task.ID); err == nil {
		t.Fatal("task should be gone from the store")
	}
}

func TestTodaySaveTask(t *testing.T) {
	m, s := newTestToday(t)
	m.offset = 2
	*m.formTitle = "Dentist"
	*m.formStart = "14:00"
	*m.formEnd = "15:00"
	*m.formCategory = "cat_health"

	if err := m.saveTask(); err != nil {
		t.Fatal(err)
	}
	tasks := s.TasksForDate("2026-03-12")
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(tasks))
	}
	got := tasks[0]
	if *got.StartTime != "14:00" || *got.EndTime != "15:00" || got.CategoryID != "cat_health" {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestValidateClock(t *testing.T) {
	for _, ok := range []string{"", "09:30", "23:59"} {
		if err := validateClock(ok); err != nil {
			t.Errorf("validateClock(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"9", "25:00", "noon"} {
		if err := validateClock(bad); err == nil {
			t.Errorf("validateClock(%q) should fail", bad)
		}
	}
}

// ============================================================
// Goals model
// ============================================================

func TestGoalsSaveAndDrillDown(t *testing.T) {
	s, _ := newTestStore(t)
	g := newGoalsModel(s)
	g.setSize(120, 40)

	g.formType = "goal"
	*g.formTitle = "Run a marathon"
	if err := g.save(); err != nil {
		t.Fatal(err)
	}
	g = applyCmd(t, g, g.refresh())
	if len(g.goals) != 1 || g.goals[0].EndDate != "2026-04-09" {
		t.Fatalf("goals = %+v", g.goals)
	}

	g, cmd := g.update(enterKey)
	if !g.viewingSubs {
		t.Fatal("enter should open the steps")
	}
	g = applyCmd(t, g, cmd)

	g.formType = "subgoal"
	for _, title := range []string{"5k", "10k"} {
		*g.formTitle = title
		if err := g.save(); err != nil {
			t.Fatal(err)
		}
	}
	g = applyCmd(t, g, g.refresh())
	if len(g.subGoals) != 2 {
		t.Fatalf("subgoals = %d, want 2", len(g.subGoals))
	}

	g, cmd = g.update(spaceKey)
	g = applyCmd(t, g, cmd)
	if g.goals[0].Progress != 50 {
		t.Fatalf("progress = %d, want 50", g.goals[0].Progress)
	}
	if !strings.Contains(g.view(), "50%") {
		t.Fatal("view should show progress")
	}

	g, _ = g.update(escKey)
	if g.viewingSubs {
		t.Fatal("esc should go back to the goal list")
	}
}

// applyCmd runs cmd and feeds every resulting data message back into g.
func applyCmd(t *testing.T, g goalsModel, cmd tea.Cmd) goalsModel {
	t.Helper()
	if cmd == nil {
		return g
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			g = applyCmd(t, g, c)
		}
	default:
		g, _ = g.update(msg)
	}
	return g
}

func TestGoalsDelete(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddGoal(store.Goal{Title: "Read 12 books"})
	g := newGoalsModel(s)
	g = applyCmd(t, g, g.refresh())

	g, cmd := g.update(runeKey("d"))
	g = applyCmd(t, g, cmd)
	if len(g.goals) != 0 || len(s.Goals()) != 0 {
		t.Fatal("goal should be deleted")
	}
}

// ============================================================
// Habits model
// ============================================================

func TestHabitsToggleAndChart(t *testing.T) {
	s, clock := newTestStore(t)
	water, _ := s.AddHabit(store.Habit{Title: "Water"})
	s.AddHabit(store.Habit{Title: "Stretch"})
	s.ToggleHabitLog(water.ID, "2026-03-09")

	h := newHabitsModel(s)
	h.now = clock.Now
	h.setSize(120, 40)
	h, _ = h.update(h.refresh()())

	if len(h.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(h.rows))
	}
	if len(h.daily) != chartDays || h.daily[chartDays-2] != 1 || h.daily[chartDays-1] != 0 {
		t.Fatalf("daily = %v", h.daily)
	}

	h, cmd := h.update(spaceKey)
	h, _ = h.update(cmd())
	if !h.rows[0].done || h.rows[0].streak != 2 {
		t.Fatalf("water row = %+v, want done with streak 2", h.rows[0])
	}
	if h.daily[chartDays-1] != 1 {
		t.Fatalf("today's bar = %d, want 1", h.daily[chartDays-1])
	}
	if !strings.Contains(h.view(), "1/2 today") {
		t.Fatal("view should count today's habits")
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsSave(t *testing.T) {
	s, _ := newTestStore(t)
	m := newSettingsModel(s)
	m.setSize(120, 40)

	*m.theme = "dark"
	*m.defaultView = "habits"
	*m.weather = "  Busan "
	*m.backupEnabled = true
	if err := m.save(); err != nil {
		t.Fatal(err)
	}

	got := s.Settings()
	if got.Theme != "dark" || got.DefaultView != "habits" || got.WeatherLocation != "Busan" || !got.BackupEnabled {
		t.Fatalf("settings = %+v", got)
	}

	m, _ = m.update(m.refresh()())
	if !strings.Contains(m.view(), "Busan") {
		t.Fatal("view should show saved settings")
	}
}

func TestSettingsRejectsBadTheme(t *testing.T) {
	s, _ := newTestStore(t)
	m := newSettingsModel(s)
	*m.theme = "neon"
	*m.defaultView = "today"
	if err := m.save(); err == nil {
		t.Fatal("unknown theme should be rejected")
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) (App, *store.Store) {
	t.Helper()
	s, clock := newTestStore(t)
	app := NewApp(s, config.Default(), nil)
	app.width = 120
	app.height = 40
	app.exportDir = t.TempDir()
	app.today.now = clock.Now
	app.habits.now = clock.Now
	app.focus.setClock(clock.Now)
	return app, s
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	if app.activeView != viewToday {
		t.Fatal("default view should be today")
	}
	if app.showHelp || app.exportPicking {
		t.Fatal("help and export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
	if app.focus.workLength != 25*time.Minute || app.focus.breakLength != 5*time.Minute {
		t.Fatal("focus lengths should come from config")
	}
}

func TestAppStartViewFromSettings(t *testing.T) {
	s, _ := newTestStore(t)
	view := "habits"
	if _, err := s.UpdateSettings(store.SettingsPatch{DefaultView: &view}); err != nil {
		t.Fatal(err)
	}
	if app := NewApp(s, nil, nil); app.activeView != viewHabits {
		t.Fatalf("view = %d, want habits", app.activeView)
	}

	cfg := config.Default()
	cfg.UI.DefaultView = "focus"
	if app := NewApp(s, cfg, nil); app.activeView != viewFocus {
		t.Fatal("config default_view should win over settings")
	}
}

func TestAppTabSwitching(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(runeKey("3"))
	app = model.(App)
	if app.activeView != viewHabits {
		t.Fatalf("view = %d, want habits", app.activeView)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(App)
	if app.activeView != viewFocus {
		t.Fatalf("view = %d, want focus", app.activeView)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	model, _ = model.(App).Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.(App).activeView != viewToday {
		t.Fatal("tab should wrap around to today")
	}
}

func TestAppViewStates(t *testing.T) {
	app, _ := newTestApp(t)

	for i := range viewNames {
		app.activeView = viewState(i)
		if out := app.View(); out == "" {
			t.Fatalf("view %d rendered empty", i)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _ := newTestApp(t)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	s, _ := newTestStore(t)
	app := NewApp(s, nil, nil)
	if out := app.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := newTestApp(t)
	model, _ := app.Update(statusMsg{text: "test status"})
	if !strings.Contains(model.(App).renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppExportJSONStampsBackup(t *testing.T) {
	app, s := newTestApp(t)
	s.AddTask(store.Task{Title: "Standup"})

	msg := app.doExport(2)()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("expected exportDoneMsg, got %#v", msg)
	}
	if filepath.Dir(done.path) != app.exportDir {
		t.Fatalf("export written to %s", done.path)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatal(err)
	}
	if s.Settings().LastBackup == nil {
		t.Fatal("JSON export should record lastBackup")
	}
}

func TestAppExportCSV(t *testing.T) {
	app, s := newTestApp(t)
	s.AddTask(store.Task{Title: "Standup"})

	for _, format := range []int{0, 1} {
		msg := app.doExport(format)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: expected exportDoneMsg, got %#v", format, msg)
		}
		if !strings.HasSuffix(done.path, ".csv") {
			t.Fatalf("format %d: path = %s", format, done.path)
		}
	}
	if s.Settings().LastBackup != nil {
		t.Fatal("CSV export should not count as a backup")
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(runeKey("e"))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	model, _ = app.Update(runeKey("q"))
	if !model.(App).exportPicking {
		t.Fatal("picker should capture keys")
	}
	model, _ = model.(App).Update(escKey)
	if model.(App).exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Store notifications
// ============================================================

func TestListenForwardsChanges(t *testing.T) {
	s, _ := newTestStore(t)
	got := make(chan tea.Msg, 8)
	stop := Listen(s, func(m tea.Msg) { got <- m })

	if _, err := s.AddHabit(store.Habit{Title: "Water"}); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-got:
		changed, ok := m.(storeChangedMsg)
		if !ok || changed.collection != store.CollectionHabits {
			t.Fatalf("unexpected message %#v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification forwarded")
	}

	stop()
	s.AddHabit(store.Habit{Title: "Stretch"})
	select {
	case m := <-got:
		t.Fatalf("received %#v after stop", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAppRefreshesOnStoreChange(t *testing.T) {
	app, s := newTestApp(t)
	s.AddTask(store.Task{Title: "Standup"})

	model, cmd := app.Update(storeChangedMsg{collection: store.CollectionTasks})
	app = model.(App)
	if cmd == nil {
		t.Fatal("store change should trigger a refresh")
	}
	for _, c := range cmd().(tea.BatchMsg) {
		if c == nil {
			continue
		}
		model, _ = app.Update(c())
		app = model.(App)
	}
	if len(app.today.tasks) != 1 {
		t.Fatalf("today tasks = %d, want 1", len(app.today.tasks))
	}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatClock(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{90 * time.Second, "01:30"},
		{25 * time.Minute, "25:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.d); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		mins int
		want string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h 00m"},
		{135, "2h 15m"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.mins); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}

func TestProgressBarClamps(t *testing.T) {
	for _, pct := range []int{-10, 0, 50, 100, 150} {
		if got := progressBar(pct, 10); got == "" {
			t.Fatalf("progressBar(%d) rendered empty", pct)
		}
	}
}

func TestViewFor(t *testing.T) {
	if len(viewNames) != len(store.Views) {
		t.Fatal("every settings view needs a tab")
	}
	for i, name := range store.Views {
		if viewFor(name) != viewState(i) {
			t.Errorf("viewFor(%q) = %d, want %d", name, viewFor(name), i)
		}
	}
	if viewFor("bogus") != viewToday {
		t.Fatal("unknown view should fall back to today")
	}
}

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}
