package migrate

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/daybook/internal/storage"
	"github.com/sadopc/daybook/internal/store"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newEngine(b storage.Backend) *Engine {
	return New(b,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }))
}

func migrated(t *testing.T, legacy map[string]string) (*store.AppData, *storage.Memory) {
	t.Helper()
	b := storage.NewMemoryFrom(legacy)
	e := newEngine(b)
	require.True(t, e.NeedsMigration())
	require.NoError(t, e.Migrate())
	require.Equal(t, Migrated, e.State())
	return envelope(t, b), b
}

func envelope(t *testing.T, b storage.Backend) *store.AppData {
	t.Helper()
	raw, ok, err := b.Get(store.DataKey)
	require.NoError(t, err)
	require.True(t, ok, "unified key missing")
	var d store.AppData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return &d
}

func withoutBackup(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if k != BackupKey {
			out[k] = v
		}
	}
	return out
}

// failOn rejects writes to one key.
type failOn struct {
	*storage.Memory
	key string
}

func (f failOn) Set(key, value string) error {
	if key == f.key {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(key, value)
}

// ============================================================
// Detection
// ============================================================

func TestNeedsMigration(t *testing.T) {
	e := newEngine(storage.NewMemory())
	assert.False(t, e.NeedsMigration())
	assert.Equal(t, Clean, e.State())

	e = newEngine(storage.NewMemoryFrom(map[string]string{"todos": "[]"}))
	assert.True(t, e.NeedsMigration())
	assert.Equal(t, NeedsMigration, e.State())

	e = newEngine(storage.NewMemoryFrom(map[string]string{"todos": "[]", store.DataKey: "{}"}))
	assert.False(t, e.NeedsMigration())

	e = newEngine(storage.NewMemoryFrom(map[string]string{"unrelated": "x"}))
	assert.False(t, e.NeedsMigration())
}

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"강의", "cat_study"},
		{"STUDY", "cat_study"},
		{" 업무 ", "cat_work"},
		{"Exercise", "cat_health"},
		{"약속", "cat_personal"},
		{"cat_health", "cat_health"},
		{"unknown", "cat_other"},
		{"", "cat_other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFor(tt.label), tt.label)
	}
}

// ============================================================
// Transform
// ============================================================

func TestMigrateTodo(t *testing.T) {
	legacy := `[{"text":"Buy milk","completed":false}]`
	d, b := migrated(t, map[string]string{"todos": legacy})

	require.Len(t, d.Tasks, 1)
	task := d.Tasks[0]
	assert.Equal(t, "Buy milk", task.Title)
	assert.Nil(t, task.StartTime)
	assert.Nil(t, task.EndTime)
	assert.Equal(t, "2026-03-10", task.Date)
	assert.False(t, task.IsCompleted)
	assert.Equal(t, store.DefaultCategoryID, task.CategoryID)
	assert.Equal(t, store.SchemaVersion, d.Version)
	assert.Len(t, d.Categories, 5)

	_, ok, _ := b.Get("todos")
	assert.False(t, ok)
	old, ok, _ := b.Get("todos_old")
	require.True(t, ok)
	assert.Equal(t, legacy, old)
	_, ok, _ = b.Get(BackupKey)
	assert.True(t, ok)
}

func TestMigrateCoercesLooseTypes(t *testing.T) {
	d, _ := migrated(t, map[string]string{
		"todos": `[{"id":42,"text":"typed loosely","completed":"true","category":"강의"}, "not a record", {"completed":true}]`,
	})
	require.Len(t, d.Tasks, 1)
	assert.Equal(t, "todo_42", d.Tasks[0].ID)
	assert.True(t, d.Tasks[0].IsCompleted)
	assert.Equal(t, "cat_study", d.Tasks[0].CategoryID)
}

func TestMigrateEventSources(t *testing.T) {
	d, _ := migrated(t, map[string]string{
		"events":         `[{"id":1,"title":"Standup","date":"2026-03-01","time":"9:00","endTime":"09:30","category":"업무"}]`,
		"calendarEvents": `[{"id":1,"title":"Birthday","date":"2026-03-02"},{"id":2,"title":"Open end","date":"2026-03-03","startTime":"23:30"}]`,
	})
	require.Len(t, d.Tasks, 3)

	byID := map[string]*store.Task{}
	for _, task := range d.Tasks {
		byID[task.ID] = task
	}
	standup := byID["event_1"]
	require.NotNil(t, standup)
	assert.Equal(t, "2026-03-01", standup.Date)
	assert.Equal(t, "09:00", *standup.StartTime)
	assert.Equal(t, "09:30", *standup.EndTime)
	assert.Equal(t, "cat_work", standup.CategoryID)

	birthday := byID["calendar_1"]
	require.NotNil(t, birthday)
	assert.Nil(t, birthday.StartTime)
	assert.True(t, birthday.IsAllDay)

	late := byID["calendar_2"]
	require.NotNil(t, late)
	assert.Equal(t, "23:59", *late.EndTime)
}

func TestMigrateTimetables(t *testing.T) {
	d, _ := migrated(t, map[string]string{
		"timetable":      `[{"subject":"Math","day":1,"category":"수업"},{"subject":"No day"}]`,
		"weeklySchedule": `[{"title":"Gym","dayOfWeek":[5,3,5],"startTime":"18:00","endTime":"19:00","isActive":false}]`,
	})
	require.Len(t, d.FixedSchedules, 2)

	lesson := d.FixedSchedules[0]
	assert.Equal(t, "Math", lesson.Title)
	assert.Equal(t, []int{1}, lesson.DayOfWeek)
	assert.Equal(t, "09:00", lesson.StartTime)
	assert.Equal(t, "10:00", lesson.EndTime)
	assert.True(t, lesson.IsActive)
	assert.Equal(t, "cat_study", lesson.CategoryID)

	gym := d.FixedSchedules[1]
	assert.Equal(t, []int{3, 5}, gym.DayOfWeek)
	assert.False(t, gym.IsActive)
}

func TestMigrateHabits(t *testing.T) {
	d, _ := migrated(t, map[string]string{
		"habits": `[{"id":"h1","name":"Run","category":"운동","checkedDates":["2026-03-08","2026-03-09","2026-03-09","bad","2026-03-07T10:00:00Z"]}]`,
	})
	require.Len(t, d.Habits, 1)
	h := d.Habits[0]
	assert.Equal(t, "h1", h.ID)
	assert.Equal(t, "Run", h.Title)
	assert.Equal(t, "cat_health", h.CategoryID)
	assert.True(t, h.IsActive)

	require.Len(t, d.HabitLogs, 3)
	for _, l := range d.HabitLogs {
		assert.Equal(t, "h1", l.HabitID)
		assert.True(t, l.IsCompleted)
	}
}

func TestMigrateGoals(t *testing.T) {
	d, _ := migrated(t, map[string]string{
		"goals": `[{"id":"g1","title":"Read","subGoals":[{"title":"a","completed":true},{"title":"b"},{"title":"c"}]},
		           {"id":"g2","title":"Dated","startDate":"2026-01-01","endDate":"2026-06-30","progress":140}]`,
	})
	require.Len(t, d.Goals, 2)

	read := d.Goals[0]
	assert.Equal(t, "2026-03-10", read.StartDate)
	assert.Equal(t, "2026-04-09", read.EndDate)
	assert.Equal(t, 33, read.Progress)

	dated := d.Goals[1]
	assert.Equal(t, "2026-01-01", dated.StartDate)
	assert.Equal(t, "2026-06-30", dated.EndDate)
	assert.Equal(t, 100, dated.Progress)

	require.Len(t, d.SubGoals, 3)
	for i, sg := range d.SubGoals {
		assert.Equal(t, "g1", sg.GoalID)
		assert.Equal(t, i+1, sg.Order)
	}
}

func TestMigrateThemeAndBudgets(t *testing.T) {
	d, b := migrated(t, map[string]string{
		"theme":   `"dark"`,
		"budgets": `[{"amount":1000}]`,
	})
	assert.Equal(t, "dark", d.Settings.Theme)
	assert.Empty(t, d.Tasks)

	_, ok, _ := b.Get("budgets_old")
	assert.True(t, ok)
}

func TestMigrateParseFailureDegrades(t *testing.T) {
	d, _ := migrated(t, map[string]string{
		"todos": `{broken`,
		"goals": `[{"title":"Still here"}]`,
	})
	assert.Empty(t, d.Tasks)
	assert.Len(t, d.Goals, 1)
}

func TestMigratedDataOpensInStore(t *testing.T) {
	_, b := migrated(t, map[string]string{
		"todos":  `[{"text":"Buy milk"}]`,
		"habits": `[{"name":"Walk","checkedDates":["2026-03-10"]}]`,
	})
	s, err := store.Open(b, store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	assert.Len(t, s.TasksForDate("2026-03-10"), 1)
	habits := s.Habits()
	require.Len(t, habits, 1)
	assert.Equal(t, 1, s.HabitStreak(habits[0].ID))
}

// ============================================================
// Rollback
// ============================================================

func TestRollbackRestoresExactly(t *testing.T) {
	b := storage.NewMemoryFrom(map[string]string{
		"todos":     `[{"text":"Buy milk"}]`,
		"events":    `[{"id":1,"title":"x","date":"2026-03-01"}]`,
		"theme":     `"dark"`,
		"unrelated": "keep me",
	})
	before, err := storage.Snapshot(b)
	require.NoError(t, err)

	e := newEngine(b)
	e.afterTransform = func(d *store.AppData) { d.Categories = []*store.Category{} }

	err = e.Migrate()
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, RolledBack, e.State())

	after, err := storage.Snapshot(b)
	require.NoError(t, err)
	assert.Equal(t, before, withoutBackup(after))

	backup, ok, err := e.Backup()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, backup)
}

func TestRollbackOnWriteFailure(t *testing.T) {
	mem := storage.NewMemoryFrom(map[string]string{"todos": `[{"text":"a"}]`})
	e := newEngine(failOn{Memory: mem, key: "todos_old"})

	err := e.Migrate()
	require.Error(t, err)
	assert.Equal(t, RolledBack, e.State())

	_, ok, _ := mem.Get(store.DataKey)
	assert.False(t, ok)
	v, ok, _ := mem.Get("todos")
	require.True(t, ok)
	assert.Equal(t, `[{"text":"a"}]`, v)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(store.NewAppData(fixedNow)))

	d := store.NewAppData(fixedNow)
	d.Version = ""
	assert.ErrorIs(t, Validate(d), ErrValidation)

	d = store.NewAppData(fixedNow)
	d.Tasks = nil
	assert.ErrorIs(t, Validate(d), ErrValidation)

	d = store.NewAppData(fixedNow)
	d.Tasks = append(d.Tasks, &store.Task{ID: "task_1", Date: "2026-03-10"})
	assert.ErrorIs(t, Validate(d), ErrValidation)
}

// ============================================================
// Idempotence and purge
// ============================================================

func TestMigrateRunsOnce(t *testing.T) {
	_, b := migrated(t, map[string]string{"todos": `[{"text":"once"}]`})
	first, _, _ := b.Get(store.DataKey)

	// A legacy key reappearing does not trigger a second run.
	require.NoError(t, b.Set("todos", `[{"text":"twice"}]`))
	e := newEngine(b)
	assert.False(t, e.NeedsMigration())
	require.NoError(t, e.Migrate())

	second, _, _ := b.Get(store.DataKey)
	assert.Equal(t, first, second)
}

func TestPurge(t *testing.T) {
	_, b := migrated(t, map[string]string{
		"todos":   `[{"text":"a"}]`,
		"goals":   `[]`,
		"foo_old": "not ours",
	})
	e := newEngine(b)
	removed, err := e.Purge()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"todos_old", "goals_old", BackupKey}, removed)

	keys, err := b.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{store.DataKey, "foo_old"}, keys)
}
