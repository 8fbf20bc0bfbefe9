package migrate

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sadopc/daybook/internal/store"
)

// Legacy storage keys, one per fragment of the old layout.
const (
	KeyTodos          = "todos"
	KeyEvents         = "events"
	KeyCalendarEvents = "calendarEvents"
	KeyGoals          = "goals"
	KeyHabits         = "habits"
	KeyTimetable      = "timetable"
	KeyWeeklySchedule = "weeklySchedule"
	KeyTheme          = "theme"
	KeyBudgets        = "budgets"
)

// LegacyKeys lists every key recognized as part of the old layout.
var LegacyKeys = []string{
	KeyTodos, KeyEvents, KeyCalendarEvents, KeyGoals, KeyHabits,
	KeyTimetable, KeyWeeklySchedule, KeyTheme, KeyBudgets,
}

// Id prefixes that keep the two event sources apart.
const (
	eventPrefix    = "event_"
	calendarPrefix = "calendar_"
	todoPrefix     = "todo_"
)

var categoryLabels = map[string]string{
	"work":     "cat_work",
	"업무":       "cat_work",
	"회사":       "cat_work",
	"일":        "cat_work",
	"study":    "cat_study",
	"공부":       "cat_study",
	"강의":       "cat_study",
	"수업":       "cat_study",
	"과제":       "cat_study",
	"시험":       "cat_study",
	"personal": "cat_personal",
	"개인":       "cat_personal",
	"약속":       "cat_personal",
	"가족":       "cat_personal",
	"health":   "cat_health",
	"exercise": "cat_health",
	"운동":       "cat_health",
	"건강":       "cat_health",
	"other":    store.DefaultCategoryID,
	"기타":       store.DefaultCategoryID,
}

// CategoryFor maps a legacy category label to a category id. Matching is
// case-insensitive; unknown or empty labels map to the default category.
func CategoryFor(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if id, ok := categoryLabels[l]; ok {
		return id
	}
	for _, c := range store.DefaultCategories() {
		if c.ID == l {
			return c.ID
		}
	}
	return store.DefaultCategoryID
}

type legacyTodo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Done      bool   `json:"done"`
	Category  string `json:"category"`
	CreatedAt string `json:"createdAt"`
}

type legacyEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Category    string `json:"category"`
	AllDay      bool   `json:"allDay"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
}

type legacySubGoal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
	IsCompleted bool   `json:"isCompleted"`
	Order       int    `json:"order"`
}

type legacyGoal struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	Progress    int             `json:"progress"`
	Category    string          `json:"category"`
	SubGoals    []legacySubGoal `json:"subGoals"`
	CreatedAt   string          `json:"createdAt"`
}

type legacyHabit struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	Icon         string   `json:"icon"`
	Active       *bool    `json:"active"`
	CheckedDates []string `json:"checkedDates"`
	CreatedAt    string   `json:"createdAt"`
}

type legacySlot struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Day       []int  `json:"day"`
	DayOfWeek []int  `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Category  string `json:"category"`
	IsActive  *bool  `json:"isActive"`
}

// decode coerces one untyped legacy record into out. Numbers, strings and
// booleans are converted between each other and a scalar becomes a
// one-element slice.
func decode(in any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// parseList parses a legacy value as a JSON array of records.
func parseList(raw string) ([]any, error) {
	var list []any
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// parseTheme accepts either a JSON string or a bare theme name.
func parseTheme(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.Trim(strings.TrimSpace(raw), `"`)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func validDate(s string) bool {
	_, err := time.Parse(store.DateLayout, s)
	return err == nil
}

// clock normalizes "9:00" and "09:00:00" style values to HH:MM.
func clock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{store.ClockLayout, "15:04:05", "3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(store.ClockLayout), true
		}
	}
	return "", false
}

// legacyTime reads RFC 3339 strings and millisecond epochs.
func legacyTime(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return fallback
}

func oneHourAfter(start string) string {
	t, _ := time.Parse(store.ClockLayout, start)
	end := t.Add(time.Hour)
	if end.Day() != t.Day() {
		return "23:59"
	}
	return end.Format(store.ClockLayout)
}

// transformer turns parsed legacy records into the unified envelope.
type transformer struct {
	now     time.Time
	today   string
	data    *store.AppData
	used    map[string]bool
	skipped int
}

func newTransformer(now time.Time) *transformer {
	return &transformer{
		now:   now.UTC(),
		today: now.Format(store.DateLayout),
		data:  store.NewAppData(now.UTC()),
		used:  map[string]bool{},
	}
}

// claim keeps a legacy id under prefix, generating one of kind when the
// legacy id is absent or already taken.
func (t *transformer) claim(prefix, kind, id string) string {
	out := prefix + strings.TrimSpace(id)
	if strings.TrimSpace(id) == "" || t.used[out] {
		out = prefix + store.NewID(kind)
	}
	t.used[out] = true
	return out
}

func (t *transformer) todos(list []any) {
	for _, item := range list {
		var in legacyTodo
		if err := decode(item, &in); err != nil {
			t.skipped++
			continue
		}
		title := firstNonEmpty(in.Text, in.Title)
		if title == "" {
			t.skipped++
			continue
		}
		created := legacyTime(in.CreatedAt, t.now)
		t.data.Tasks = append(t.data.Tasks, &store.Task{
			ID:          t.claim(todoPrefix, "task", in.ID),
			Title:       title,
			CategoryID:  CategoryFor(in.Category),
			Date:        t.today,
			IsCompleted: in.Completed || in.Done,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
}

func (t *transformer) events(prefix string, list []any) {
	for _, item := range list {
		var in legacyEvent
		if err := decode(item, &in); err != nil {
			t.skipped++
			continue
		}
		if strings.TrimSpace(in.Title) == "" {
			t.skipped++
			continue
		}
		date := strings.TrimSpace(in.Date)
		if !validDate(date) {
			if ts := legacyTime(date, time.Time{}); !ts.IsZero() {
				date = ts.Format(store.DateLayout)
			} else {
				date = t.today
			}
		}

		task := &store.Task{
			ID:          t.claim(prefix, "task", in.ID),
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			CategoryID:  CategoryFor(in.Category),
			Date:        date,
			IsCompleted: in.Completed,
			IsAllDay:    in.AllDay,
		}
		if start, ok := clock(firstNonEmpty(in.StartTime, in.Time)); ok && !in.AllDay {
			end, ok := clock(in.EndTime)
			if !ok || end < start {
				end = oneHourAfter(start)
			}
			task.StartTime = &start
			task.EndTime = &end
		} else {
			task.IsAllDay = true
		}
		task.CreatedAt = legacyTime(in.CreatedAt, t.now)
		task.UpdatedAt = task.CreatedAt
		t.data.Tasks = append(t.data.Tasks, task)
	}
}

func (t *transformer) slots(list []any) {
	for _, item := range list {
		var in legacySlot
		if err := decode(item, &in); err != nil {
			t.skipped++
			continue
		}
		title := firstNonEmpty(in.Title, in.Subject)
		var days []int
		seen := map[int]bool{}
		for _, d := range append(in.DayOfWeek, in.Day...) {
			if d >= 0 && d <= 6 && !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
		if title == "" || len(days) == 0 {
			t.skipped++
			continue
		}
		slices.Sort(days)

		start, ok := clock(in.StartTime)
		if !ok {
			start = "09:00"
		}
		end, ok := clock(in.EndTime)
		if !ok {
			end = "10:00"
		}
		active := true
		if in.IsActive != nil {
			active = *in.IsActive
		}
		t.data.FixedSchedules = append(t.data.FixedSchedules, &store.FixedSchedule{
			ID:         store.NewID("sched"),
			Title:      title,
			CategoryID: CategoryFor(in.Category),
			DayOfWeek:  days,
			StartTime:  start,
			EndTime:    end,
			IsActive:   active,
			CreatedAt:  t.now,
			UpdatedAt:  t.now,
		})
	}
}

func (t *transformer) goals(list []any) {
	for _, item := range list {
		var in legacyGoal
		if err := decode(item, &in); err != nil {
			t.skipped++
			continue
		}
		if strings.TrimSpace(in.Title) == "" {
			t.skipped++
			continue
		}
		start := strings.TrimSpace(in.StartDate)
		if !validDate(start) {
			start = t.today
		}
		end := strings.TrimSpace(in.EndDate)
		if !validDate(end) || end < start {
			s, _ := time.Parse(store.DateLayout, start)
			end = s.Add(store.DefaultGoalSpan).Format(store.DateLayout)
		}
		progress := min(max(in.Progress, 0), 100)
		created := legacyTime(in.CreatedAt, t.now)

		g := &store.Goal{
			ID:          t.claim("", "goal", in.ID),
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			StartDate:   start,
			EndDate:     end,
			Progress:    progress,
			CategoryID:  CategoryFor(in.Category),
			CreatedAt:   created,
			UpdatedAt:   created,
		}

		done, total := 0, 0
		for j, sub := range in.SubGoals {
			if strings.TrimSpace(sub.Title) == "" {
				t.skipped++
				continue
			}
			order := sub.Order
			if order == 0 {
				order = j + 1
			}
			due := strings.TrimSpace(sub.DueDate)
			if !validDate(due) {
				due = ""
			}
			completed := sub.Completed || sub.IsCompleted
			t.data.SubGoals = append(t.data.SubGoals, &store.SubGoal{
				ID:          store.NewID("sub"),
				GoalID:      g.ID,
				Title:       strings.TrimSpace(sub.Title),
				Description: sub.Description,
				DueDate:     due,
				IsCompleted: completed,
				Order:       order,
				CreatedAt:   created,
				UpdatedAt:   created,
			})
			total++
			if completed {
				done++
			}
		}
		if total > 0 {
			g.Progress = int(math.Round(100 * float64(done) / float64(total)))
		}
		t.data.Goals = append(t.data.Goals, g)
	}
}

func (t *transformer) habits(list []any) {
	for _, item := range list {
		var in legacyHabit
		if err := decode(item, &in); err != nil {
			t.skipped++
			continue
		}
		title := firstNonEmpty(in.Name, in.Title)
		if title == "" {
			t.skipped++
			continue
		}
		active := true
		if in.Active != nil {
			active = *in.Active
		}
		icon := in.Icon
		if icon == "" {
			icon = "✅"
		}
		h := &store.Habit{
			ID:         t.claim("", "habit", in.ID),
			Title:      title,
			CategoryID: CategoryFor(in.Category),
			Icon:       icon,
			IsActive:   active,
			CreatedAt:  legacyTime(in.CreatedAt, t.now),
		}
		t.data.Habits = append(t.data.Habits, h)

		seen := map[string]bool{}
		for _, d := range in.CheckedDates {
			d = strings.TrimSpace(d)
			if len(d) > len(store.DateLayout) {
				d = d[:len(store.DateLayout)]
			}
			if !validDate(d) || seen[d] {
				continue
			}
			seen[d] = true
			t.data.HabitLogs = append(t.data.HabitLogs, &store.HabitLog{
				ID:          store.NewID("log"),
				HabitID:     h.ID,
				Date:        d,
				IsCompleted: true,
				CreatedAt:   t.now,
			})
		}
	}
}

func (t *transformer) theme(raw string) bool {
	theme := parseTheme(raw)
	for _, allowed := range store.Themes {
		if theme == allowed {
			t.data.Settings.Theme = theme
			return true
		}
	}
	return false
}

