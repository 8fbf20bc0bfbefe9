package store

import "time"

// SchemaVersion is the version written into every persisted envelope.
const SchemaVersion = "1.0"

// DefaultCategoryID is the category that can never be deleted and that
// orphaned records fall back to.
const DefaultCategoryID = "cat_other"

// Date and clock layouts used by every date/time string field.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Collection names used for notifications.
const (
	CollectionTasks          = "tasks"
	CollectionFixedSchedules = "fixedSchedules"
	CollectionGoals          = "goals"
	CollectionSubGoals       = "subGoals"
	CollectionHabits         = "habits"
	CollectionHabitLogs      = "habitLogs"
	CollectionIdeas          = "ideas"
	CollectionFocusSessions  = "focusSessions"
	CollectionCategories     = "categories"
	CollectionSettings       = "settings"
)

// Collections lists every collection in envelope order.
var Collections = []string{
	CollectionCategories,
	CollectionTasks,
	CollectionFixedSchedules,
	CollectionGoals,
	CollectionSubGoals,
	CollectionHabits,
	CollectionHabitLogs,
	CollectionIdeas,
	CollectionFocusSessions,
}

// AppData is the whole persisted data graph.
type AppData struct {
	Version        string           `json:"version"`
	LastUpdated    time.Time        `json:"lastUpdated"`
	UserID         *string          `json:"userId"`
	Settings       *Settings        `json:"settings"`
	Categories     []*Category      `json:"categories"`
	Tasks          []*Task          `json:"tasks"`
	FixedSchedules []*FixedSchedule `json:"fixedSchedules"`
	Goals          []*Goal          `json:"goals"`
	SubGoals       []*SubGoal       `json:"subGoals"`
	Habits         []*Habit         `json:"habits"`
	HabitLogs      []*HabitLog      `json:"habitLogs"`
	Ideas          []*Idea          `json:"ideas"`
	FocusSessions  []*FocusSession  `json:"focusSessions"`
}

type Settings struct {
	Theme           string     `json:"theme"`
	DefaultView     string     `json:"defaultView"`
	WeatherLocation string     `json:"weatherLocation"`
	BackupEnabled   bool       `json:"backupEnabled"`
	LastBackup      *time.Time `json:"lastBackup"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	IsDefault bool   `json:"isDefault"`
}

// Task is either an untimed to-do or a timed event on a single date.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	Date        string    `json:"date"`
	StartTime   *string   `json:"startTime"`
	EndTime     *string   `json:"endTime"`
	IsCompleted bool      `json:"isCompleted"`
	IsAllDay    bool      `json:"isAllDay"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FixedSchedule is a recurring weekly time block. DayOfWeek uses 0 for Sunday.
type FixedSchedule struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CategoryID string    `json:"categoryId"`
	DayOfWeek  []int     `json:"dayOfWeek"`
	StartTime  string    `json:"startTime"`
	EndTime    string    `json:"endTime"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Progress    int       `json:"progress"` // derived from subgoals
	CategoryID  string    `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type SubGoal struct {
	ID          string    `json:"id"`
	GoalID      string    `json:"goalId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	StartTime   *string   `json:"startTime"`
	EndTime     *string   `json:"endTime"`
	IsCompleted bool      `json:"isCompleted"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Habit struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CategoryID string    `json:"categoryId"`
	Icon       string    `json:"icon"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HabitLog is the completion record of one habit on one date.
type HabitLog struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habitId"`
	Date        string    `json:"date"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Idea struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"isPinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FocusSession struct {
	ID              string     `json:"id"`
	TaskID          *string    `json:"taskId"`
	Date            string     `json:"date"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt"`
	DurationMinutes int        `json:"durationMinutes"`
	IsCompleted     bool       `json:"isCompleted"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// DeleteRef is the payload of a delete notification.
type DeleteRef struct {
	ID string
}

// CascadeRef is the payload of the secondary notification fired on a
// collection whose records were removed or reassigned by another mutation.
type CascadeRef struct {
	ParentID string
	IDs      []string
}

// ReloadRef is the payload of the per-collection notification fired by ImportData.
type ReloadRef struct {
	Count int
}

// DefaultCategories returns the categories seeded into a new envelope.
func DefaultCategories() []*Category {
	return []*Category{
		{ID: "cat_work", Name: "업무", Color: "#3498DB", Icon: "💼"},
		{ID: "cat_study", Name: "공부", Color: "#9B59B6", Icon: "📚"},
		{ID: "cat_personal", Name: "개인", Color: "#2ECC71", Icon: "🏠"},
		{ID: "cat_health", Name: "운동", Color: "#E74C3C", Icon: "💪"},
		{ID: DefaultCategoryID, Name: "기타", Color: "#95A5A6", Icon: "📌", IsDefault: true},
	}
}

// DefaultSettings returns the settings of a new envelope.
func DefaultSettings() *Settings {
	return &Settings{
		Theme:           "light",
		DefaultView:     "today",
		WeatherLocation: "Seoul",
	}
}

// NewAppData returns an empty envelope with default settings and categories.
func NewAppData(now time.Time) *AppData {
	return &AppData{
		Version:        SchemaVersion,
		LastUpdated:    now,
		Settings:       DefaultSettings(),
		Categories:     DefaultCategories(),
		Tasks:          []*Task{},
		FixedSchedules: []*FixedSchedule{},
		Goals:          []*Goal{},
		SubGoals:       []*SubGoal{},
		Habits:         []*Habit{},
		HabitLogs:      []*HabitLog{},
		Ideas:          []*Idea{},
		FocusSessions:  []*FocusSession{},
	}
}
