// Package migrate moves data from the fragmented legacy key layout into the
// unified envelope under store.DataKey. A run snapshots every key first and
// restores that snapshot when any later step fails.
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/daybook/internal/storage"
	"github.com/sadopc/daybook/internal/store"
)

const (
	// BackupKey holds the pre-migration snapshot of every key.
	BackupKey = "daybook_migration_backup"
	// ArchiveSuffix is appended to a legacy key once it has been migrated.
	ArchiveSuffix = "_old"
)

// ErrValidation is returned when the transformed envelope fails its checks.
var ErrValidation = errors.New("migration validation failed")

type State int

const (
	Clean State = iota
	NeedsMigration
	Migrating
	Migrated
	RolledBack
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case NeedsMigration:
		return "needs-migration"
	case Migrating:
		return "migrating"
	case Migrated:
		return "migrated"
	case RolledBack:
		return "rolled-back"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Report summarizes a finished run.
type Report struct {
	Tasks          int
	FixedSchedules int
	Goals          int
	SubGoals       int
	Habits         int
	HabitLogs      int
	Skipped        int
	Archived       []string
}

type Engine struct {
	backend storage.Backend
	logger  *slog.Logger
	now     func() time.Time
	state   State
	report  Report

	// afterTransform, when set, sees the envelope before validation.
	afterTransform func(*store.AppData)
}

// New returns an engine over backend with its state detected from the
// current keys.
func New(backend storage.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "migrate")
	e.state = e.detect()
	return e
}

func (e *Engine) detect() State {
	if e.NeedsMigration() {
		return NeedsMigration
	}
	return Clean
}

func (e *Engine) State() State { return e.state }

// Report returns the summary of the last successful run.
func (e *Engine) Report() Report { return e.report }

// NeedsMigration reports whether the unified key is absent and at least one
// legacy key is present.
func (e *Engine) NeedsMigration() bool {
	if _, ok, err := e.backend.Get(store.DataKey); err != nil || ok {
		return false
	}
	return len(e.presentLegacyKeys()) > 0
}

func (e *Engine) presentLegacyKeys() []string {
	var present []string
	for _, k := range LegacyKeys {
		if _, ok, err := e.backend.Get(k); err == nil && ok {
			present = append(present, k)
		}
	}
	return present
}

// Migrate runs the migration when one is needed. A nil error means the data
// was migrated or there was nothing to do. On failure every key is restored
// from the snapshot and the returned error describes both the failure and,
// if it happened, the rollback failure.
func (e *Engine) Migrate() error {
	if !e.NeedsMigration() {
		e.logger.Debug("nothing to migrate", "state", e.state)
		return nil
	}
	e.state = Migrating
	e.logger.Info("migration started")

	// 1. snapshot
	snapshot, err := storage.Snapshot(e.backend)
	if err != nil {
		e.state = NeedsMigration
		return fmt.Errorf("snapshot keys: %w", err)
	}
	delete(snapshot, BackupKey)
	raw, err := json.Marshal(snapshot)
	if err != nil {
		e.state = NeedsMigration
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := e.backend.Set(BackupKey, string(raw)); err != nil {
		return e.fail(snapshot, fmt.Errorf("write backup: %w", err))
	}
	e.logger.Info("backup written", "key", BackupKey, "keys", len(snapshot))

	// 2-3. load and transform
	data, skipped := e.transform(snapshot)
	if e.afterTransform != nil {
		e.afterTransform(data)
	}

	// 4. validate
	if err := Validate(data); err != nil {
		return e.fail(snapshot, err)
	}

	// 5. commit and archive
	envelope, err := json.Marshal(data)
	if err != nil {
		return e.fail(snapshot, fmt.Errorf("encode envelope: %w", err))
	}
	if err := e.backend.Set(store.DataKey, string(envelope)); err != nil {
		return e.fail(snapshot, fmt.Errorf("write %s: %w", store.DataKey, err))
	}
	archived, err := e.archive(snapshot)
	if err != nil {
		return e.fail(snapshot, err)
	}

	e.state = Migrated
	e.report = Report{
		Tasks:          len(data.Tasks),
		FixedSchedules: len(data.FixedSchedules),
		Goals:          len(data.Goals),
		SubGoals:       len(data.SubGoals),
		Habits:         len(data.Habits),
		HabitLogs:      len(data.HabitLogs),
		Skipped:        skipped,
		Archived:       archived,
	}
	e.logger.Info("migration complete",
		"tasks", e.report.Tasks,
		"schedules", e.report.FixedSchedules,
		"goals", e.report.Goals,
		"habits", e.report.Habits,
		"skipped", skipped,
		"archived", len(archived))
	return nil
}

func (e *Engine) transform(snapshot map[string]string) (*store.AppData, int) {
	t := newTransformer(e.now())
	list := func(key string) []any {
		raw, ok := snapshot[key]
		if !ok {
			return nil
		}
		items, err := parseList(raw)
		if err != nil {
			e.logger.Warn("legacy key unreadable, treating as empty", "key", key, "error", err)
			return nil
		}
		e.logger.Debug("legacy key loaded", "key", key, "records", len(items))
		return items
	}

	t.todos(list(KeyTodos))
	t.events(eventPrefix, list(KeyEvents))
	t.events(calendarPrefix, list(KeyCalendarEvents))
	t.slots(list(KeyTimetable))
	t.slots(list(KeyWeeklySchedule))
	t.goals(list(KeyGoals))
	t.habits(list(KeyHabits))

	if raw, ok := snapshot[KeyTheme]; ok && !t.theme(raw) {
		e.logger.Warn("legacy theme not recognized, keeping default", "value", raw)
	}
	if _, ok := snapshot[KeyBudgets]; ok {
		e.logger.Info("legacy budgets discarded", "key", KeyBudgets)
	}
	if t.skipped > 0 {
		e.logger.Warn("legacy records skipped", "count", t.skipped)
	}
	return t.data, t.skipped
}

// archive copies each legacy key to <key>_old and removes the original.
func (e *Engine) archive(snapshot map[string]string) ([]string, error) {
	var archived []string
	for _, k := range LegacyKeys {
		v, ok := snapshot[k]
		if !ok {
			continue
		}
		if err := e.backend.Set(k+ArchiveSuffix, v); err != nil {
			return archived, fmt.Errorf("archive %s: %w", k, err)
		}
		if err := e.backend.Remove(k); err != nil {
			return archived, fmt.Errorf("remove %s: %w", k, err)
		}
		archived = append(archived, k)
	}
	return archived, nil
}

func (e *Engine) fail(snapshot map[string]string, cause error) error {
	e.logger.Error("migration failed, rolling back", "error", cause)
	if err := e.rollback(snapshot); err != nil {
		e.logger.Error("rollback failed", "error", err)
		e.state = RolledBack
		return errors.Join(cause, fmt.Errorf("rollback: %w", err))
	}
	e.state = RolledBack
	e.logger.Info("rollback complete")
	return cause
}

// rollback restores every key from snapshot and removes keys written since,
// keeping the backup record for diagnosis.
func (e *Engine) rollback(snapshot map[string]string) error {
	keys, err := e.backend.Keys()
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	var errs []error
	for _, k := range keys {
		if _, ok := snapshot[k]; ok || k == BackupKey {
			continue
		}
		if err := e.backend.Remove(k); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", k, err))
		}
	}
	restore := make([]string, 0, len(snapshot))
	for k := range snapshot {
		restore = append(restore, k)
	}
	sort.Strings(restore)
	for _, k := range restore {
		if err := e.backend.Set(k, snapshot[k]); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Backup returns the snapshot stored by the last run, if any.
func (e *Engine) Backup() (map[string]string, bool, error) {
	raw, ok, err := e.backend.Get(BackupKey)
	if err != nil || !ok {
		return nil, ok, err
	}
	var snapshot map[string]string
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, true, fmt.Errorf("decode backup: %w", err)
	}
	return snapshot, true, nil
}

// Purge deletes every archived legacy key and the backup record. It returns
// the keys it removed.
func (e *Engine) Purge() ([]string, error) {
	keys, err := e.backend.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	legacy := make(map[string]bool, len(LegacyKeys))
	for _, k := range LegacyKeys {
		legacy[k] = true
	}
	var removed []string
	for _, k := range keys {
		archivedLegacy := strings.HasSuffix(k, ArchiveSuffix) && legacy[strings.TrimSuffix(k, ArchiveSuffix)]
		if !archivedLegacy && k != BackupKey {
			continue
		}
		if err := e.backend.Remove(k); err != nil {
			return removed, fmt.Errorf("remove %s: %w", k, err)
		}
		removed = append(removed, k)
	}
	e.logger.Info("legacy archives purged", "keys", len(removed))
	return removed, nil
}

// Validate checks the structural shape of an envelope as it will be written.
func Validate(d *store.AppData) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrValidation, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrValidation, err)
	}

	for _, field := range []string{"version", "lastUpdated", "settings"} {
		if v, ok := doc[field]; !ok || v == nil || v == "" {
			return fmt.Errorf("%w: missing %s", ErrValidation, field)
		}
	}
	for _, c := range store.Collections {
		if _, ok := doc[c].([]any); !ok {
			return fmt.Errorf("%w: %s is not an array", ErrValidation, c)
		}
	}
	if cats := doc[store.CollectionCategories].([]any); len(cats) == 0 {
		return fmt.Errorf("%w: no categories", ErrValidation)
	}
	for i, item := range doc[store.CollectionTasks].([]any) {
		task, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: task %d is not an object", ErrValidation, i)
		}
		for _, field := range []string{"id", "title", "date"} {
			if s, _ := task[field].(string); s == "" {
				return fmt.Errorf("%w: task %d has no %s", ErrValidation, i, field)
			}
		}
	}
	return nil
}
