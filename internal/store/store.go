package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/daybook/internal/bus"
	"github.com/sadopc/daybook/internal/index"
	"github.com/sadopc/daybook/internal/storage"
)

// DataKey is the backend key holding the serialized AppData envelope.
const DataKey = "daybook_data"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBus attaches an existing notification bus instead of a private one.
func WithBus(b *bus.Bus) Option {
	return func(s *Store) {
		if b != nil {
			s.bus = b
		}
	}
}

// Store owns the canonical data graph. Every mutation writes the whole
// envelope through to the backend and then notifies the bus.
//
// Handlers run after the data lock is released, so they may read from the
// store. A handler that mutates the store or calls Notify does not block:
// its notices are queued and delivered once the current ones are done.
type Store struct {
	mu sync.Mutex

	// pending is filled under mu so that notices leave in mutation order.
	// Whichever caller finds delivering unset drains it.
	qmu        sync.Mutex
	pending    []notice
	delivering bool

	backend storage.Backend
	bus     *bus.Bus
	logger  *slog.Logger
	now     func() time.Time

	data           *AppData
	tasksByDate    *index.Group[Task]
	subGoalsByGoal *index.Group[SubGoal]
	logsByHabit    *index.Group[HabitLog]
}

type notice struct {
	collection string
	change     bus.Change
}

func added(collection string, data any) notice {
	return notice{collection, bus.Change{Type: bus.ChangeAdd, Data: data}}
}

func updated(collection string, data any) notice {
	return notice{collection, bus.Change{Type: bus.ChangeUpdate, Data: data}}
}

func deleted(collection string, data any) notice {
	return notice{collection, bus.Change{Type: bus.ChangeDelete, Data: data}}
}

// Open loads the envelope from backend, seeding defaults when it is absent.
// A stored envelope that cannot be parsed is set aside under DataKey+"_corrupt"
// and replaced with defaults.
func Open(backend storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		now:     time.Now,
		tasksByDate: index.NewGroup(
			func(t *Task) string { return t.Date },
			func(t *Task) string { return t.ID }),
		subGoalsByGoal: index.NewGroup(
			func(sg *SubGoal) string { return sg.GoalID },
			func(sg *SubGoal) string { return sg.ID }),
		logsByHabit: index.NewGroup(
			func(l *HabitLog) string { return l.HabitID },
			func(l *HabitLog) string { return l.ID }),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	if s.bus == nil {
		s.bus = bus.New(s.logger)
	}

	raw, ok, err := backend.Get(DataKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DataKey, err)
	}

	switch {
	case !ok:
		s.data = NewAppData(s.stamp())
		s.logger.Info("seeded default data")
		s.writeLocked()
	default:
		var d AppData
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			s.logger.Warn("stored data unreadable, starting from defaults", "error", err)
			if err := backend.Set(DataKey+"_corrupt", raw); err != nil {
				s.logger.Error("set aside corrupt data", "error", err)
			}
			s.data = NewAppData(s.stamp())
			s.writeLocked()
		} else {
			s.data = &d
			normalize(s.data, s.stamp())
		}
	}

	s.rebuildIndexesLocked()
	s.logger.Debug("store opened",
		"tasks", len(s.data.Tasks),
		"goals", len(s.data.Goals),
		"habits", len(s.data.Habits))
	return s, nil
}

// normalize repairs structural gaps in a loaded or imported envelope.
func normalize(d *AppData, now time.Time) {
	if d.Version == "" {
		d.Version = SchemaVersion
	}
	if d.LastUpdated.IsZero() {
		d.LastUpdated = now
	}
	if d.Settings == nil {
		d.Settings = DefaultSettings()
	}
	d.Categories = compact(d.Categories)
	hasDefault := false
	for _, c := range d.Categories {
		if c.ID == DefaultCategoryID {
			c.IsDefault = true
			hasDefault = true
		}
	}
	if !hasDefault {
		for _, c := range DefaultCategories() {
			if c.ID == DefaultCategoryID {
				d.Categories = append(d.Categories, c)
			}
		}
	}
	d.Tasks = compact(d.Tasks)
	d.FixedSchedules = compact(d.FixedSchedules)
	d.Goals = compact(d.Goals)
	d.SubGoals = compact(d.SubGoals)
	d.Habits = compact(d.Habits)
	d.HabitLogs = compact(d.HabitLogs)
	d.Ideas = compact(d.Ideas)
	d.FocusSessions = compact(d.FocusSessions)
}

// compact drops null entries from a decoded collection and never returns nil.
func compact[T any](items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) rebuildIndexesLocked() {
	s.tasksByDate.Rebuild(s.data.Tasks)
	s.subGoalsByGoal.Rebuild(s.data.SubGoals)
	s.logsByHabit.Rebuild(s.data.HabitLogs)
}

// RebuildIndexes re-derives every index from the canonical collections.
func (s *Store) RebuildIndexes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildIndexesLocked()
}

// Bus returns the notification bus the store publishes to.
func (s *Store) Bus() *bus.Bus {
	return s.bus
}

// Subscribe registers fn for changes on collection.
func (s *Store) Subscribe(collection string, fn bus.Handler) bus.Subscription {
	return s.bus.Subscribe(collection, fn)
}

func (s *Store) Unsubscribe(collection, id string) {
	s.bus.Unsubscribe(collection, id)
}

// Notify publishes an out-of-band change, ordered with store mutations.
// Called from a handler, the change is delivered after the current one.
func (s *Store) Notify(collection string, c bus.Change) {
	s.enqueue([]notice{{collection, c}})
	s.deliver()
}

func (s *Store) enqueue(ns []notice) {
	s.qmu.Lock()
	s.pending = append(s.pending, ns...)
	s.qmu.Unlock()
}

// deliver drains the pending queue unless another call is already doing so,
// either further up this stack or on another goroutine.
func (s *Store) deliver() {
	s.qmu.Lock()
	if s.delivering {
		s.qmu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		n := s.pending[0]
		s.pending = s.pending[1:]
		s.qmu.Unlock()
		s.bus.Notify(n.collection, n.change)
		s.qmu.Lock()
	}
	s.delivering = false
	s.qmu.Unlock()
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func (s *Store) today() string {
	return s.now().Format(DateLayout)
}

// mutate runs fn under the store lock. On success the envelope is written
// through and the returned notices are delivered in order.
func (s *Store) mutate(op string, fn func() ([]notice, error)) error {
	s.mu.Lock()
	notices, err := fn()
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug(op+": no such record", "error", err)
		} else {
			s.logger.Warn(op+" rejected", "error", err)
		}
		return err
	}
	s.persistLocked()
	s.enqueue(notices)
	s.mu.Unlock()

	s.deliver()
	return nil
}

// persistLocked refreshes lastUpdated and writes the envelope. Write failures
// are logged only; the in-memory graph stays authoritative.
func (s *Store) persistLocked() {
	s.data.LastUpdated = s.stamp()
	s.writeLocked()
}

func (s *Store) writeLocked() {
	raw, err := json.Marshal(s.data)
	if err != nil {
		s.logger.Error("serialize data", "error", err)
		return
	}
	if err := s.backend.Set(DataKey, string(raw)); err != nil {
		s.logger.Error("write-through failed", "key", DataKey, "error", err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func indexOf[T any](items []*T, id string, idOf func(*T) string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}

func removeAt[T any](items []*T, i int) []*T {
	return append(items[:i:i], items[i+1:]...)
}

func checkDate(field, v string) error {
	if _, err := time.Parse(DateLayout, v); err != nil {
		return invalid("%s %q is not a YYYY-MM-DD date", field, v)
	}
	return nil
}

func checkClock(field, v string) error {
	if _, err := time.Parse(ClockLayout, v); err != nil {
		return invalid("%s %q is not an HH:MM time", field, v)
	}
	return nil
}

// blankToNil turns a pointer to an empty string into nil.
func blankToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}

// checkTimeRange enforces the both-or-neither rule for optional start/end times.
func checkTimeRange(start, end *string) error {
	if (start == nil) != (end == nil) {
		return invalid("startTime and endTime must be set together")
	}
	if start == nil {
		return nil
	}
	if err := checkClock("startTime", *start); err != nil {
		return err
	}
	return checkClock("endTime", *end)
}

// categoryLocked returns id if it names an existing category, otherwise the default.
func (s *Store) categoryLocked(id string) string {
	if id != "" && indexOf(s.data.Categories, id, categoryID) >= 0 {
		return id
	}
	return DefaultCategoryID
}

func categoryID(c *Category) string { return c.ID }
