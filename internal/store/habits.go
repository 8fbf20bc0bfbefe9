package store

import (
	"math"
	"strings"
)

// streakLookback bounds how far HabitStreak walks back.
const streakLookback = 365

type HabitPatch struct {
	Title      *string
	CategoryID *string
	Icon       *string
	IsActive   *bool
}

func (p HabitPatch) apply(h *Habit) {
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.CategoryID != nil {
		h.CategoryID = *p.CategoryID
	}
	if p.Icon != nil {
		h.Icon = *p.Icon
	}
	if p.IsActive != nil {
		h.IsActive = *p.IsActive
	}
}

func habitKey(h *Habit) string { return h.ID }

func (s *Store) validateHabitLocked(h *Habit) error {
	h.Title = strings.TrimSpace(h.Title)
	if h.Title == "" {
		return invalid("habit title is required")
	}
	h.CategoryID = s.categoryLocked(h.CategoryID)
	return nil
}

// AddHabit stores a new habit. New habits are always active whatever
// in.IsActive says; use UpdateHabit to pause one.
func (s *Store) AddHabit(in Habit) (*Habit, error) {
	var out *Habit
	err := s.mutate("add habit", func() ([]notice, error) {
		h := in.clone()
		if err := s.validateHabitLocked(h); err != nil {
			return nil, err
		}
		if h.Icon == "" {
			h.Icon = "✅"
		}
		h.ID = NewID("habit")
		h.IsActive = true
		h.CreatedAt = s.stamp()

		s.data.Habits = append(s.data.Habits, h)
		out = h.clone()
		return []notice{added(CollectionHabits, h.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateHabit(id string, p HabitPatch) (*Habit, error) {
	var out *Habit
	err := s.mutate("update habit", func() ([]notice, error) {
		i := indexOf(s.data.Habits, id, habitKey)
		if i < 0 {
			return nil, notFound("habit", id)
		}
		h := s.data.Habits[i]
		next := h.clone()
		p.apply(next)
		if err := s.validateHabitLocked(next); err != nil {
			return nil, err
		}
		*h = *next
		out = h.clone()
		return []notice{updated(CollectionHabits, h.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteHabit removes the habit and all of its logs.
func (s *Store) DeleteHabit(id string) error {
	return s.mutate("delete habit", func() ([]notice, error) {
		i := indexOf(s.data.Habits, id, habitKey)
		if i < 0 {
			return nil, notFound("habit", id)
		}
		s.data.Habits = removeAt(s.data.Habits, i)

		var removed []string
		kept := s.data.HabitLogs[:0:0]
		for _, l := range s.data.HabitLogs {
			if l.HabitID == id {
				removed = append(removed, l.ID)
				continue
			}
			kept = append(kept, l)
		}
		s.data.HabitLogs = kept
		s.logsByHabit.RemoveKey(id)

		notices := []notice{deleted(CollectionHabits, DeleteRef{ID: id})}
		if len(removed) > 0 {
			notices = append(notices, deleted(CollectionHabitLogs, CascadeRef{ParentID: id, IDs: removed}))
		}
		return notices, nil
	})
}

func (s *Store) GetHabit(id string) (*Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.Habits, id, habitKey)
	if i < 0 {
		return nil, notFound("habit", id)
	}
	return s.data.Habits[i].clone(), nil
}

func (s *Store) Habits() []Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.Habits, (*Habit).clone)
}

func (s *Store) ActiveHabits() []Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Habit
	for _, h := range s.data.Habits {
		if h.IsActive {
			out = append(out, *h.clone())
		}
	}
	return out
}

func (s *Store) findLogLocked(habitID, date string) *HabitLog {
	for _, l := range s.logsByHabit.Get(habitID) {
		if l.Date == date {
			return l
		}
	}
	return nil
}

// ToggleHabitLog flips the (habitID, date) record, creating a completed one
// when none exists. An empty date means today.
func (s *Store) ToggleHabitLog(habitID, date string) (*HabitLog, error) {
	var out *HabitLog
	err := s.mutate("toggle habit log", func() ([]notice, error) {
		if indexOf(s.data.Habits, habitID, habitKey) < 0 {
			return nil, notFound("habit", habitID)
		}
		if date == "" {
			date = s.today()
		}
		if err := checkDate("date", date); err != nil {
			return nil, err
		}

		if l := s.findLogLocked(habitID, date); l != nil {
			l.IsCompleted = !l.IsCompleted
			out = l.clone()
			return []notice{updated(CollectionHabitLogs, l.clone())}, nil
		}

		l := &HabitLog{
			ID:          NewID("log"),
			HabitID:     habitID,
			Date:        date,
			IsCompleted: true,
			CreatedAt:   s.stamp(),
		}
		s.data.HabitLogs = append(s.data.HabitLogs, l)
		s.logsByHabit.Put(l)
		out = l.clone()
		return []notice{added(CollectionHabitLogs, l.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetHabitLog returns the log of habitID on date.
func (s *Store) GetHabitLog(habitID, date string) (*HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l := s.findLogLocked(habitID, date); l != nil {
		return l.clone(), nil
	}
	return nil, notFound("habit log", habitID+"@"+date)
}

// HabitLogs returns every log of a habit in insertion order.
func (s *Store) HabitLogs(habitID string) []HabitLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.logsByHabit.Get(habitID), (*HabitLog).clone)
}

// IsHabitDone reports whether habitID has a completed log on date.
func (s *Store) IsHabitDone(habitID, date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.findLogLocked(habitID, date)
	return l != nil && l.IsCompleted
}

func (s *Store) completedDatesLocked(habitID string) map[string]bool {
	done := make(map[string]bool)
	for _, l := range s.logsByHabit.Get(habitID) {
		if l.IsCompleted {
			done[l.Date] = true
		}
	}
	return done
}

// HabitStreak counts consecutive completed days walking back from today,
// stopping at the first day without a completed log.
func (s *Store) HabitStreak(habitID string) int {
	s.mu.Lock()
	done := s.completedDatesLocked(habitID)
	s.mu.Unlock()

	day := s.now()
	streak := 0
	for streak < streakLookback && done[day.Format(DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// HabitCompletionRate returns the percentage of the trailing days-long window,
// today included, on which the habit was completed.
func (s *Store) HabitCompletionRate(habitID string, days int) int {
	if days <= 0 {
		return 0
	}
	s.mu.Lock()
	done := s.completedDatesLocked(habitID)
	s.mu.Unlock()

	day := s.now()
	count := 0
	for i := 0; i < days; i++ {
		if done[day.AddDate(0, 0, -i).Format(DateLayout)] {
			count++
		}
	}
	return int(math.Round(100 * float64(count) / float64(days)))
}

// HabitHistory returns, oldest first, whether the habit was completed on each
// of the trailing days, today included.
func (s *Store) HabitHistory(habitID string, days int) []bool {
	if days <= 0 {
		return nil
	}
	s.mu.Lock()
	done := s.completedDatesLocked(habitID)
	s.mu.Unlock()

	out := make([]bool, days)
	today := s.now()
	for i := 0; i < days; i++ {
		out[days-1-i] = done[today.AddDate(0, 0, -i).Format(DateLayout)]
	}
	return out
}
