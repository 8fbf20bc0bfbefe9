package store

import (
	"sort"
	"strings"
	"time"
)

type FixedSchedulePatch struct {
	Title      *string
	CategoryID *string
	DayOfWeek  []int // nil leaves the days unchanged
	StartTime  *string
	EndTime    *string
	IsActive   *bool
}

func (p FixedSchedulePatch) apply(f *FixedSchedule) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	if p.DayOfWeek != nil {
		f.DayOfWeek = cloneSlice(p.DayOfWeek)
	}
	if p.StartTime != nil {
		f.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		f.EndTime = *p.EndTime
	}
	if p.IsActive != nil {
		f.IsActive = *p.IsActive
	}
}

func scheduleID(f *FixedSchedule) string { return f.ID }

// normalizeDays sorts and de-duplicates weekday indices.
func normalizeDays(days []int) ([]int, error) {
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, invalid("dayOfWeek %d is outside 0-6", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, invalid("dayOfWeek must name at least one day")
	}
	sort.Ints(out)
	return out, nil
}

func (s *Store) validateScheduleLocked(f *FixedSchedule) error {
	f.Title = strings.TrimSpace(f.Title)
	if f.Title == "" {
		return invalid("schedule title is required")
	}
	days, err := normalizeDays(f.DayOfWeek)
	if err != nil {
		return err
	}
	f.DayOfWeek = days
	if err := checkClock("startTime", f.StartTime); err != nil {
		return err
	}
	if err := checkClock("endTime", f.EndTime); err != nil {
		return err
	}
	f.CategoryID = s.categoryLocked(f.CategoryID)
	return nil
}

// AddFixedSchedule stores a new weekly block. Missing times default to
// 09:00-10:00 and new schedules are always active.
func (s *Store) AddFixedSchedule(in FixedSchedule) (*FixedSchedule, error) {
	var out *FixedSchedule
	err := s.mutate("add schedule", func() ([]notice, error) {
		f := in.clone()
		if f.StartTime == "" {
			f.StartTime = "09:00"
		}
		if f.EndTime == "" {
			f.EndTime = "10:00"
		}
		f.IsActive = true
		if err := s.validateScheduleLocked(f); err != nil {
			return nil, err
		}
		now := s.stamp()
		f.ID = NewID("sched")
		f.CreatedAt = now
		f.UpdatedAt = now

		s.data.FixedSchedules = append(s.data.FixedSchedules, f)
		out = f.clone()
		return []notice{added(CollectionFixedSchedules, f.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateFixedSchedule(id string, p FixedSchedulePatch) (*FixedSchedule, error) {
	var out *FixedSchedule
	err := s.mutate("update schedule", func() ([]notice, error) {
		i := indexOf(s.data.FixedSchedules, id, scheduleID)
		if i < 0 {
			return nil, notFound("schedule", id)
		}
		f := s.data.FixedSchedules[i]
		next := f.clone()
		p.apply(next)
		if err := s.validateScheduleLocked(next); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.stamp()
		*f = *next
		out = f.clone()
		return []notice{updated(CollectionFixedSchedules, f.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteFixedSchedule(id string) error {
	return s.mutate("delete schedule", func() ([]notice, error) {
		i := indexOf(s.data.FixedSchedules, id, scheduleID)
		if i < 0 {
			return nil, notFound("schedule", id)
		}
		s.data.FixedSchedules = removeAt(s.data.FixedSchedules, i)
		return []notice{deleted(CollectionFixedSchedules, DeleteRef{ID: id})}, nil
	})
}

func (s *Store) GetFixedSchedule(id string) (*FixedSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.FixedSchedules, id, scheduleID)
	if i < 0 {
		return nil, notFound("schedule", id)
	}
	return s.data.FixedSchedules[i].clone(), nil
}

func (s *Store) FixedSchedules() []FixedSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.FixedSchedules, (*FixedSchedule).clone)
}

// ActiveSchedules returns the schedules whose isActive flag is set.
func (s *Store) ActiveSchedules() []FixedSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []FixedSchedule
	for _, f := range s.data.FixedSchedules {
		if f.IsActive {
			out = append(out, *f.clone())
		}
	}
	return out
}

// SchedulesForDay returns the active schedules on weekday, ordered by start time.
func (s *Store) SchedulesForDay(day time.Weekday) []FixedSchedule {
	s.mu.Lock()
	var out []FixedSchedule
	for _, f := range s.data.FixedSchedules {
		if !f.IsActive {
			continue
		}
		for _, d := range f.DayOfWeek {
			if d == int(day) {
				out = append(out, *f.clone())
				break
			}
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}
