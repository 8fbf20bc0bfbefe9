package store

import "time"

// FocusSessionPatch changes a focus session. Setting EndedAt without
// DurationMinutes derives the duration from StartedAt.
type FocusSessionPatch struct {
	TaskID          *string // "" detaches the task
	EndedAt         *time.Time
	DurationMinutes *int
	IsCompleted     *bool
}

func (p FocusSessionPatch) apply(f *FocusSession) {
	if p.TaskID != nil {
		f.TaskID = blankToNil(cloneStr(p.TaskID))
	}
	if p.EndedAt != nil {
		f.EndedAt = cloneTime(p.EndedAt)
		if p.DurationMinutes == nil {
			f.DurationMinutes = int(p.EndedAt.Sub(f.StartedAt).Minutes())
		}
	}
	if p.DurationMinutes != nil {
		f.DurationMinutes = *p.DurationMinutes
	}
	if p.IsCompleted != nil {
		f.IsCompleted = *p.IsCompleted
	}
}

func focusID(f *FocusSession) string { return f.ID }

func (s *Store) validateFocusLocked(f *FocusSession) error {
	if err := checkDate("date", f.Date); err != nil {
		return err
	}
	if f.DurationMinutes < 0 {
		return invalid("durationMinutes %d is negative", f.DurationMinutes)
	}
	if f.EndedAt != nil && f.EndedAt.Before(f.StartedAt) {
		return invalid("endedAt is before startedAt")
	}
	f.TaskID = blankToNil(f.TaskID)
	if f.TaskID != nil && indexOf(s.data.Tasks, *f.TaskID, taskID) < 0 {
		return invalid("focus session references unknown task %q", *f.TaskID)
	}
	return nil
}

// AddFocusSession records a focus session. StartedAt defaults to now and Date
// to StartedAt's local date.
func (s *Store) AddFocusSession(in FocusSession) (*FocusSession, error) {
	var out *FocusSession
	err := s.mutate("add focus session", func() ([]notice, error) {
		f := in.clone()
		if f.StartedAt.IsZero() {
			f.StartedAt = s.stamp()
		}
		if f.Date == "" {
			f.Date = f.StartedAt.In(s.now().Location()).Format(DateLayout)
		}
		if err := s.validateFocusLocked(f); err != nil {
			return nil, err
		}
		f.ID = NewID("focus")
		f.CreatedAt = s.stamp()

		s.data.FocusSessions = append(s.data.FocusSessions, f)
		out = f.clone()
		return []notice{added(CollectionFocusSessions, f.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateFocusSession(id string, p FocusSessionPatch) (*FocusSession, error) {
	var out *FocusSession
	err := s.mutate("update focus session", func() ([]notice, error) {
		i := indexOf(s.data.FocusSessions, id, focusID)
		if i < 0 {
			return nil, notFound("focus session", id)
		}
		f := s.data.FocusSessions[i]
		next := f.clone()
		p.apply(next)
		if err := s.validateFocusLocked(next); err != nil {
			return nil, err
		}
		*f = *next
		out = f.clone()
		return []notice{updated(CollectionFocusSessions, f.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteFocusSession(id string) error {
	return s.mutate("delete focus session", func() ([]notice, error) {
		i := indexOf(s.data.FocusSessions, id, focusID)
		if i < 0 {
			return nil, notFound("focus session", id)
		}
		s.data.FocusSessions = removeAt(s.data.FocusSessions, i)
		return []notice{deleted(CollectionFocusSessions, DeleteRef{ID: id})}, nil
	})
}

func (s *Store) GetFocusSession(id string) (*FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.FocusSessions, id, focusID)
	if i < 0 {
		return nil, notFound("focus session", id)
	}
	return s.data.FocusSessions[i].clone(), nil
}

func (s *Store) FocusSessions() []FocusSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.FocusSessions, (*FocusSession).clone)
}

func (s *Store) FocusSessionsForDate(date string) []FocusSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []FocusSession
	for _, f := range s.data.FocusSessions {
		if f.Date == date {
			out = append(out, *f.clone())
		}
	}
	return out
}

// FocusMinutes sums the minutes of completed sessions over the trailing
// days-long window, today included.
func (s *Store) FocusMinutes(days int) int {
	if days <= 0 {
		return 0
	}
	from := s.now().AddDate(0, 0, -(days - 1)).Format(DateLayout)
	to := s.today()

	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, f := range s.data.FocusSessions {
		if f.IsCompleted && f.Date >= from && f.Date <= to {
			total += f.DurationMinutes
		}
	}
	return total
}
