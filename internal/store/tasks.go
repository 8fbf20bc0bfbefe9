package store

import (
	"sort"
	"strings"
)

// TaskPatch lists the fields UpdateTask may change. Nil fields are left as
// they are; an empty StartTime/EndTime clears the time.
type TaskPatch struct {
	Title       *string
	Description *string
	CategoryID  *string
	Date        *string
	StartTime   *string
	EndTime     *string
	IsCompleted *bool
	IsAllDay    *bool
}

func (p TaskPatch) apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.StartTime != nil {
		t.StartTime = blankToNil(cloneStr(p.StartTime))
	}
	if p.EndTime != nil {
		t.EndTime = blankToNil(cloneStr(p.EndTime))
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
	if p.IsAllDay != nil {
		t.IsAllDay = *p.IsAllDay
	}
}

func taskID(t *Task) string { return t.ID }

func (s *Store) validateTaskLocked(t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return invalid("task title is required")
	}
	if err := checkDate("date", t.Date); err != nil {
		return err
	}
	t.StartTime = blankToNil(t.StartTime)
	t.EndTime = blankToNil(t.EndTime)
	if err := checkTimeRange(t.StartTime, t.EndTime); err != nil {
		return err
	}
	t.CategoryID = s.categoryLocked(t.CategoryID)
	return nil
}

// AddTask stores a new task. Date defaults to today; an unknown category
// falls back to the default one.
func (s *Store) AddTask(in Task) (*Task, error) {
	var out *Task
	err := s.mutate("add task", func() ([]notice, error) {
		t := in.clone()
		if t.Date == "" {
			t.Date = s.today()
		}
		if err := s.validateTaskLocked(t); err != nil {
			return nil, err
		}
		now := s.stamp()
		t.ID = NewID("task")
		t.CreatedAt = now
		t.UpdatedAt = now

		s.data.Tasks = append(s.data.Tasks, t)
		s.tasksByDate.Put(t)
		out = t.clone()
		return []notice{added(CollectionTasks, t.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateTask(id string, p TaskPatch) (*Task, error) {
	var out *Task
	err := s.mutate("update task", func() ([]notice, error) {
		i := indexOf(s.data.Tasks, id, taskID)
		if i < 0 {
			return nil, notFound("task", id)
		}
		t := s.data.Tasks[i]
		next := t.clone()
		p.apply(next)
		if err := s.validateTaskLocked(next); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.stamp()
		*t = *next
		s.tasksByDate.Put(t)
		out = t.clone()
		return []notice{updated(CollectionTasks, t.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleTask flips the completion flag of a task.
func (s *Store) ToggleTask(id string) (*Task, error) {
	var out *Task
	err := s.mutate("toggle task", func() ([]notice, error) {
		i := indexOf(s.data.Tasks, id, taskID)
		if i < 0 {
			return nil, notFound("task", id)
		}
		t := s.data.Tasks[i]
		t.IsCompleted = !t.IsCompleted
		t.UpdatedAt = s.stamp()
		out = t.clone()
		return []notice{updated(CollectionTasks, t.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTask removes the task and detaches the focus sessions recorded against it.
func (s *Store) DeleteTask(id string) error {
	return s.mutate("delete task", func() ([]notice, error) {
		i := indexOf(s.data.Tasks, id, taskID)
		if i < 0 {
			return nil, notFound("task", id)
		}
		s.data.Tasks = removeAt(s.data.Tasks, i)
		s.tasksByDate.Remove(id)

		notices := []notice{deleted(CollectionTasks, DeleteRef{ID: id})}
		var detached []string
		for _, f := range s.data.FocusSessions {
			if f.TaskID != nil && *f.TaskID == id {
				f.TaskID = nil
				detached = append(detached, f.ID)
			}
		}
		if len(detached) > 0 {
			notices = append(notices, updated(CollectionFocusSessions, CascadeRef{ParentID: id, IDs: detached}))
		}
		return notices, nil
	})
}

func (s *Store) GetTask(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.Tasks, id, taskID)
	if i < 0 {
		return nil, notFound("task", id)
	}
	return s.data.Tasks[i].clone(), nil
}

// Tasks returns every task in insertion order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.Tasks, (*Task).clone)
}

// TasksForDate returns the tasks on date, timed ones first by start time.
func (s *Store) TasksForDate(date string) []Task {
	s.mu.Lock()
	out := values(s.tasksByDate.Get(date), (*Task).clone)
	s.mu.Unlock()
	sortTasks(out)
	return out
}

// TasksBetween returns tasks whose date lies in [from, to], inclusive.
func (s *Store) TasksBetween(from, to string) []Task {
	s.mu.Lock()
	var out []Task
	for _, k := range s.tasksByDate.Keys() {
		if k >= from && k <= to {
			out = append(out, values(s.tasksByDate.Get(k), (*Task).clone)...)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func sortTasks(ts []Task) {
	sort.SliceStable(ts, func(i, j int) bool {
		a, b := ts[i].StartTime, ts[j].StartTime
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
}

func values[T any](items []*T, clone func(*T) *T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, *clone(it))
	}
	return out
}
