package store

import "time"

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneAll[T any](items []*T, clone func(*T) *T) []*T {
	if items == nil {
		return nil
	}
	out := make([]*T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, clone(it))
		}
	}
	return out
}

func (s *Settings) clone() *Settings {
	c := *s
	c.LastBackup = cloneTime(s.LastBackup)
	return &c
}

func (c *Category) clone() *Category {
	v := *c
	return &v
}

func (t *Task) clone() *Task {
	c := *t
	c.StartTime = cloneStr(t.StartTime)
	c.EndTime = cloneStr(t.EndTime)
	return &c
}

func (f *FixedSchedule) clone() *FixedSchedule {
	c := *f
	c.DayOfWeek = cloneSlice(f.DayOfWeek)
	return &c
}

func (g *Goal) clone() *Goal {
	c := *g
	return &c
}

func (sg *SubGoal) clone() *SubGoal {
	c := *sg
	c.StartTime = cloneStr(sg.StartTime)
	c.EndTime = cloneStr(sg.EndTime)
	return &c
}

func (h *Habit) clone() *Habit {
	c := *h
	return &c
}

func (l *HabitLog) clone() *HabitLog {
	c := *l
	return &c
}

func (i *Idea) clone() *Idea {
	c := *i
	c.Tags = cloneSlice(i.Tags)
	return &c
}

func (f *FocusSession) clone() *FocusSession {
	c := *f
	c.TaskID = cloneStr(f.TaskID)
	c.EndedAt = cloneTime(f.EndedAt)
	return &c
}

// Clone returns a deep copy of d that shares no mutable state with it.
func (d *AppData) Clone() *AppData {
	c := &AppData{
		Version:        d.Version,
		LastUpdated:    d.LastUpdated,
		UserID:         cloneStr(d.UserID),
		Categories:     cloneAll(d.Categories, (*Category).clone),
		Tasks:          cloneAll(d.Tasks, (*Task).clone),
		FixedSchedules: cloneAll(d.FixedSchedules, (*FixedSchedule).clone),
		Goals:          cloneAll(d.Goals, (*Goal).clone),
		SubGoals:       cloneAll(d.SubGoals, (*SubGoal).clone),
		Habits:         cloneAll(d.Habits, (*Habit).clone),
		HabitLogs:      cloneAll(d.HabitLogs, (*HabitLog).clone),
		Ideas:          cloneAll(d.Ideas, (*Idea).clone),
		FocusSessions:  cloneAll(d.FocusSessions, (*FocusSession).clone),
	}
	if d.Settings != nil {
		c.Settings = d.Settings.clone()
	}
	return c
}
