package store

// ExportData returns a deep copy of the whole data graph.
func (s *Store) ExportData() AppData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.data.Clone()
}

// ImportData replaces the whole data graph with d. The envelope must carry a
// version and settings; missing collections are filled in. The imported
// lastUpdated is kept so that an export followed by an import is lossless.
func (s *Store) ImportData(d AppData) error {
	if d.Version == "" {
		return invalid("import: version is missing")
	}
	if d.Settings == nil {
		return invalid("import: settings are missing")
	}
	next := d.Clone()
	normalize(next, s.stamp())
	if err := checkIDs(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = next
	s.rebuildIndexesLocked()
	s.writeLocked()

	counts := next.Counts()
	notices := make([]notice, 0, len(Collections)+1)
	for _, c := range Collections {
		notices = append(notices, updated(c, ReloadRef{Count: counts[c]}))
	}
	notices = append(notices, updated(CollectionSettings, next.Settings.clone()))
	s.enqueue(notices)
	s.logger.Info("data imported", "version", next.Version, "tasks", len(next.Tasks), "goals", len(next.Goals))
	s.mu.Unlock()

	s.deliver()
	return nil
}

// checkIDs rejects an envelope with blank or repeated ids in any collection,
// or with two habit logs for the same habit and date.
func checkIDs(d *AppData) error {
	check := func(collection string, ids []string) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" {
				return invalid("import: %s has a record without an id", collection)
			}
			if seen[id] {
				return invalid("import: %s has duplicate id %q", collection, id)
			}
			seen[id] = true
		}
		return nil
	}
	for _, c := range []struct {
		name string
		ids  []string
	}{
		{CollectionCategories, collect(d.Categories, categoryID)},
		{CollectionTasks, collect(d.Tasks, taskID)},
		{CollectionFixedSchedules, collect(d.FixedSchedules, scheduleID)},
		{CollectionGoals, collect(d.Goals, goalID)},
		{CollectionSubGoals, collect(d.SubGoals, subGoalID)},
		{CollectionHabits, collect(d.Habits, habitKey)},
		{CollectionHabitLogs, collect(d.HabitLogs, func(l *HabitLog) string { return l.ID })},
		{CollectionIdeas, collect(d.Ideas, ideaID)},
		{CollectionFocusSessions, collect(d.FocusSessions, focusID)},
	} {
		if err := check(c.name, c.ids); err != nil {
			return err
		}
	}
	days := make(map[[2]string]bool, len(d.HabitLogs))
	for _, l := range d.HabitLogs {
		k := [2]string{l.HabitID, l.Date}
		if days[k] {
			return invalid("import: habit %q has more than one log on %s", l.HabitID, l.Date)
		}
		days[k] = true
	}
	return nil
}

func collect[T any](items []*T, idOf func(*T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = idOf(it)
	}
	return out
}

// Stats summarizes the size of each collection.
type Stats struct {
	Version     string
	LastUpdated string
	Counts      map[string]int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Version:     s.data.Version,
		LastUpdated: s.data.LastUpdated.Format("2006-01-02 15:04:05"),
		Counts:      s.data.Counts(),
	}
}

// Counts returns the number of records in each collection.
func (d *AppData) Counts() map[string]int {
	return map[string]int{
		CollectionCategories:     len(d.Categories),
		CollectionTasks:          len(d.Tasks),
		CollectionFixedSchedules: len(d.FixedSchedules),
		CollectionGoals:          len(d.Goals),
		CollectionSubGoals:       len(d.SubGoals),
		CollectionHabits:         len(d.Habits),
		CollectionHabitLogs:      len(d.HabitLogs),
		CollectionIdeas:          len(d.Ideas),
		CollectionFocusSessions:  len(d.FocusSessions),
	}
}
