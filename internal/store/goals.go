package store

import (
	"math"
	"sort"
	"strings"
	"time"
)

// GoalPatch has no Progress field: progress is derived from subgoals.
type GoalPatch struct {
	Title       *string
	Description *string
	StartDate   *string
	EndDate     *string
	CategoryID  *string
}

func (p GoalPatch) apply(g *Goal) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		g.EndDate = *p.EndDate
	}
	if p.CategoryID != nil {
		g.CategoryID = *p.CategoryID
	}
}

func goalID(g *Goal) string { return g.ID }

func (s *Store) validateGoalLocked(g *Goal) error {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return invalid("goal title is required")
	}
	if err := checkDate("startDate", g.StartDate); err != nil {
		return err
	}
	if err := checkDate("endDate", g.EndDate); err != nil {
		return err
	}
	if g.EndDate < g.StartDate {
		return invalid("endDate %s is before startDate %s", g.EndDate, g.StartDate)
	}
	g.CategoryID = s.categoryLocked(g.CategoryID)
	return nil
}

// DefaultGoalSpan is the length given to a goal created without an end date.
const DefaultGoalSpan = 30 * 24 * time.Hour

// AddGoal stores a new goal with zero progress. StartDate defaults to today
// and EndDate to StartDate plus DefaultGoalSpan.
func (s *Store) AddGoal(in Goal) (*Goal, error) {
	var out *Goal
	err := s.mutate("add goal", func() ([]notice, error) {
		g := in.clone()
		if g.StartDate == "" {
			g.StartDate = s.today()
		}
		if g.EndDate == "" {
			if start, err := time.Parse(DateLayout, g.StartDate); err == nil {
				g.EndDate = start.Add(DefaultGoalSpan).Format(DateLayout)
			}
		}
		if err := s.validateGoalLocked(g); err != nil {
			return nil, err
		}
		now := s.stamp()
		g.ID = NewID("goal")
		g.Progress = 0
		g.CreatedAt = now
		g.UpdatedAt = now

		s.data.Goals = append(s.data.Goals, g)
		out = g.clone()
		return []notice{added(CollectionGoals, g.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateGoal(id string, p GoalPatch) (*Goal, error) {
	var out *Goal
	err := s.mutate("update goal", func() ([]notice, error) {
		i := indexOf(s.data.Goals, id, goalID)
		if i < 0 {
			return nil, notFound("goal", id)
		}
		g := s.data.Goals[i]
		next := g.clone()
		p.apply(next)
		if err := s.validateGoalLocked(next); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.stamp()
		*g = *next
		out = g.clone()
		return []notice{updated(CollectionGoals, g.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteGoal removes the goal and every subgoal that belongs to it.
func (s *Store) DeleteGoal(id string) error {
	return s.mutate("delete goal", func() ([]notice, error) {
		i := indexOf(s.data.Goals, id, goalID)
		if i < 0 {
			return nil, notFound("goal", id)
		}
		s.data.Goals = removeAt(s.data.Goals, i)

		var removed []string
		kept := s.data.SubGoals[:0:0]
		for _, sg := range s.data.SubGoals {
			if sg.GoalID == id {
				removed = append(removed, sg.ID)
				continue
			}
			kept = append(kept, sg)
		}
		s.data.SubGoals = kept
		s.subGoalsByGoal.RemoveKey(id)

		notices := []notice{deleted(CollectionGoals, DeleteRef{ID: id})}
		if len(removed) > 0 {
			notices = append(notices, deleted(CollectionSubGoals, CascadeRef{ParentID: id, IDs: removed}))
		}
		return notices, nil
	})
}

func (s *Store) GetGoal(id string) (*Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.Goals, id, goalID)
	if i < 0 {
		return nil, notFound("goal", id)
	}
	return s.data.Goals[i].clone(), nil
}

func (s *Store) Goals() []Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.Goals, (*Goal).clone)
}

// ActiveGoals returns the goals whose date range contains date.
func (s *Store) ActiveGoals(date string) []Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Goal
	for _, g := range s.data.Goals {
		if g.StartDate <= date && date <= g.EndDate {
			out = append(out, *g.clone())
		}
	}
	return out
}

// recomputeProgressLocked derives a goal's progress from its subgoals. With no
// subgoals the stored progress is left as it is.
func (s *Store) recomputeProgressLocked(id string) (notice, bool) {
	i := indexOf(s.data.Goals, id, goalID)
	if i < 0 {
		return notice{}, false
	}
	subs := s.subGoalsByGoal.Get(id)
	if len(subs) == 0 {
		return notice{}, false
	}
	done := 0
	for _, sg := range subs {
		if sg.IsCompleted {
			done++
		}
	}
	progress := int(math.Round(100 * float64(done) / float64(len(subs))))

	g := s.data.Goals[i]
	if g.Progress == progress {
		return notice{}, false
	}
	g.Progress = progress
	g.UpdatedAt = s.stamp()
	return updated(CollectionGoals, g.clone()), true
}

// SubGoalPatch changes a subgoal. Moving it to another goal recomputes the
// progress of both goals.
type SubGoalPatch struct {
	GoalID      *string
	Title       *string
	Description *string
	DueDate     *string
	StartTime   *string
	EndTime     *string
	IsCompleted *bool
	Order       *int
}

func (p SubGoalPatch) apply(sg *SubGoal) {
	if p.GoalID != nil {
		sg.GoalID = *p.GoalID
	}
	if p.Title != nil {
		sg.Title = *p.Title
	}
	if p.Description != nil {
		sg.Description = *p.Description
	}
	if p.DueDate != nil {
		sg.DueDate = *p.DueDate
	}
	if p.StartTime != nil {
		sg.StartTime = blankToNil(cloneStr(p.StartTime))
	}
	if p.EndTime != nil {
		sg.EndTime = blankToNil(cloneStr(p.EndTime))
	}
	if p.IsCompleted != nil {
		sg.IsCompleted = *p.IsCompleted
	}
	if p.Order != nil {
		sg.Order = *p.Order
	}
}

func subGoalID(sg *SubGoal) string { return sg.ID }

func (s *Store) validateSubGoalLocked(sg *SubGoal) error {
	if indexOf(s.data.Goals, sg.GoalID, goalID) < 0 {
		return invalid("subgoal references unknown goal %q", sg.GoalID)
	}
	sg.Title = strings.TrimSpace(sg.Title)
	if sg.Title == "" {
		return invalid("subgoal title is required")
	}
	if sg.DueDate != "" {
		if err := checkDate("dueDate", sg.DueDate); err != nil {
			return err
		}
	}
	sg.StartTime = blankToNil(sg.StartTime)
	sg.EndTime = blankToNil(sg.EndTime)
	return checkTimeRange(sg.StartTime, sg.EndTime)
}

// AddSubGoal stores a subgoal under an existing goal. An Order of zero places
// it after the goal's current subgoals.
func (s *Store) AddSubGoal(in SubGoal) (*SubGoal, error) {
	var out *SubGoal
	err := s.mutate("add subgoal", func() ([]notice, error) {
		sg := in.clone()
		if err := s.validateSubGoalLocked(sg); err != nil {
			return nil, err
		}
		if sg.Order == 0 {
			for _, sib := range s.subGoalsByGoal.Get(sg.GoalID) {
				if sib.Order >= sg.Order {
					sg.Order = sib.Order
				}
			}
			sg.Order++
		}
		now := s.stamp()
		sg.ID = NewID("sub")
		sg.CreatedAt = now
		sg.UpdatedAt = now

		s.data.SubGoals = append(s.data.SubGoals, sg)
		s.subGoalsByGoal.Put(sg)
		out = sg.clone()

		notices := []notice{added(CollectionSubGoals, sg.clone())}
		if n, ok := s.recomputeProgressLocked(sg.GoalID); ok {
			notices = append(notices, n)
		}
		return notices, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateSubGoal(id string, p SubGoalPatch) (*SubGoal, error) {
	var out *SubGoal
	err := s.mutate("update subgoal", func() ([]notice, error) {
		i := indexOf(s.data.SubGoals, id, subGoalID)
		if i < 0 {
			return nil, notFound("subgoal", id)
		}
		sg := s.data.SubGoals[i]
		oldGoal := sg.GoalID
		next := sg.clone()
		p.apply(next)
		if err := s.validateSubGoalLocked(next); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.stamp()
		*sg = *next
		s.subGoalsByGoal.Put(sg)
		out = sg.clone()

		notices := []notice{updated(CollectionSubGoals, sg.clone())}
		if n, ok := s.recomputeProgressLocked(sg.GoalID); ok {
			notices = append(notices, n)
		}
		if oldGoal != sg.GoalID {
			if n, ok := s.recomputeProgressLocked(oldGoal); ok {
				notices = append(notices, n)
			}
		}
		return notices, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleSubGoal flips the completion flag of a subgoal and recomputes its
// goal's progress.
func (s *Store) ToggleSubGoal(id string) (*SubGoal, error) {
	var out *SubGoal
	err := s.mutate("toggle subgoal", func() ([]notice, error) {
		i := indexOf(s.data.SubGoals, id, subGoalID)
		if i < 0 {
			return nil, notFound("subgoal", id)
		}
		sg := s.data.SubGoals[i]
		sg.IsCompleted = !sg.IsCompleted
		sg.UpdatedAt = s.stamp()
		out = sg.clone()

		notices := []notice{updated(CollectionSubGoals, sg.clone())}
		if n, ok := s.recomputeProgressLocked(sg.GoalID); ok {
			notices = append(notices, n)
		}
		return notices, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteSubGoal(id string) error {
	return s.mutate("delete subgoal", func() ([]notice, error) {
		i := indexOf(s.data.SubGoals, id, subGoalID)
		if i < 0 {
			return nil, notFound("subgoal", id)
		}
		parent := s.data.SubGoals[i].GoalID
		s.data.SubGoals = removeAt(s.data.SubGoals, i)
		s.subGoalsByGoal.Remove(id)

		notices := []notice{deleted(CollectionSubGoals, DeleteRef{ID: id})}
		if n, ok := s.recomputeProgressLocked(parent); ok {
			notices = append(notices, n)
		}
		return notices, nil
	})
}

func (s *Store) GetSubGoal(id string) (*SubGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.SubGoals, id, subGoalID)
	if i < 0 {
		return nil, notFound("subgoal", id)
	}
	return s.data.SubGoals[i].clone(), nil
}

// SubGoalsForGoal returns a goal's subgoals sorted by Order.
func (s *Store) SubGoalsForGoal(goalID string) []SubGoal {
	s.mu.Lock()
	out := values(s.subGoalsByGoal.Get(goalID), (*SubGoal).clone)
	s.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
