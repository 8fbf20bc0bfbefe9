package store

import "strings"

type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

func (p CategoryPatch) apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
}

func validateCategory(c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("category name is required")
	}
	if c.Color == "" {
		c.Color = "#95A5A6"
	}
	return nil
}

// AddCategory stores a new, non-default category.
func (s *Store) AddCategory(in Category) (*Category, error) {
	var out *Category
	err := s.mutate("add category", func() ([]notice, error) {
		c := in.clone()
		if err := validateCategory(c); err != nil {
			return nil, err
		}
		c.ID = NewID("cat")
		c.IsDefault = false

		s.data.Categories = append(s.data.Categories, c)
		out = c.clone()
		return []notice{added(CollectionCategories, c.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateCategory(id string, p CategoryPatch) (*Category, error) {
	var out *Category
	err := s.mutate("update category", func() ([]notice, error) {
		i := indexOf(s.data.Categories, id, categoryID)
		if i < 0 {
			return nil, notFound("category", id)
		}
		c := s.data.Categories[i]
		next := c.clone()
		p.apply(next)
		if err := validateCategory(next); err != nil {
			return nil, err
		}
		*c = *next
		out = c.clone()
		return []notice{updated(CollectionCategories, c.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCategory removes a category and moves every task, schedule, goal and
// habit filed under it to the default category. The default category cannot
// be deleted.
func (s *Store) DeleteCategory(id string) error {
	return s.mutate("delete category", func() ([]notice, error) {
		i := indexOf(s.data.Categories, id, categoryID)
		if i < 0 {
			return nil, notFound("category", id)
		}
		if id == DefaultCategoryID || s.data.Categories[i].IsDefault {
			return nil, invalid("the default category cannot be deleted")
		}
		s.data.Categories = removeAt(s.data.Categories, i)
		now := s.stamp()

		notices := []notice{deleted(CollectionCategories, DeleteRef{ID: id})}
		reassigned := func(collection string, ids []string) {
			if len(ids) > 0 {
				notices = append(notices, updated(collection, CascadeRef{ParentID: id, IDs: ids}))
			}
		}

		var ids []string
		for _, t := range s.data.Tasks {
			if t.CategoryID == id {
				t.CategoryID = DefaultCategoryID
				t.UpdatedAt = now
				ids = append(ids, t.ID)
			}
		}
		reassigned(CollectionTasks, ids)

		ids = nil
		for _, f := range s.data.FixedSchedules {
			if f.CategoryID == id {
				f.CategoryID = DefaultCategoryID
				f.UpdatedAt = now
				ids = append(ids, f.ID)
			}
		}
		reassigned(CollectionFixedSchedules, ids)

		ids = nil
		for _, g := range s.data.Goals {
			if g.CategoryID == id {
				g.CategoryID = DefaultCategoryID
				g.UpdatedAt = now
				ids = append(ids, g.ID)
			}
		}
		reassigned(CollectionGoals, ids)

		ids = nil
		for _, h := range s.data.Habits {
			if h.CategoryID == id {
				h.CategoryID = DefaultCategoryID
				ids = append(ids, h.ID)
			}
		}
		reassigned(CollectionHabits, ids)

		return notices, nil
	})
}

func (s *Store) GetCategory(id string) (*Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.data.Categories, id, categoryID)
	if i < 0 {
		return nil, notFound("category", id)
	}
	return s.data.Categories[i].clone(), nil
}

func (s *Store) Categories() []Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.Categories, (*Category).clone)
}
