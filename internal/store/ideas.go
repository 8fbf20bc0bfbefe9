package store

import (
	"slices"
	"strings"
)

type IdeaPatch struct {
	Title    *string
	Content  *string
	Tags     []string // nil leaves the tags unchanged
	IsPinned *bool
}

func (p IdeaPatch) apply(i *Idea) {
	if p.Title != nil {
		i.Title = *p.Title
	}
	if p.Content != nil {
		i.Content = *p.Content
	}
	if p.Tags != nil {
		i.Tags = cleanTags(p.Tags)
	}
	if p.IsPinned != nil {
		i.IsPinned = *p.IsPinned
	}
}

func ideaID(i *Idea) string { return i.ID }

// cleanTags trims tags and drops blanks and duplicates, keeping first-seen order.
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func validateIdea(i *Idea) error {
	i.Title = strings.TrimSpace(i.Title)
	if i.Title == "" {
		return invalid("idea title is required")
	}
	i.Tags = cleanTags(i.Tags)
	return nil
}

func (s *Store) AddIdea(in Idea) (*Idea, error) {
	var out *Idea
	err := s.mutate("add idea", func() ([]notice, error) {
		i := in.clone()
		if err := validateIdea(i); err != nil {
			return nil, err
		}
		now := s.stamp()
		i.ID = NewID("idea")
		i.CreatedAt = now
		i.UpdatedAt = now

		s.data.Ideas = append(s.data.Ideas, i)
		out = i.clone()
		return []notice{added(CollectionIdeas, i.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateIdea(id string, p IdeaPatch) (*Idea, error) {
	var out *Idea
	err := s.mutate("update idea", func() ([]notice, error) {
		n := indexOf(s.data.Ideas, id, ideaID)
		if n < 0 {
			return nil, notFound("idea", id)
		}
		i := s.data.Ideas[n]
		next := i.clone()
		p.apply(next)
		if err := validateIdea(next); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.stamp()
		*i = *next
		out = i.clone()
		return []notice{updated(CollectionIdeas, i.clone())}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) DeleteIdea(id string) error {
	return s.mutate("delete idea", func() ([]notice, error) {
		n := indexOf(s.data.Ideas, id, ideaID)
		if n < 0 {
			return nil, notFound("idea", id)
		}
		s.data.Ideas = removeAt(s.data.Ideas, n)
		return []notice{deleted(CollectionIdeas, DeleteRef{ID: id})}, nil
	})
}

func (s *Store) GetIdea(id string) (*Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := indexOf(s.data.Ideas, id, ideaID)
	if n < 0 {
		return nil, notFound("idea", id)
	}
	return s.data.Ideas[n].clone(), nil
}

func (s *Store) Ideas() []Idea {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.data.Ideas, (*Idea).clone)
}

func (s *Store) PinnedIdeas() []Idea {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Idea
	for _, i := range s.data.Ideas {
		if i.IsPinned {
			out = append(out, *i.clone())
		}
	}
	return out
}

// IdeasTagged returns the ideas carrying tag.
func (s *Store) IdeasTagged(tag string) []Idea {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Idea
	for _, i := range s.data.Ideas {
		if slices.Contains(i.Tags, tag) {
			out = append(out, *i.clone())
		}
	}
	return out
}
