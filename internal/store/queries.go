package store

import (
	"sort"
	"strings"

	"todoflow/internal/model"
	"todoflow/internal/recurrence"
)

func sortTasksByOrder(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Order < tasks[j].Order
	})
}

// Tasks returns a copy of every task in the session, trash included.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// Task returns one task by id.
func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.findTaskLocked(id); t != nil {
		return t.Clone(), true
	}
	return model.Task{}, false
}

// FilteredTasks applies the active filter: soft-deleted tasks are
// always excluded, then every set filter dimension must match.
func (s *Store) FilteredTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.IsDeleted {
			continue
		}
		if !s.matchesFilterLocked(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) matchesFilterLocked(t model.Task) bool {
	f := s.filter

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		match := strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle)
		if !match {
			for _, uid := range t.Assignees {
				for _, u := range s.users {
					if u.ID == uid && strings.Contains(strings.ToLower(u.Name), needle) {
						match = true
					}
				}
			}
		}
		if !match {
			return false
		}
	}

	if f.AssigneeID != "" {
		found := false
		for _, uid := range t.Assignees {
			if uid == f.AssigneeID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.IsToday != nil && t.IsToday != *f.IsToday {
		return false
	}
	return true
}

// TodayTasks returns incomplete tasks that belong to today: either
// explicitly pinned (isToday) or coincidentally due today. The two
// membership conditions are independent, OR-combined.
func (s *Store) TodayTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []model.Task
	for _, t := range s.tasks {
		if t.IsDeleted || t.Completed {
			continue
		}
		dueToday := t.DueDate != nil && recurrence.SameDay(*t.DueDate, now)
		if t.IsToday || dueToday {
			out = append(out, t)
		}
	}
	return out
}

// CompletedTasks returns completed, non-deleted tasks.
func (s *Store) CompletedTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.Completed && !t.IsDeleted {
			out = append(out, t)
		}
	}
	return out
}

// DeletedTasks returns the trash view, the only place soft-deleted
// tasks appear.
func (s *Store) DeletedTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.IsDeleted {
			out = append(out, t)
		}
	}
	return out
}

// ImportantTasks returns incomplete, non-deleted tasks flagged important.
func (s *Store) ImportantTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.IsImportant && !t.Completed && !t.IsDeleted {
			out = append(out, t)
		}
	}
	return out
}

// UserTasks returns non-deleted tasks assigned to the user.
func (s *Store) UserTasks(userID string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Task
	for _, t := range s.tasks {
		if t.IsDeleted {
			continue
		}
		for _, uid := range t.Assignees {
			if uid == userID {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
