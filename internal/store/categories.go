package store

import (
	"fmt"

	"github.com/google/uuid"

	"todoflow/internal/model"
)

// Categories returns a copy of all categories.
func (s *Store) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...)
}

// Groups returns a copy of all groups.
func (s *Store) Groups() []model.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Group(nil), s.groups...)
}

// Users returns a copy of all users.
func (s *Store) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.users...)
}

// CurrentUser returns the acting identity, if one is set.
func (s *Store) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == s.currentUserID {
			return u, true
		}
	}
	return model.User{}, false
}

// AddUser registers a new assignable user.
func (s *Store) AddUser(user model.User) (model.User, error) {
	if user.Name == "" {
		return model.User{}, fmt.Errorf("name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = uuid.NewString()
	s.users = append(s.users, user)
	s.persistLocked()
	return user, nil
}

// SetCurrentUser switches the acting identity.
func (s *Store) SetCurrentUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			s.currentUserID = userID
			s.persistLocked()
			return nil
		}
	}
	return fmt.Errorf("user %s not found", userID)
}

// AddCategory appends a category at the end of its group.
func (s *Store) AddCategory(category model.Category) (model.Category, error) {
	if category.Name == "" {
		return model.Category{}, fmt.Errorf("name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	order := 0
	for _, c := range s.categories {
		if c.GroupID == category.GroupID {
			order++
		}
	}
	category.ID = uuid.NewString()
	category.Order = order
	s.categories = append(s.categories, category)
	s.persistLocked()
	return category, nil
}

// UpdateCategory replaces the category's mutable fields.
func (s *Store) UpdateCategory(id string, name, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == id {
			if name != "" {
				s.categories[i].Name = name
			}
			if color != "" {
				s.categories[i].Color = color
			}
			s.persistLocked()
			return nil
		}
	}
	return fmt.Errorf("category %s not found", id)
}

// DeleteCategory removes the category. Its tasks survive with their
// category reference cleared, and the clearing is mirrored per task so
// remote documents drop the dead id too.
func (s *Store) DeleteCategory(id string) {
	s.mu.Lock()

	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept

	dispatches := s.clearCategoryRefsLocked(map[string]bool{id: true})
	s.persistLocked()
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
}

// clearCategoryRefsLocked detaches every task referencing one of the
// doomed category ids: one undo ledger entry for the batch, an outgoing
// categoryId-null patch per task. Caller holds the mutex and runs the
// returned dispatches after unlocking.
func (s *Store) clearCategoryRefsLocked(doomed map[string]bool) []func() {
	now := s.now()

	var affected []model.Task
	for i := range s.tasks {
		if doomed[s.tasks[i].CategoryID] {
			affected = append(affected, s.tasks[i].Clone())
		}
	}
	if len(affected) == 0 {
		return nil
	}
	s.recordLocked(model.HistoryBulk, affected...)

	var dispatches []func()
	for i := range s.tasks {
		if !doomed[s.tasks[i].CategoryID] {
			continue
		}
		s.tasks[i].CategoryID = ""
		s.tasks[i].UpdatedAt = now
		patch := model.TaskPatch{"categoryId": nil, "updatedAt": now}
		if d := s.dispatchLocked(write{typ: model.WriteUpdate, id: s.tasks[i].ID, patch: patch}); d != nil {
			dispatches = append(dispatches, d)
		}
	}
	return dispatches
}

// ReorderCategories renumbers categories to the given order.
func (s *Store) ReorderCategories(ordered []model.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range ordered {
		ordered[i].Order = i
	}
	s.categories = ordered
	s.persistLocked()
}

// AddGroup appends a new group.
func (s *Store) AddGroup(group model.Group) (model.Group, error) {
	if group.Name == "" {
		return model.Group{}, fmt.Errorf("name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	group.ID = uuid.NewString()
	s.groups = append(s.groups, group)
	s.persistLocked()
	return group, nil
}

// UpdateGroup renames a group.
func (s *Store) UpdateGroup(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups[i].Name = name
			s.persistLocked()
			return nil
		}
	}
	return fmt.Errorf("group %s not found", id)
}

// DeleteGroup cascades in one state transition: the group goes, its
// child categories go, and tasks referencing those categories keep
// living with the reference cleared and mirrored remotely.
func (s *Store) DeleteGroup(id string) {
	s.mu.Lock()

	doomed := make(map[string]bool)
	for _, c := range s.categories {
		if c.GroupID == id {
			doomed[c.ID] = true
		}
	}

	groups := s.groups[:0]
	for _, g := range s.groups {
		if g.ID != id {
			groups = append(groups, g)
		}
	}
	s.groups = groups

	categories := s.categories[:0]
	for _, c := range s.categories {
		if !doomed[c.ID] {
			categories = append(categories, c)
		}
	}
	s.categories = categories

	dispatches := s.clearCategoryRefsLocked(doomed)
	s.persistLocked()
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
}

// ReorderGroups renumbers groups to the given order.
func (s *Store) ReorderGroups(ordered []model.Group) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range ordered {
		ordered[i].Order = i
	}
	s.groups = ordered
	s.persistLocked()
}

// Filter returns the active task filter.
func (s *Store) Filter() model.TaskFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter replaces the active filter.
func (s *Store) SetFilter(f model.TaskFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.persistLocked()
}

// ClearFilter resets every filter dimension.
func (s *Store) ClearFilter() {
	s.SetFilter(model.TaskFilter{})
}

// AddCustomEmoji appends an emoji to the picker list, once.
func (s *Store) AddCustomEmoji(emoji string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.customEmojis {
		if e == emoji {
			return
		}
	}
	s.customEmojis = append(s.customEmojis, emoji)
	s.persistLocked()
}

// CustomEmojis returns the emoji picker list.
func (s *Store) CustomEmojis() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.customEmojis...)
}
