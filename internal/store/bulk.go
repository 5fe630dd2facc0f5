package store

import (
	"sort"
	"time"

	"todoflow/internal/model"
	"todoflow/internal/recurrence"
)

// ToggleSelected adds or removes a task from the multi-selection.
func (s *Store) ToggleSelected(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[id] {
		delete(s.selected, id)
	} else {
		s.selected[id] = true
	}
}

// Selected returns the selected task ids, sorted for stable output.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ClearSelection empties the multi-selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}

// bulkApply runs one transformation over a set of task ids: a single
// ledger entry for the whole batch, the same field change on every
// task, selection cleared afterwards. transform mutates the task and
// returns the patch to mirror (nil to mirror a soft delete instead).
func (s *Store) bulkApply(ids []string, transform func(t *model.Task, now time.Time) model.TaskPatch) {
	s.mu.Lock()
	now := s.now()

	var affected []model.Task
	var targets []*model.Task
	for _, id := range ids {
		if t := s.findTaskLocked(id); t != nil {
			affected = append(affected, t.Clone())
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		s.selected = make(map[string]bool)
		s.mu.Unlock()
		return
	}

	s.recordLocked(model.HistoryBulk, affected...)

	var dispatches []func()
	for _, t := range targets {
		patch := transform(t, now)
		t.UpdatedAt = now

		var w write
		if patch == nil {
			w = write{typ: model.WriteDelete, id: t.ID}
		} else {
			patch["updatedAt"] = now
			w = write{typ: model.WriteUpdate, id: t.ID, patch: patch}
		}
		if d := s.dispatchLocked(w); d != nil {
			dispatches = append(dispatches, d)
		}
	}

	s.selected = make(map[string]bool)
	s.persistLocked()
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
}

// BulkDeleteTasks soft-deletes every task in the set; one undo brings
// the whole batch back.
func (s *Store) BulkDeleteTasks(ids []string) {
	s.bulkApply(ids, func(t *model.Task, now time.Time) model.TaskPatch {
		t.IsDeleted = true
		t.DeletedAt = &now
		return nil
	})
}

// BulkCompleteTasks marks every task in the set completed. Unlike the
// single toggle this is a plain field transformation: no recurrence
// cascade fires.
func (s *Store) BulkCompleteTasks(ids []string) {
	s.bulkApply(ids, func(t *model.Task, now time.Time) model.TaskPatch {
		t.Completed = true
		t.CompletedAt = &now
		t.IsToday = false
		return model.TaskPatch{"completed": true, "completedAt": now, "isToday": false}
	})
}

// BulkAddToToday pins every task in the set to today's working set.
func (s *Store) BulkAddToToday(ids []string) {
	s.bulkApply(ids, func(t *model.Task, now time.Time) model.TaskPatch {
		t.IsToday = true
		return model.TaskPatch{"isToday": true}
	})
}

// BulkMarkImportant flags every task in the set important.
func (s *Store) BulkMarkImportant(ids []string) {
	s.bulkApply(ids, func(t *model.Task, now time.Time) model.TaskPatch {
		t.IsImportant = true
		return model.TaskPatch{"isImportant": true}
	})
}

// BulkMoveToCategory reassigns every task in the set to the category.
func (s *Store) BulkMoveToCategory(ids []string, categoryID string) {
	s.bulkApply(ids, func(t *model.Task, now time.Time) model.TaskPatch {
		t.CategoryID = categoryID
		if categoryID == "" {
			return model.TaskPatch{"categoryId": nil}
		}
		return model.TaskPatch{"categoryId": categoryID}
	})
}

// BulkSetDueDate assigns the due date to every task in the set. A task
// whose new due date is not today leaves the today set; when the date
// is today, an already-set today flag is kept.
func (s *Store) BulkSetDueDate(ids []string, due time.Time) {
	s.bulkApply(ids, func(t *model.Task, now time.Time) model.TaskPatch {
		d := due
		t.DueDate = &d
		if !recurrence.SameDay(due, now) {
			t.IsToday = false
		}
		return model.TaskPatch{"dueDate": due, "isToday": t.IsToday}
	})
}
