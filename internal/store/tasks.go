package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"todoflow/internal/model"
	"todoflow/internal/recurrence"
)

// duplicateWindow suppresses double-submits of the same title.
const duplicateWindow = time.Second

// AddTask validates and inserts a new task, then mirrors it to durable
// storage. Returns nil without error when the add was suppressed as a
// duplicate submission.
func (s *Store) AddTask(task model.Task) (*model.Task, error) {
	if task.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if task.Recurrence.Kind == "" {
		task.Recurrence.Kind = model.RecurNone
	}
	if !task.Recurrence.Kind.Valid() {
		return nil, fmt.Errorf("unknown recurrence %q", task.Recurrence.Kind)
	}

	s.mu.Lock()
	now := s.now()

	if task.Title == s.lastAddTitle && now.Sub(s.lastAddAt) <= duplicateWindow {
		s.mu.Unlock()
		return nil, nil
	}
	s.lastAddTitle = task.Title
	s.lastAddAt = now

	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Completed = false
	task.CompletedAt = nil
	task.IsDeleted = false
	task.DeletedAt = nil
	if task.Assignees == nil && s.currentUserID != "" {
		task.Assignees = []string{s.currentUserID}
	}
	s.tasks = append(s.tasks, task)

	d := s.dispatchLocked(write{typ: model.WriteAdd, id: task.ID, task: task.Clone()})
	s.persistLocked()
	out := task.Clone()
	s.mu.Unlock()

	if d != nil {
		go d()
	}
	return &out, nil
}

// UpdateTask applies a partial update to the task and mirrors the same
// patch remotely. The prior state lands in the undo ledger.
func (s *Store) UpdateTask(id string, patch model.TaskPatch) error {
	if title, ok := patch["title"]; ok {
		if str, _ := title.(string); str == "" {
			return fmt.Errorf("title is required")
		}
	}

	s.mu.Lock()
	t := s.findTaskLocked(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s not found", id)
	}
	now := s.now()
	s.recordLocked(model.HistoryUpdate, *t)

	if err := t.Apply(patch); err != nil {
		s.popHistoryLocked()
		s.mu.Unlock()
		return fmt.Errorf("apply update: %w", err)
	}
	t.UpdatedAt = now

	outgoing := model.TaskPatch{}
	for k, v := range patch {
		outgoing[k] = v
	}
	outgoing["updatedAt"] = now

	d := s.dispatchLocked(write{typ: model.WriteUpdate, id: id, patch: outgoing})
	s.persistLocked()
	s.mu.Unlock()

	if d != nil {
		go d()
	}
	return nil
}

// DeleteTask soft-deletes: the task leaves every view except trash and
// stays recoverable for the retention window.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	t := s.findTaskLocked(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s not found", id)
	}
	now := s.now()
	s.recordLocked(model.HistoryDelete, *t)

	t.IsDeleted = true
	t.DeletedAt = &now
	t.UpdatedAt = now

	d := s.dispatchLocked(write{typ: model.WriteDelete, id: id})
	s.persistLocked()
	s.mu.Unlock()

	if d != nil {
		go d()
	}
	return nil
}

// ToggleTaskComplete flips completion. Completing a recurring task also
// spawns the next instance in the same operation, due one period past
// the current due date. The ledger snapshot covers only the toggled
// task, so undoing leaves a spawned instance in place.
func (s *Store) ToggleTaskComplete(id string) error {
	s.mu.Lock()
	t := s.findTaskLocked(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s not found", id)
	}
	now := s.now()
	s.recordLocked(model.HistoryComplete, *t)

	var dispatches []func()
	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
		t.UpdatedAt = now
		patch := model.TaskPatch{"completed": false, "completedAt": nil, "updatedAt": now}
		if d := s.dispatchLocked(write{typ: model.WriteComplete, id: id, patch: patch}); d != nil {
			dispatches = append(dispatches, d)
		}
	} else {
		completed := t.Clone()
		t.Completed = true
		t.CompletedAt = &now
		t.IsToday = false
		t.UpdatedAt = now
		patch := model.TaskPatch{"completed": true, "completedAt": now, "isToday": false, "updatedAt": now}
		if d := s.dispatchLocked(write{typ: model.WriteComplete, id: id, patch: patch}); d != nil {
			dispatches = append(dispatches, d)
		}

		if completed.Recurrence.Kind != model.RecurNone && completed.Recurrence.Kind.Valid() {
			next := recurrence.NextInstance(completed, now)
			s.tasks = append(s.tasks, next)
			if d := s.dispatchLocked(write{typ: model.WriteAdd, id: next.ID, task: next.Clone()}); d != nil {
				dispatches = append(dispatches, d)
			}
		}
	}

	s.persistLocked()
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
	return nil
}

// RestoreTask brings a soft-deleted task back from trash.
func (s *Store) RestoreTask(id string) error {
	s.mu.Lock()
	t := s.findTaskLocked(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s not found", id)
	}
	now := s.now()
	t.IsDeleted = false
	t.DeletedAt = nil
	t.UpdatedAt = now

	patch := model.TaskPatch{"isDeleted": false, "deletedAt": nil, "updatedAt": now}
	d := s.dispatchLocked(write{typ: model.WriteUpdate, id: id, patch: patch})
	s.persistLocked()
	s.mu.Unlock()

	if d != nil {
		go d()
	}
	return nil
}

// PermanentDeleteTask physically removes the task from the session.
// The remote document keeps its soft-delete marker.
func (s *Store) PermanentDeleteTask(id string) {
	s.mu.Lock()
	s.removeTaskLocked(id)
	s.persistLocked()
	s.mu.Unlock()
}

// ReorderTasks moves the task to newIndex in the order-sorted view and
// renumbers every task's order to its new positional index. Tasks whose
// order changed land in the undo ledger as one entry and mirror an
// order patch each, so a subscription push cannot revert the reorder.
func (s *Store) ReorderTasks(taskID string, newIndex int) {
	s.mu.Lock()

	ordered := append([]model.Task(nil), s.tasks...)
	sortTasksByOrder(ordered)

	from := -1
	for i := range ordered {
		if ordered[i].ID == taskID {
			from = i
			break
		}
	}
	if from == -1 {
		s.mu.Unlock()
		return
	}

	moved := ordered[from]
	ordered = append(ordered[:from], ordered[from+1:]...)
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(ordered) {
		newIndex = len(ordered)
	}
	ordered = append(ordered[:newIndex], append([]model.Task{moved}, ordered[newIndex:]...)...)

	now := s.now()
	var affected []model.Task
	for i := range ordered {
		if ordered[i].Order != i {
			affected = append(affected, ordered[i].Clone())
		}
	}
	if len(affected) == 0 {
		s.mu.Unlock()
		return
	}
	s.recordLocked(model.HistoryBulk, affected...)

	var dispatches []func()
	for i := range ordered {
		if ordered[i].Order == i {
			continue
		}
		ordered[i].Order = i
		ordered[i].UpdatedAt = now
		patch := model.TaskPatch{"order": i, "updatedAt": now}
		if d := s.dispatchLocked(write{typ: model.WriteUpdate, id: ordered[i].ID, patch: patch}); d != nil {
			dispatches = append(dispatches, d)
		}
	}
	s.tasks = ordered
	s.persistLocked()
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
}

// ToggleSubtask flips one checklist item inside a task.
func (s *Store) ToggleSubtask(taskID, subtaskID string) error {
	s.mu.Lock()
	t := s.findTaskLocked(taskID)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s not found", taskID)
	}
	found := false
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			t.Subtasks[i].Completed = !t.Subtasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("subtask %s not found", subtaskID)
	}
	now := s.now()
	t.UpdatedAt = now

	patch := model.TaskPatch{"subtasks": append([]model.SubTask(nil), t.Subtasks...), "updatedAt": now}
	d := s.dispatchLocked(write{typ: model.WriteUpdate, id: taskID, patch: patch})
	s.persistLocked()
	s.mu.Unlock()

	if d != nil {
		go d()
	}
	return nil
}
