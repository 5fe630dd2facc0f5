package store

import (
	"todoflow/internal/model"
)

const (
	maxHistory   = 10
	undoWindowMs = 5000
)

// recordLocked appends an undo ledger entry holding deep copies of the
// affected tasks as they are right now, before the mutation. Only the
// most recent entries are retained.
func (s *Store) recordLocked(typ model.HistoryType, tasks ...model.Task) {
	snap := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		snap = append(snap, t.Clone())
	}
	s.history = append(s.history, model.HistoryAction{
		Type:      typ,
		Timestamp: s.now().UnixMilli(),
		Tasks:     snap,
	})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

func (s *Store) popHistoryLocked() {
	if n := len(s.history); n > 0 {
		s.history = s.history[:n-1]
	}
}

// CanUndo reports whether an undo would currently take effect.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	return n > 0 && s.now().UnixMilli()-s.history[n-1].Timestamp <= undoWindowMs
}

// Undo reverses the most recently initiated mutation by restoring its
// snapshot tasks wholesale. A stale top entry (older than the window)
// clears the whole ledger and undoes nothing, so long-past actions
// cannot come back to life. Restored state is mirrored to durable storage
// so the next subscription push doesn't immediately reapply the undone
// mutation.
func (s *Store) Undo() bool {
	s.mu.Lock()
	if len(s.history) == 0 {
		s.mu.Unlock()
		return false
	}

	top := s.history[len(s.history)-1]
	if s.now().UnixMilli()-top.Timestamp > undoWindowMs {
		s.history = nil
		s.persistLocked()
		s.mu.Unlock()
		return false
	}

	var dispatches []func()
	for _, snap := range top.Tasks {
		if existing := s.findTaskLocked(snap.ID); existing != nil {
			*existing = snap.Clone()
			w := write{typ: model.WriteUpdate, id: snap.ID, patch: model.FullPatch(snap)}
			if d := s.dispatchLocked(w); d != nil {
				dispatches = append(dispatches, d)
			}
		} else {
			// the task was removed since the snapshot; bring it back
			s.tasks = append(s.tasks, snap.Clone())
			if d := s.dispatchLocked(write{typ: model.WriteAdd, id: snap.ID, task: snap.Clone()}); d != nil {
				dispatches = append(dispatches, d)
			}
		}
	}
	s.history = s.history[:len(s.history)-1]
	s.persistLocked()
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
	return true
}
