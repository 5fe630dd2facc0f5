package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"todoflow/internal/model"
	"todoflow/internal/repository"
)

const writeTimeout = 10 * time.Second

// write is a mutation headed for durable storage.
type write struct {
	typ   model.WriteType
	id    string
	task  model.Task      // add
	patch model.TaskPatch // update/complete
}

// dispatchLocked routes a write: queued while auth is unresolved,
// otherwise returned as a closure the caller runs after unlocking.
func (s *Store) dispatchLocked(w write) func() {
	if s.repo == nil {
		s.pending = append(s.pending, model.PendingWrite{
			ID:        w.id,
			Type:      w.typ,
			Task:      w.task,
			Patch:     w.patch,
			Timestamp: s.now().UnixMilli(),
		})
		return nil
	}
	repo := s.repo
	return func() { s.mirror(repo, w) }
}

// mirror performs the durable half of the two-phase write. A failed add
// rolls the optimistic task back out of the cache: it exists nowhere
// durable and would silently vanish on reload otherwise. Failed updates
// and deletes stay applied locally and ride along on the next sync.
func (s *Store) mirror(repo repository.TaskRepository, w write) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch w.typ {
	case model.WriteAdd:
		_, err = repo.AddTask(ctx, w.task)
	case model.WriteUpdate, model.WriteComplete:
		err = repo.UpdateTask(ctx, w.id, w.patch)
	case model.WriteDelete:
		err = repo.DeleteTask(ctx, w.id)
	}
	if err == nil {
		return
	}

	log.Printf("durable write %s %s: %v", w.typ, w.id, err)
	if w.typ == model.WriteAdd {
		s.mu.Lock()
		s.removeTaskLocked(w.id)
		s.persistLocked()
		notify := s.notify
		s.mu.Unlock()
		notify(fmt.Sprintf("Could not save task %q — it has been removed.", w.task.Title))
		return
	}
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	notify("Could not sync your last change; it is kept locally and will retry on the next sync.")
}

// replay pushes one queued write through the repository. Errors are
// permanent: log and move on, never retry forever.
func (s *Store) replay(repo repository.TaskRepository, pw model.PendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch pw.Type {
	case model.WriteAdd:
		_, err = repo.AddTask(ctx, pw.Task)
	case model.WriteUpdate, model.WriteComplete:
		err = repo.UpdateTask(ctx, pw.ID, pw.Patch)
	case model.WriteDelete:
		err = repo.DeleteTask(ctx, pw.ID)
	}
	if err != nil {
		log.Printf("replay pending %s %s: %v", pw.Type, pw.ID, err)
	}
}

// flushPending drains the queue strictly in enqueue order. Each entry
// leaves the queue only after its replay resolves.
func (s *Store) flushPending(repo repository.TaskRepository) {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		pw := s.pending[0]
		s.mu.Unlock()

		s.replay(repo, pw)

		s.mu.Lock()
		if len(s.pending) > 0 && s.pending[0].ID == pw.ID {
			s.pending = s.pending[1:]
		}
		s.mu.Unlock()
	}
}

// applyRemote is the subscription callback: the authoritative remote
// set, unioned with local tasks whose writes are still in flight so
// they never visibly disappear mid-sync. Applying the same snapshot
// twice changes nothing.
func (s *Store) applyRemote(remote []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(remote))
	merged := make([]model.Task, 0, len(remote)+4)
	for _, t := range remote {
		seen[t.ID] = true
		merged = append(merged, t)
	}
	for _, t := range s.tasks {
		if !seen[t.ID] {
			merged = append(merged, t)
		}
	}
	s.tasks = merged
	s.persistLocked()
}
