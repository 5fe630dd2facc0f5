package store

import (
	"fmt"
	"testing"
	"time"

	"todoflow/internal/model"
)

func TestUndoEmptyLedger(t *testing.T) {
	s, _ := newTestStore(t)
	if s.CanUndo() {
		t.Fatal("nothing to undo yet")
	}
	if s.Undo() {
		t.Fatal("undo on an empty ledger must report false")
	}
}

func TestUndoUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	task := mustAdd(t, s, model.Task{Title: "Original", Description: "keep"})

	if err := s.UpdateTask(task.ID, model.TaskPatch{"title": "Changed", "description": nil}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !s.CanUndo() {
		t.Fatal("fresh mutation must be undoable")
	}
	if !s.Undo() {
		t.Fatal("undo failed")
	}

	got, _ := s.Task(task.ID)
	if got.Title != "Original" || got.Description != "keep" {
		t.Fatalf("restored task = %+v", got)
	}
}

func TestUndoDelete(t *testing.T) {
	s, _ := newTestStore(t)
	task := mustAdd(t, s, model.Task{Title: "Precious"})

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !s.Undo() {
		t.Fatal("undo failed")
	}

	got, _ := s.Task(task.ID)
	if got.IsDeleted || got.DeletedAt != nil {
		t.Fatalf("undo left delete markers: %+v", got)
	}
}

func TestUndoExpiryClearsLedger(t *testing.T) {
	s, clock := newTestStore(t)
	task := mustAdd(t, s, model.Task{Title: "Too late"})

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	clock.Advance(6 * time.Second)
	if s.CanUndo() {
		t.Fatal("entry past the window must not be undoable")
	}
	if s.Undo() {
		t.Fatal("stale undo must report false")
	}

	got, _ := s.Task(task.ID)
	if !got.IsDeleted {
		t.Fatal("stale undo must not restore anything")
	}

	// the whole ledger is gone, not just the top entry
	s.mu.Lock()
	n := len(s.history)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("ledger = %d entries after expiry, want 0", n)
	}
}

func TestUndoLedgerCap(t *testing.T) {
	s, _ := newTestStore(t)
	task := mustAdd(t, s, model.Task{Title: "Churn"})

	for i := 0; i < 15; i++ {
		if err := s.UpdateTask(task.ID, model.TaskPatch{"title": fmt.Sprintf("rev %d", i)}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	s.mu.Lock()
	n := len(s.history)
	s.mu.Unlock()
	if n != maxHistory {
		t.Fatalf("ledger = %d entries, want %d", n, maxHistory)
	}

	// the oldest surviving snapshot is revision 4, the pre-state of
	// the 6th update
	if !s.Undo() {
		t.Fatal("undo failed")
	}
	got, _ := s.Task(task.ID)
	if got.Title != "rev 13" {
		t.Fatalf("title = %q after one undo", got.Title)
	}
}

func TestUndoReinsertsRemovedTask(t *testing.T) {
	s, _ := newTestStore(t)
	task := mustAdd(t, s, model.Task{Title: "Vanished"})

	if err := s.DeleteTask(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	s.PermanentDeleteTask(task.ID)
	if _, ok := s.Task(task.ID); ok {
		t.Fatal("task should be physically gone")
	}

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	got, ok := s.Task(task.ID)
	if !ok {
		t.Fatal("undo must re-insert the snapshot task")
	}
	if got.Title != "Vanished" || got.IsDeleted {
		t.Fatalf("re-inserted task = %+v", got)
	}
}

func TestUndoCompletionLeavesSpawnedInstance(t *testing.T) {
	s, _ := newTestStore(t)
	task := mustAdd(t, s, model.Task{
		Title:      "Weekly review",
		Recurrence: model.Recurrence{Kind: model.RecurWeekly},
	})

	if err := s.ToggleTaskComplete(task.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := len(s.Tasks()); got != 2 {
		t.Fatalf("tasks = %d, want 2", got)
	}

	if !s.Undo() {
		t.Fatal("undo failed")
	}
	got, _ := s.Task(task.ID)
	if got.Completed {
		t.Fatal("undo must uncomplete the toggled task")
	}
	// the ledger only covered the toggled task, so the spawned
	// instance stays
	if got := len(s.Tasks()); got != 2 {
		t.Fatalf("tasks = %d after undo, want 2", got)
	}
}

func TestUndoIsLIFO(t *testing.T) {
	s, _ := newTestStore(t)
	a := mustAdd(t, s, model.Task{Title: "First"})
	b := mustAdd(t, s, model.Task{Title: "Second"})

	if err := s.DeleteTask(a.ID); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	if err := s.DeleteTask(b.ID); err != nil {
		t.Fatalf("delete b: %v", err)
	}

	if !s.Undo() {
		t.Fatal("first undo failed")
	}
	gotA, _ := s.Task(a.ID)
	gotB, _ := s.Task(b.ID)
	if !gotA.IsDeleted || gotB.IsDeleted {
		t.Fatal("undo must reverse the most recent mutation first")
	}

	if !s.Undo() {
		t.Fatal("second undo failed")
	}
	gotA, _ = s.Task(a.ID)
	if gotA.IsDeleted {
		t.Fatal("second undo must reverse the earlier delete")
	}
}
