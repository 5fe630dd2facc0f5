package store

import (
	"testing"
	"time"

	"todoflow/internal/model"
)

func TestAddCategoryOrdersWithinGroup(t *testing.T) {
	s, _ := newTestStore(t)

	// group-1 already holds two seeded categories
	c, err := s.AddCategory(model.Category{Name: "Errands", Color: "#888", GroupID: "group-1"})
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if c.ID == "" {
		t.Fatal("id not assigned")
	}
	if c.Order != 2 {
		t.Fatalf("order = %d, want 2", c.Order)
	}

	if _, err := s.AddCategory(model.Category{GroupID: "group-1"}); err == nil {
		t.Fatal("empty name must be rejected")
	}
}

func TestUpdateCategory(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.UpdateCategory("cat-1", "Inbox", ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	for _, c := range s.Categories() {
		if c.ID == "cat-1" {
			if c.Name != "Inbox" {
				t.Fatalf("name = %q", c.Name)
			}
			if c.Color != "#3b82f6" {
				t.Fatalf("empty color must leave the old one, got %q", c.Color)
			}
		}
	}

	if err := s.UpdateCategory("nope", "x", ""); err == nil {
		t.Fatal("want error for unknown category")
	}
}

func TestDeleteCategoryClearsTaskRefs(t *testing.T) {
	s, _ := newTestStore(t)
	task := mustAdd(t, s, model.Task{Title: "Filed", CategoryID: "cat-1"})

	s.DeleteCategory("cat-1")

	if got := len(s.Categories()); got != 3 {
		t.Fatalf("categories = %d, want 3", got)
	}
	got, ok := s.Task(task.ID)
	if !ok {
		t.Fatal("task must survive its category")
	}
	if got.CategoryID != "" {
		t.Fatalf("categoryId = %q, want cleared", got.CategoryID)
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	s, _ := newTestStore(t)
	inGroup := mustAdd(t, s, model.Task{Title: "In group", CategoryID: "cat-1"})
	elsewhere := mustAdd(t, s, model.Task{Title: "Elsewhere", CategoryID: "cat-3"})

	s.DeleteGroup("group-1") // owns cat-1 and cat-2

	if got := len(s.Groups()); got != 1 {
		t.Fatalf("groups = %d, want 1", got)
	}
	for _, c := range s.Categories() {
		if c.GroupID == "group-1" {
			t.Fatalf("category %s survived its group", c.ID)
		}
	}

	got, _ := s.Task(inGroup.ID)
	if got.CategoryID != "" {
		t.Fatalf("categoryId = %q, want cleared by cascade", got.CategoryID)
	}
	got, _ = s.Task(elsewhere.ID)
	if got.CategoryID != "cat-3" {
		t.Fatalf("unrelated task touched: categoryId = %q", got.CategoryID)
	}
}

func TestDeleteCategoryMirrorsClearing(t *testing.T) {
	s, _, repo := newSyncedStore(t)
	task := mustAdd(t, s, model.Task{Title: "Filed", CategoryID: "cat-1"})
	waitFor(t, func() bool { return repo.opCount() >= 1 })

	s.DeleteCategory("cat-1")
	if !s.CanUndo() {
		t.Fatal("cascade must land in the undo ledger")
	}
	waitFor(t, func() bool { return repo.opCount() >= 2 })

	// a subsequent push must not resurrect the dead category id
	repo.mu.Lock()
	push := repo.push
	snapshot := repo.list()
	repo.mu.Unlock()
	push(snapshot)

	got, _ := s.Task(task.ID)
	if got.CategoryID != "" {
		t.Fatalf("categoryId = %q after remote push, want cleared", got.CategoryID)
	}
}

func TestDeleteGroupMirrorsClearing(t *testing.T) {
	s, _, repo := newSyncedStore(t)
	task := mustAdd(t, s, model.Task{Title: "In group", CategoryID: "cat-2"})
	waitFor(t, func() bool { return repo.opCount() >= 1 })

	s.DeleteGroup("group-1") // owns cat-1 and cat-2
	waitFor(t, func() bool { return repo.opCount() >= 2 })

	repo.mu.Lock()
	push := repo.push
	snapshot := repo.list()
	repo.mu.Unlock()
	push(snapshot)

	got, _ := s.Task(task.ID)
	if got.CategoryID != "" {
		t.Fatalf("categoryId = %q after remote push, want cleared", got.CategoryID)
	}
}

func TestDeleteCategoryWithoutTasksRecordsNothing(t *testing.T) {
	s, _ := newTestStore(t)

	s.DeleteCategory("cat-4")
	if s.CanUndo() {
		t.Fatal("a cascade touching no tasks must not create a ledger entry")
	}
}

func TestReorderCategoriesAndGroups(t *testing.T) {
	s, _ := newTestStore(t)

	cats := s.Categories()
	reversed := make([]model.Category, 0, len(cats))
	for i := len(cats) - 1; i >= 0; i-- {
		reversed = append(reversed, cats[i])
	}
	s.ReorderCategories(reversed)

	got := s.Categories()
	for i := range got {
		if got[i].Order != i {
			t.Fatalf("category %s order = %d, want %d", got[i].ID, got[i].Order, i)
		}
	}
	if got[0].ID != "cat-4" {
		t.Fatalf("first category = %s", got[0].ID)
	}

	groups := s.Groups()
	s.ReorderGroups([]model.Group{groups[1], groups[0]})
	gg := s.Groups()
	if gg[0].ID != "group-2" || gg[0].Order != 0 {
		t.Fatalf("groups = %+v", gg)
	}
}

func TestUsers(t *testing.T) {
	s, _ := newTestStore(t)

	u, err := s.AddUser(model.User{Name: "Sam", Email: "sam@example.com"})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if _, err := s.AddUser(model.User{}); err == nil {
		t.Fatal("empty name must be rejected")
	}

	if err := s.SetCurrentUser(u.ID); err != nil {
		t.Fatalf("set current user: %v", err)
	}
	cur, ok := s.CurrentUser()
	if !ok || cur.ID != u.ID {
		t.Fatalf("current user = %+v", cur)
	}

	if err := s.SetCurrentUser("ghost"); err == nil {
		t.Fatal("want error for unknown user")
	}

	// new tasks default to the new acting identity
	task := mustAdd(t, s, model.Task{Title: "Assigned"})
	if len(task.Assignees) != 1 || task.Assignees[0] != u.ID {
		t.Fatalf("assignees = %v", task.Assignees)
	}
}

func TestCustomEmojis(t *testing.T) {
	s, _ := newTestStore(t)
	before := len(s.CustomEmojis())

	s.AddCustomEmoji("🌈")
	s.AddCustomEmoji("🌈") // dedup
	if got := len(s.CustomEmojis()); got != before+1 {
		t.Fatalf("emojis = %d, want %d", got, before+1)
	}
}

func TestWorkTimer(t *testing.T) {
	s, clock := newTestStore(t)

	if got := s.WorkTimer().Status; got != model.TimerStopped {
		t.Fatalf("status = %s, want stopped", got)
	}

	// break without an active work interval is a no-op
	s.StartBreak()
	if got := s.WorkTimer().Status; got != model.TimerStopped {
		t.Fatalf("status = %s after stray break", got)
	}

	s.StartWork()
	clock.Advance(30 * time.Minute)
	s.StartBreak()

	timer := s.WorkTimer()
	if timer.Status != model.TimerBreak {
		t.Fatalf("status = %s, want break", timer.Status)
	}
	if timer.TotalWorkTime != 1800 {
		t.Fatalf("totalWorkTime = %d, want 1800", timer.TotalWorkTime)
	}

	clock.Advance(10 * time.Minute)
	s.EndWork()

	timer = s.WorkTimer()
	if timer.Status != model.TimerStopped {
		t.Fatalf("status = %s, want stopped", timer.Status)
	}
	if timer.TotalBreakTime != 600 {
		t.Fatalf("totalBreakTime = %d, want 600", timer.TotalBreakTime)
	}
	if timer.WorkStartTime != nil || timer.BreakStartTime != nil {
		t.Fatal("stopped timer must carry no open intervals")
	}
}
