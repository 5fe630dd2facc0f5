package recurrence

import (
	"testing"
	"time"

	"todoflow/internal/model"
)

// base is a Monday, well clear of weekends and listed holidays.
var base = time.Date(2025, 7, 14, 10, 0, 0, 0, time.UTC)

func template(kind model.RecurrenceKind, createdAt time.Time) model.Task {
	return model.Task{
		ID:         "tpl-1",
		Title:      "Water the plants",
		Recurrence: model.Recurrence{Kind: kind},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// ============================================================
// Periodic scan
// ============================================================

func TestShouldCreateInstanceDaily(t *testing.T) {
	tpl := template(model.RecurDaily, base.AddDate(0, 0, -1))
	if !ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("expected instance after a full day")
	}

	tpl = template(model.RecurDaily, base.Add(-2*time.Hour))
	if ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("no instance before a full day elapsed")
	}
}

func TestShouldCreateInstanceGuards(t *testing.T) {
	tpl := template(model.RecurNone, base.AddDate(0, 0, -5))
	if ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("non-recurring task must never spawn")
	}

	tpl = template(model.RecurDaily, base.AddDate(0, 0, -5))
	tpl.IsDeleted = true
	if ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("deleted template must not spawn")
	}

	tpl = template(model.RecurDaily, base.AddDate(0, 0, -5))
	tpl.ParentTaskID = "some-root"
	if ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("spawned instances must not spawn themselves")
	}
}

func TestShouldCreateInstanceIdempotentPerDay(t *testing.T) {
	tpl := template(model.RecurDaily, base.AddDate(0, 0, -3))

	existing := []model.Task{{
		ID:           "inst-1",
		ParentTaskID: tpl.ID,
		CreatedAt:    base.Add(-time.Hour), // earlier today
	}}
	if ShouldCreateInstance(tpl, existing, base) {
		t.Fatal("second instance on the same day")
	}

	// a deleted instance doesn't count as today's instance
	existing[0].IsDeleted = true
	if !ShouldCreateInstance(tpl, existing, base) {
		t.Fatal("deleted instance should not block a new one")
	}

	// yesterday's instance doesn't block today
	existing[0].IsDeleted = false
	existing[0].CreatedAt = base.AddDate(0, 0, -1)
	if !ShouldCreateInstance(tpl, existing, base) {
		t.Fatal("yesterday's instance should not block today")
	}
}

func TestShouldCreateInstanceWeekdays(t *testing.T) {
	tpl := template(model.RecurWeekdays, base.AddDate(0, 0, -2))
	if !ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("expected instance on a Monday")
	}

	saturday := time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC)
	if ShouldCreateInstance(tpl, nil, saturday) {
		t.Fatal("weekday recurrence must skip weekends")
	}
}

func TestShouldCreateInstanceWeekly(t *testing.T) {
	tpl := template(model.RecurWeekly, base.AddDate(0, 0, -7))
	if !ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("expected instance after a week")
	}

	tpl = template(model.RecurWeekly, base.AddDate(0, 0, -6))
	if ShouldCreateInstance(tpl, nil, base) {
		t.Fatal("no instance before a full week")
	}
}

func TestShouldCreateInstanceMonthlyByMonthNumber(t *testing.T) {
	// created Jan 31st, checked Feb 1st: month-number diff is 1 even
	// though only a day passed
	created := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	tpl := template(model.RecurMonthly, created)
	if !ShouldCreateInstance(tpl, nil, now) {
		t.Fatal("monthly compares month numbers, not elapsed days")
	}

	sameMonth := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)
	if ShouldCreateInstance(tpl, nil, sameMonth) {
		t.Fatal("no instance within the same month")
	}
}

func TestNewInstance(t *testing.T) {
	tpl := template(model.RecurDaily, base.AddDate(0, 0, -3))
	tpl.Completed = true
	now := base

	inst := NewInstance(tpl, now)
	if inst.ID == tpl.ID || inst.ID == "" {
		t.Fatalf("instance needs a fresh id, got %q", inst.ID)
	}
	if inst.Completed {
		t.Fatal("instance starts incomplete")
	}
	if !inst.IsToday {
		t.Fatal("instance joins today's set")
	}
	if inst.ParentTaskID != tpl.ID {
		t.Fatalf("parent = %q, want %q", inst.ParentTaskID, tpl.ID)
	}
	if inst.Title != tpl.Title {
		t.Fatalf("title changed: %q", inst.Title)
	}
	if !inst.CreatedAt.Equal(now) {
		t.Fatalf("createdAt = %v", inst.CreatedAt)
	}
}

// ============================================================
// Completion cascade
// ============================================================

func TestNextDueDate(t *testing.T) {
	due := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC) // Monday

	cases := []struct {
		rec  model.Recurrence
		want time.Time
	}{
		{model.Recurrence{Kind: model.RecurDaily}, due.AddDate(0, 0, 1)},
		{model.Recurrence{Kind: model.RecurWeekly}, due.AddDate(0, 0, 7)},
		{model.Recurrence{Kind: model.RecurMonthly}, due.AddDate(0, 1, 0)},
	}
	for _, tc := range cases {
		got := NextDueDate(tc.rec, &due, base)
		if !got.Equal(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.rec.Kind, got, tc.want)
		}
	}
}

func TestNextDueDateHonorsInterval(t *testing.T) {
	due := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		rec  model.Recurrence
		want time.Time
	}{
		{model.Recurrence{Kind: model.RecurWeekly, Interval: 2}, due.AddDate(0, 0, 14)},
		{model.Recurrence{Kind: model.RecurMonthly, Interval: 3}, due.AddDate(0, 3, 0)},
		// zero and negative intervals fall back to a single step
		{model.Recurrence{Kind: model.RecurWeekly, Interval: 0}, due.AddDate(0, 0, 7)},
		{model.Recurrence{Kind: model.RecurMonthly, Interval: -1}, due.AddDate(0, 1, 0)},
	}
	for _, tc := range cases {
		got := NextDueDate(tc.rec, &due, base)
		if !got.Equal(tc.want) {
			t.Errorf("%s interval %d: got %v, want %v", tc.rec.Kind, tc.rec.Interval, got, tc.want)
		}
	}
}

func TestNextDueDateWeekdaysSkipsWeekend(t *testing.T) {
	friday := time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC)
	got := NextDueDate(model.Recurrence{Kind: model.RecurWeekdays}, &friday, base)
	want := time.Date(2025, 7, 21, 0, 0, 0, 0, time.UTC) // Monday
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextDueDateWithoutDueDateUsesNow(t *testing.T) {
	got := NextDueDate(model.Recurrence{Kind: model.RecurDaily}, nil, base)
	if !got.Equal(base.AddDate(0, 0, 1)) {
		t.Fatalf("got %v", got)
	}
}

func TestNextInstancePreservesRootParent(t *testing.T) {
	due := base.AddDate(0, 0, -1)
	task := template(model.RecurWeekly, base.AddDate(0, 0, -8))
	task.ID = "gen-2"
	task.ParentTaskID = "root-template"
	task.DueDate = &due

	next := NextInstance(task, base)
	if next.ParentTaskID != "root-template" {
		t.Fatalf("parent = %q, want the chain root", next.ParentTaskID)
	}
	if next.IsToday {
		t.Fatal("cascade instances are due later, not today")
	}
	if next.DueDate == nil || !next.DueDate.Equal(due.AddDate(0, 0, 7)) {
		t.Fatalf("dueDate = %v", next.DueDate)
	}
}

func TestNextInstanceRootSetsParent(t *testing.T) {
	task := template(model.RecurWeekly, base.AddDate(0, 0, -8))
	next := NextInstance(task, base)
	if next.ParentTaskID != task.ID {
		t.Fatalf("parent = %q, want %q", next.ParentTaskID, task.ID)
	}
	if next.Completed || next.CompletedAt != nil {
		t.Fatal("next instance starts incomplete")
	}
}

func TestHolidayCalendar(t *testing.T) {
	christmas := time.Date(2025, 12, 25, 12, 0, 0, 0, time.UTC)
	if !IsHoliday(christmas) || !IsRedDay(christmas) {
		t.Fatal("christmas is a holiday")
	}
	if name := HolidayName(christmas); name != "Christmas Day" {
		t.Fatalf("name = %q", name)
	}
	if IsHoliday(base) {
		t.Fatal("an ordinary Monday is not a holiday")
	}
	if !IsRedDay(time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("Sunday is a red day")
	}
}
