// Package recurrence decides when recurring task templates spawn new
// instances and constructs those instances. Two independent paths exist
// on purpose: the periodic scan reacts to time passing, the completion
// cascade reacts to the user finishing a recurring task. They are kept
// separate because their triggers and date math differ.
package recurrence

import (
	"time"

	"github.com/google/uuid"

	"todoflow/internal/model"
)

const day = 24 * time.Hour

// ShouldCreateInstance reports whether the template must spawn an
// instance today. Only non-deleted top-level templates qualify, and at
// most one instance per template per calendar day is allowed: an
// existing non-deleted instance created today blocks another one.
func ShouldCreateInstance(template model.Task, existing []model.Task, now time.Time) bool {
	if template.Recurrence.Kind == model.RecurNone || !template.Recurrence.Kind.Valid() {
		return false
	}
	if template.IsDeleted || template.ParentTaskID != "" {
		return false
	}

	for _, t := range existing {
		if t.ParentTaskID == template.ID && !t.IsDeleted && SameDay(t.CreatedAt, now) {
			return false
		}
	}

	elapsed := now.Sub(template.CreatedAt)
	switch template.Recurrence.Kind {
	case model.RecurDaily:
		return elapsed >= day
	case model.RecurWeekdays:
		if IsWeekend(now) {
			return false
		}
		return elapsed >= day
	case model.RecurWeekly:
		return elapsed >= 7*day
	case model.RecurMonthly:
		ny, nm, _ := now.Date()
		cy, cm, _ := template.CreatedAt.Date()
		months := (ny-cy)*12 + int(nm) - int(cm)
		return months >= 1
	case model.RecurNone:
		return false
	}
	return false
}

// NewInstance clones the template into today's instance: fresh id,
// incomplete, pinned to today, parented to the template. The title is
// carried over unchanged.
func NewInstance(template model.Task, now time.Time) model.Task {
	t := template.Clone()
	t.ID = uuid.NewString()
	t.Completed = false
	t.IsToday = true
	t.CreatedAt = now
	t.UpdatedAt = now
	t.CompletedAt = nil
	t.IsDeleted = false
	t.DeletedAt = nil
	t.ParentTaskID = template.ID
	return t
}

// NextDueDate advances one recurrence period past the current due date,
// or past now when the task has no due date. Weekday recurrence lands on
// the next business day; weekly and monthly honor the interval step,
// defaulting to 1.
func NextDueDate(rec model.Recurrence, dueDate *time.Time, now time.Time) time.Time {
	base := now
	if dueDate != nil {
		base = *dueDate
	}
	step := rec.Interval
	if step < 1 {
		step = 1
	}

	switch rec.Kind {
	case model.RecurDaily:
		return base.AddDate(0, 0, 1)
	case model.RecurWeekdays:
		next := base.AddDate(0, 0, 1)
		for IsWeekend(next) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case model.RecurWeekly:
		return base.AddDate(0, 0, 7*step)
	case model.RecurMonthly:
		return base.AddDate(0, step, 0)
	case model.RecurNone:
		return base
	}
	return base
}

// NextInstance builds the follow-up instance created when a recurring
// task is completed. ParentTaskID points at the original template across
// the whole chain, never at the immediate predecessor.
func NextInstance(completed model.Task, now time.Time) model.Task {
	next := NextDueDate(completed.Recurrence, completed.DueDate, now)

	t := completed.Clone()
	t.ID = uuid.NewString()
	t.Completed = false
	t.IsToday = false // due on a future date, not today
	t.DueDate = &next
	t.CreatedAt = now
	t.UpdatedAt = now
	t.CompletedAt = nil
	t.IsDeleted = false
	t.DeletedAt = nil
	if completed.ParentTaskID == "" {
		t.ParentTaskID = completed.ID
	}
	return t
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
