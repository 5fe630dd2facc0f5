package model

import (
	"encoding/json"
	"time"
)

// RecurrenceKind is the closed set of supported recurrence rules.
type RecurrenceKind string

const (
	RecurNone     RecurrenceKind = "none"
	RecurDaily    RecurrenceKind = "daily"
	RecurWeekdays RecurrenceKind = "weekdays"
	RecurWeekly   RecurrenceKind = "weekly"
	RecurMonthly  RecurrenceKind = "monthly"
)

// Valid reports whether k is one of the known kinds.
func (k RecurrenceKind) Valid() bool {
	switch k {
	case RecurNone, RecurDaily, RecurWeekdays, RecurWeekly, RecurMonthly:
		return true
	}
	return false
}

// Recurrence describes how a task repeats.
type Recurrence struct {
	Kind       RecurrenceKind `json:"type"`
	Interval   int            `json:"interval,omitempty"`   // weekly/monthly step, 1 when zero
	DaysOfWeek []int          `json:"daysOfWeek,omitempty"` // 0-6, Sunday-Saturday
}

// SubTask is a checklist item inside a task.
type SubTask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Order     int    `json:"order"`
}

// Pomodoro marks a task as running under a pomodoro timer.
type Pomodoro struct {
	Enabled bool       `json:"enabled"`
	EndTime *time.Time `json:"endTime,omitempty"`
}

// Task is the central entity of the planner. The id is generated
// client-side and doubles as the remote document key.
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Completed    bool       `json:"completed"`
	IsToday      bool       `json:"isToday"`
	IsImportant  bool       `json:"isImportant,omitempty"`
	Assignees    []string   `json:"assignees"` // user ids
	CategoryID   string     `json:"categoryId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	DueTime      string     `json:"dueTime,omitempty"` // HH:MM
	Emoji        string     `json:"emoji,omitempty"`
	Recurrence   Recurrence `json:"recurrence"`
	ParentTaskID string     `json:"parentTaskId,omitempty"` // recurring template that spawned this instance
	IsDeleted    bool       `json:"isDeleted"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	Order        int        `json:"order"`
	Subtasks     []SubTask  `json:"subtasks,omitempty"`
	Pomodoro     *Pomodoro  `json:"pomodoro,omitempty"`
}

// IsRecurringTemplate reports whether the task is a top-level recurring
// template, as opposed to an instance spawned from one.
func (t *Task) IsRecurringTemplate() bool {
	return t.Recurrence.Kind != RecurNone && t.Recurrence.Kind.Valid() && t.ParentTaskID == ""
}

// Clone returns a deep copy, safe to keep as an undo snapshot while the
// original keeps mutating.
func (t Task) Clone() Task {
	c := t
	if t.Assignees != nil {
		c.Assignees = append([]string(nil), t.Assignees...)
	}
	if t.Subtasks != nil {
		c.Subtasks = append([]SubTask(nil), t.Subtasks...)
	}
	if t.Recurrence.DaysOfWeek != nil {
		c.Recurrence.DaysOfWeek = append([]int(nil), t.Recurrence.DaysOfWeek...)
	}
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.DueDate = cloneTime(t.DueDate)
	c.DeletedAt = cloneTime(t.DeletedAt)
	if t.Pomodoro != nil {
		p := *t.Pomodoro
		p.EndTime = cloneTime(t.Pomodoro.EndTime)
		c.Pomodoro = &p
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// optionalTaskKeys are the JSON fields omitted from a marshalled task
// when empty. FullPatch spells them out as explicit nulls so the patch
// clears them instead of leaving stale values behind.
var optionalTaskKeys = []string{
	"description", "isImportant", "completedAt", "dueDate", "dueTime",
	"emoji", "categoryId", "parentTaskId", "deletedAt", "subtasks",
	"pomodoro",
}

// FullPatch renders the whole task as a patch that overwrites a stored
// document completely, explicit nulls included.
func FullPatch(t Task) TaskPatch {
	raw, err := json.Marshal(t)
	if err != nil {
		return TaskPatch{}
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return TaskPatch{}
	}
	delete(doc, "id")
	for _, key := range optionalTaskKeys {
		if _, ok := doc[key]; !ok {
			doc[key] = nil
		}
	}
	return doc
}

// TaskPatch is a partial task update keyed by the task's JSON field
// names. An absent key means "leave unchanged" and is never transmitted;
// a present key with a nil value means "explicitly empty".
type TaskPatch map[string]any

// Apply merges the patch into the task through its JSON representation,
// so patch semantics match what the remote document store does.
func (t *Task) Apply(patch TaskPatch) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range patch {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var out Task
	if err := json.Unmarshal(merged, &out); err != nil {
		return err
	}
	out.ID = t.ID
	*t = out
	return nil
}
