// Package store holds the live session state and every mutation that
// can touch it. Mutations apply optimistically in memory, land in the
// undo ledger, and mirror to durable storage asynchronously; nothing
// outside this package writes the collections directly.
package store

import (
	"log"
	"sync"
	"time"

	"todoflow/internal/model"
	"todoflow/internal/recurrence"
	"todoflow/internal/repository"
)

// trashRetention is how long soft-deleted tasks stay recoverable.
const trashRetention = 7 * 24 * time.Hour

// RepositoryFactory selects a task repository for a resolved identity.
type RepositoryFactory interface {
	ForUser(uid string) repository.TaskRepository
}

// SessionSaver persists the session snapshot between runs.
type SessionSaver interface {
	Load() (*model.SessionState, error)
	Save(state model.SessionState) error
}

// Options configures a Store. Repos and Session may be nil in tests:
// without a factory mutations queue as pending writes, and without a
// session saver nothing is snapshotted.
type Options struct {
	Repos   RepositoryFactory
	Session SessionSaver
	Notify  func(message string) // user-visible channel for durable-write failures
	Now     func() time.Time
}

// Store is the single in-memory source of session state.
type Store struct {
	mu sync.Mutex

	users         []model.User
	categories    []model.Category
	groups        []model.Group
	tasks         []model.Task
	currentUserID string
	filter        model.TaskFilter
	customEmojis  []string
	workTimer     model.WorkTimer
	history       []model.HistoryAction
	pomodoro      model.PomodoroSettings
	auth          model.AuthState
	pending       []model.PendingWrite
	selected      map[string]bool

	repos   RepositoryFactory
	repo    repository.TaskRepository // nil until auth resolves
	session SessionSaver
	notify  func(string)
	now     func() time.Time
	unsub   func()

	lastAddTitle string
	lastAddAt    time.Time
}

// New builds a store, restoring the previous session snapshot when one
// exists and seeding defaults otherwise. Auth starts in the loading
// state; call SetAuthState once identity resolves.
func New(opts Options) (*Store, error) {
	s := &Store{
		repos:    opts.Repos,
		session:  opts.Session,
		notify:   opts.Notify,
		now:      opts.Now,
		auth:     model.AuthState{Loading: true},
		selected: make(map[string]bool),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notify == nil {
		s.notify = func(msg string) { log.Printf("[notify] %s", msg) }
	}

	if s.session != nil {
		state, err := s.session.Load()
		if err != nil {
			return nil, err
		}
		if state != nil {
			s.restore(*state)
			return s, nil
		}
	}
	s.seedDefaults()
	return s, nil
}

func (s *Store) restore(state model.SessionState) {
	s.users = state.Users
	s.categories = state.Categories
	s.groups = state.Groups
	s.tasks = state.Tasks
	s.currentUserID = state.CurrentUserID
	s.filter = state.Filter
	s.customEmojis = state.CustomEmojis
	s.workTimer = state.WorkTimer
	s.history = state.History
	s.pomodoro = state.PomodoroSettings
}

func (s *Store) seedDefaults() {
	s.users = []model.User{{ID: "1", Name: "Me", Email: "me@example.com"}}
	s.currentUserID = "1"
	s.groups = []model.Group{
		{ID: "group-1", Name: "Personal", Order: 0},
		{ID: "group-2", Name: "Work", Order: 1},
	}
	s.categories = []model.Category{
		{ID: "cat-1", Name: "To do", Color: "#3b82f6", GroupID: "group-1", Order: 0},
		{ID: "cat-2", Name: "Hobby", Color: "#10b981", GroupID: "group-1", Order: 1},
		{ID: "cat-3", Name: "Projects", Color: "#f59e0b", GroupID: "group-2", Order: 0},
		{ID: "cat-4", Name: "Meetings", Color: "#ef4444", GroupID: "group-2", Order: 1},
	}
	s.customEmojis = []string{"⭐", "🔥", "💡", "📝", "🎯", "⚡", "🚀", "💼"}
	s.workTimer = model.WorkTimer{Status: model.TimerStopped}
}

// SetNotifier replaces the error notification channel. Needed because
// the bot that delivers notifications is constructed after the store.
func (s *Store) SetNotifier(fn func(message string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.notify = fn
	}
}

// persistLocked writes the session snapshot. Caller holds the mutex.
func (s *Store) persistLocked() {
	if s.session == nil {
		return
	}
	state := model.SessionState{
		Users:            s.users,
		Categories:       s.categories,
		Groups:           s.groups,
		Tasks:            s.tasks,
		CurrentUserID:    s.currentUserID,
		Filter:           s.filter,
		CustomEmojis:     s.customEmojis,
		WorkTimer:        s.workTimer,
		History:          s.history,
		PomodoroSettings: s.pomodoro,
	}
	if err := s.session.Save(state); err != nil {
		log.Printf("persist session: %v", err)
	}
}

func (s *Store) findTaskLocked(id string) *model.Task {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i]
		}
	}
	return nil
}

func (s *Store) removeTaskLocked(id string) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

// ProcessRecurringTasks spawns today's instances for every recurring
// template that is due one. Safe to call at any interval: the
// one-instance-per-day guard makes overlapping invocations no-ops.
func (s *Store) ProcessRecurringTasks() {
	s.mu.Lock()
	now := s.now()

	var templates []model.Task
	for _, t := range s.tasks {
		if t.IsRecurringTemplate() && !t.IsDeleted {
			templates = append(templates, t)
		}
	}

	var dispatches []func()
	created := 0
	for _, tpl := range templates {
		if !recurrence.ShouldCreateInstance(tpl, s.tasks, now) {
			continue
		}
		inst := recurrence.NewInstance(tpl, now)
		s.tasks = append(s.tasks, inst)
		created++
		if d := s.dispatchLocked(write{typ: model.WriteAdd, id: inst.ID, task: inst.Clone()}); d != nil {
			dispatches = append(dispatches, d)
		}
	}
	if created > 0 {
		s.persistLocked()
	}
	s.mu.Unlock()

	for _, d := range dispatches {
		go d()
	}
}

// PurgeTrash permanently drops soft-deleted tasks past the retention
// window. Local only; remote documents keep their soft-delete marker.
func (s *Store) PurgeTrash() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.IsDeleted && t.DeletedAt != nil && now.Sub(*t.DeletedAt) > trashRetention {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	if removed > 0 {
		s.persistLocked()
	}
}

// Close tears the session down: the subscription is cancelled and the
// final snapshot written.
func (s *Store) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.persistLocked()
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
