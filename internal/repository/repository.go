// Package repository provides durable task storage behind a single
// interface, with a remote Postgres document store for authenticated
// users and a local SQLite fallback for everyone else.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"todoflow/internal/model"
)

// TaskRepository abstracts durable task persistence. Deletion is always
// a soft delete; documents are never removed through this interface.
type TaskRepository interface {
	// AddTask writes the task and returns its id.
	AddTask(ctx context.Context, task model.Task) (string, error)

	// UpdateTask merges the patch into the stored task. Fields absent
	// from the patch are left untouched.
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error

	// DeleteTask marks the task deleted without removing the document.
	DeleteTask(ctx context.Context, id string) error

	// Subscribe registers a callback that receives the full task
	// collection: once immediately, then on every change the backend
	// can observe. The returned function cancels the subscription and
	// must be called exactly once.
	Subscribe(onTasks func([]model.Task)) (func(), error)
}

// Factory selects a repository implementation for an identity.
type Factory struct {
	db   *gorm.DB
	pool *pgxpool.Pool
}

// NewFactory builds a factory. pool may be nil when no remote backend is
// configured; every identity then falls back to local storage.
func NewFactory(db *gorm.DB, pool *pgxpool.Pool) *Factory {
	return &Factory{db: db, pool: pool}
}

// ForUser returns the remote repository when an authenticated identity
// and a remote backend are both available, the local fallback otherwise.
func (f *Factory) ForUser(uid string) TaskRepository {
	if uid != "" && f.pool != nil {
		return NewRemoteRepository(f.pool, uid)
	}
	return NewLocalRepository(f.db)
}
