package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todoflow/internal/model"
)

// tasksKey is the well-known key the local task collection lives under.
const tasksKey = "todo-app-tasks"

// LocalRepository keeps the whole task collection as one JSON blob in
// SQLite. Subscribe delivers a single snapshot and nothing further:
// there are no live updates across independent sessions.
type LocalRepository struct {
	db *gorm.DB
}

func NewLocalRepository(db *gorm.DB) *LocalRepository {
	return &LocalRepository{db: db}
}

func (r *LocalRepository) load() ([]model.Task, error) {
	var doc Document
	err := r.db.Where("key = ?", tasksKey).First(&doc).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal(doc.Value, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (r *LocalRepository) save(tasks []model.Task) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	doc := Document{Key: tasksKey, Value: raw, UpdatedAt: time.Now()}
	if err := r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error; err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

func (r *LocalRepository) AddTask(ctx context.Context, task model.Task) (string, error) {
	tasks, err := r.load()
	if err != nil {
		return "", err
	}
	tasks = append(tasks, task)
	if err := r.save(tasks); err != nil {
		return "", err
	}
	return task.ID, nil
}

func (r *LocalRepository) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	tasks, err := r.load()
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		if err := tasks[i].Apply(patch); err != nil {
			return fmt.Errorf("apply patch: %w", err)
		}
		tasks[i].UpdatedAt = time.Now()
		return r.save(tasks)
	}
	return nil
}

func (r *LocalRepository) DeleteTask(ctx context.Context, id string) error {
	now := time.Now()
	return r.UpdateTask(ctx, id, model.TaskPatch{"isDeleted": true, "deletedAt": now})
}

func (r *LocalRepository) Subscribe(onTasks func([]model.Task)) (func(), error) {
	tasks, err := r.load()
	if err != nil {
		return nil, err
	}
	onTasks(tasks)
	return func() {}, nil
}
