package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"todoflow/internal/model"
)

// notifyChannel carries the uid of the user whose collection changed.
const notifyChannel = "todoflow_tasks"

// RemoteRepository stores each task as a JSONB document keyed by
// (uid, task id) in Postgres. Partial updates merge into the document so
// unspecified fields are never clobbered, and every successful write
// emits a NOTIFY so subscribed sessions re-read the collection.
type RemoteRepository struct {
	pool *pgxpool.Pool
	uid  string
}

func NewRemoteRepository(pool *pgxpool.Pool, uid string) *RemoteRepository {
	return &RemoteRepository{pool: pool, uid: uid}
}

// EnsureTable creates the document table if it doesn't exist.
func EnsureTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_docs (
			uid        TEXT NOT NULL,
			id         TEXT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (uid, id)
		)`)
	if err != nil {
		return fmt.Errorf("create task_docs: %w", err)
	}
	return nil
}

// taskDoc serializes a task for storage. The id lives in the key
// column, not the document. Optional fields the task doesn't carry are
// stripped entirely; explicit nulls in patches survive as nulls.
func taskDoc(task model.Task) ([]byte, error) {
	raw, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "id")
	return json.Marshal(doc)
}

func (r *RemoteRepository) AddTask(ctx context.Context, task model.Task) (string, error) {
	doc, err := taskDoc(task)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}

	// Upsert with merge so a retried add never wipes fields written
	// since the first attempt.
	_, err = r.pool.Exec(ctx, `
		INSERT INTO task_docs (uid, id, doc, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (uid, id)
		DO UPDATE SET doc = task_docs.doc || EXCLUDED.doc, updated_at = NOW()`,
		r.uid, task.ID, doc)
	if err != nil {
		return "", fmt.Errorf("add task %s: %w", task.ID, err)
	}
	return task.ID, r.notify(ctx)
}

func (r *RemoteRepository) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if len(patch) == 0 {
		return nil
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE task_docs SET doc = doc || $3::jsonb, updated_at = NOW()
		WHERE uid = $1 AND id = $2`,
		r.uid, id, raw)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update task %s: no such document", id)
	}
	return r.notify(ctx)
}

func (r *RemoteRepository) DeleteTask(ctx context.Context, id string) error {
	return r.UpdateTask(ctx, id, model.TaskPatch{
		"isDeleted": true,
		"deletedAt": time.Now(),
	})
}

func (r *RemoteRepository) listTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, doc FROM task_docs WHERE uid = $1`, r.uid)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var t model.Task
		if err := json.Unmarshal(doc, &t); err != nil {
			log.Printf("decode task %s: %v", id, err)
			continue
		}
		t.ID = id
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *RemoteRepository) notify(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, r.uid)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Subscribe delivers the current collection immediately, then re-reads
// and re-delivers it whenever a notification for this uid arrives. The
// listener holds a dedicated connection until unsubscribed.
func (r *RemoteRepository) Subscribe(onTasks func([]model.Task)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	initial, err := r.listTasks(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	onTasks(initial)

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("acquire listener conn: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		cancel()
		return nil, fmt.Errorf("listen: %w", err)
	}

	go func() {
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("task subscription: %v", err)
				}
				return
			}
			if n.Payload != r.uid {
				continue
			}
			tasks, err := r.listTasks(ctx)
			if err != nil {
				log.Printf("task subscription reload: %v", err)
				continue
			}
			onTasks(tasks)
		}
	}()

	return cancel, nil
}
