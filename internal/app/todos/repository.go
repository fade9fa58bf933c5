package todos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTodoNotFound = errors.New("todo not found")

// TodoItem is one task owned by one user. The pair (UserID, TodoID) is the
// record identity; TodoID and CreatedAt never change after creation.
// AttachmentURL is nil until the upload-URL flow records one.
type TodoItem struct {
	UserID        string    `json:"userId"`
	TodoID        string    `json:"todoId"`
	CreatedAt     time.Time `json:"createdAt"`
	Name          string    `json:"name"`
	DueDate       string    `json:"dueDate"`
	Done          bool      `json:"done"`
	AttachmentURL *string   `json:"attachmentUrl"`
}

// TodoUpdate is the full overwrite applied by an update: exactly these three
// fields, no merge with the stored record.
type TodoUpdate struct {
	Name    string
	DueDate string
	Done    bool
}

type Repository interface {
	EnsureSchema(ctx context.Context) error
	ListByOwner(ctx context.Context, userID string) ([]TodoItem, error)
	GetByKey(ctx context.Context, userID, todoID string) (TodoItem, error)
	Put(ctx context.Context, item TodoItem) error
	Update(ctx context.Context, userID, todoID string, update TodoUpdate) error
	Delete(ctx context.Context, userID, todoID string) error
	SetAttachmentURL(ctx context.Context, userID, todoID, attachmentURL string) error
}

type PostgresRepository struct {
	Pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

const createTodoItemsSQL = `
CREATE TABLE IF NOT EXISTS todo_items (
  user_id text NOT NULL,
  todo_id text NOT NULL,
  created_at timestamptz NOT NULL,
  name text NOT NULL,
  due_date text NOT NULL DEFAULT '',
  done boolean NOT NULL DEFAULT false,
  attachment_url text,
  PRIMARY KEY (user_id, todo_id)
)`

const createOwnerIndexSQL = `
CREATE INDEX IF NOT EXISTS todo_items_user_id_idx ON todo_items (user_id)`

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createTodoItemsSQL); err != nil {
		return err
	}
	if _, err := r.Pool.Exec(ctx, createOwnerIndexSQL); err != nil {
		return err
	}
	return nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, userID string) ([]TodoItem, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT user_id, todo_id, created_at, name, due_date, done, attachment_url
		 FROM todo_items
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TodoItem, 0)
	for rows.Next() {
		var item TodoItem
		if err := rows.Scan(
			&item.UserID,
			&item.TodoID,
			&item.CreatedAt,
			&item.Name,
			&item.DueDate,
			&item.Done,
			&item.AttachmentURL,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByKey requires the owner on every lookup; a todo that exists under a
// different owner reads as ErrTodoNotFound.
func (r *PostgresRepository) GetByKey(ctx context.Context, userID, todoID string) (TodoItem, error) {
	var item TodoItem
	err := r.Pool.QueryRow(ctx,
		`SELECT user_id, todo_id, created_at, name, due_date, done, attachment_url
		 FROM todo_items
		 WHERE user_id = $1 AND todo_id = $2`,
		userID, todoID,
	).Scan(
		&item.UserID,
		&item.TodoID,
		&item.CreatedAt,
		&item.Name,
		&item.DueDate,
		&item.Done,
		&item.AttachmentURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TodoItem{}, ErrTodoNotFound
		}
		return TodoItem{}, err
	}
	return item, nil
}

// Put is an unconditional upsert; a record with the same identity is
// overwritten without any concurrency check.
func (r *PostgresRepository) Put(ctx context.Context, item TodoItem) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO todo_items (user_id, todo_id, created_at, name, due_date, done, attachment_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, todo_id) DO UPDATE
		 SET created_at = EXCLUDED.created_at,
		     name = EXCLUDED.name,
		     due_date = EXCLUDED.due_date,
		     done = EXCLUDED.done,
		     attachment_url = EXCLUDED.attachment_url`,
		item.UserID, item.TodoID, item.CreatedAt, item.Name, item.DueDate, item.Done, item.AttachmentURL,
	)
	return err
}

// Update overwrites exactly name, due_date and done. A missing record is
// reported as ErrTodoNotFound so callers can tell it apart from a backend
// failure.
func (r *PostgresRepository) Update(ctx context.Context, userID, todoID string, update TodoUpdate) error {
	res, err := r.Pool.Exec(ctx,
		`UPDATE todo_items
		 SET name = $3, due_date = $4, done = $5
		 WHERE user_id = $1 AND todo_id = $2`,
		userID, todoID, update.Name, update.DueDate, update.Done,
	)
	if err != nil {
		log.Printf("update todo %s for user %s: %v", todoID, userID, err)
		return fmt.Errorf("update todo %s: %w", todoID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// Delete is idempotent: removing an absent key succeeds, matching the
// caller-visible behavior of the underlying delete operation.
func (r *PostgresRepository) Delete(ctx context.Context, userID, todoID string) error {
	_, err := r.Pool.Exec(ctx,
		`DELETE FROM todo_items WHERE user_id = $1 AND todo_id = $2`,
		userID, todoID,
	)
	if err != nil {
		log.Printf("delete todo %s for user %s: %v", todoID, userID, err)
		return fmt.Errorf("delete todo %s: %w", todoID, err)
	}
	return nil
}

func (r *PostgresRepository) SetAttachmentURL(ctx context.Context, userID, todoID, attachmentURL string) error {
	res, err := r.Pool.Exec(ctx,
		`UPDATE todo_items
		 SET attachment_url = $3
		 WHERE user_id = $1 AND todo_id = $2`,
		userID, todoID, attachmentURL,
	)
	if err != nil {
		return fmt.Errorf("set attachment url on todo %s: %w", todoID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrTodoNotFound
	}
	return nil
}
