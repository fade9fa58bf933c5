package contracts

import "time"

const (
	EventTodoCreated  = "todo.created"
	EventTodoUpdated  = "todo.updated"
	EventTodoDeleted  = "todo.deleted"
	EventTodoAttached = "todo.attached"
)

// TodoEvent is the change-feed record published after a todo mutation has
// been persisted. Consumers must tolerate duplicates; delivery is at-least-once.
type TodoEvent struct {
	EventID    string    `json:"event_id"`
	TodoID     string    `json:"todo_id"`
	UserID     string    `json:"user_id"`
	EventType  string    `json:"event_type"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	ShardID    int       `json:"shard_id"`
}
