package todos

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nuid"

	"github.com/todo-cloud/backend/internal/app/attachments"
	"github.com/todo-cloud/backend/internal/contracts"
	"github.com/todo-cloud/backend/internal/sharding"
)

var ErrNameRequired = errors.New("name is required")
var ErrTodoIDRequired = errors.New("todoId was not provided")

type PublishFunc func(subject string, payload []byte) error

type UploadAuthorizer interface {
	CreateUploadAuthorization(ctx context.Context, objectKey string) (attachments.Authorization, error)
}

// Service orchestrates the repository and the attachment store. It is the
// only layer that assigns identifiers and timestamps.
type Service struct {
	Repo        Repository
	Attachments UploadAuthorizer
	// Publish feeds the change stream after a mutation is persisted. Nil
	// disables the feed; publish failures are logged, never surfaced.
	Publish    PublishFunc
	Now        func() time.Time
	NewID      func() string
	NewEventID func() string
}

func NewService(repo Repository, uploads UploadAuthorizer, publish PublishFunc) *Service {
	return &Service{
		Repo:        repo,
		Attachments: uploads,
		Publish:     publish,
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
		NewEventID:  nuid.Next,
	}
}

type CreateTodoRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
}

type UpdateTodoRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Done    bool   `json:"done"`
}

func (s *Service) ListTodos(ctx context.Context, userID string) ([]TodoItem, error) {
	return s.Repo.ListByOwner(ctx, userID)
}

// CreateTodo builds the item from the caller-supplied name and due date;
// identity, timestamp, done and attachment URL are always server-assigned.
func (s *Service) CreateTodo(ctx context.Context, userID string, req CreateTodoRequest) (TodoItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return TodoItem{}, ErrNameRequired
	}

	item := TodoItem{
		UserID:    userID,
		TodoID:    s.NewID(),
		CreatedAt: s.Now(),
		Name:      name,
		DueDate:   strings.TrimSpace(req.DueDate),
		Done:      false,
	}
	if err := s.Repo.Put(ctx, item); err != nil {
		return TodoItem{}, err
	}

	s.publishEvent(contracts.EventTodoCreated, userID, item.TodoID, item.Name)
	return item, nil
}

func (s *Service) UpdateTodo(ctx context.Context, userID, todoID string, req UpdateTodoRequest) error {
	if strings.TrimSpace(todoID) == "" {
		return ErrTodoIDRequired
	}

	update := TodoUpdate{Name: req.Name, DueDate: req.DueDate, Done: req.Done}
	if err := s.Repo.Update(ctx, userID, todoID, update); err != nil {
		return err
	}

	s.publishEvent(contracts.EventTodoUpdated, userID, todoID, req.Name)
	return nil
}

func (s *Service) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if strings.TrimSpace(todoID) == "" {
		return ErrTodoIDRequired
	}

	if err := s.Repo.Delete(ctx, userID, todoID); err != nil {
		return err
	}

	s.publishEvent(contracts.EventTodoDeleted, userID, todoID, "")
	return nil
}

// GenerateUploadURL mints a pre-signed upload URL for the todo's attachment
// object and records the public URL on the item before handing the signed
// URL back, so a returned URL always implies a recorded one.
func (s *Service) GenerateUploadURL(ctx context.Context, userID, todoID string) (string, error) {
	if strings.TrimSpace(todoID) == "" {
		return "", ErrTodoIDRequired
	}

	if _, err := s.Repo.GetByKey(ctx, userID, todoID); err != nil {
		return "", err
	}

	auth, err := s.Attachments.CreateUploadAuthorization(ctx, todoID)
	if err != nil {
		return "", err
	}
	if err := s.Repo.SetAttachmentURL(ctx, userID, todoID, auth.PublicURL); err != nil {
		return "", err
	}

	s.publishEvent(contracts.EventTodoAttached, userID, todoID, "")
	return auth.UploadURL, nil
}

func (s *Service) publishEvent(eventType, userID, todoID, name string) {
	if s.Publish == nil {
		return
	}

	event := contracts.TodoEvent{
		EventID:    s.NewEventID(),
		TodoID:     todoID,
		UserID:     userID,
		EventType:  eventType,
		Name:       name,
		OccurredAt: s.Now(),
		ShardID:    sharding.GetShardID(userID),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal %s event for todo %s: %v", eventType, todoID, err)
		return
	}
	if err := s.Publish(sharding.GetSubject(userID), payload); err != nil {
		log.Printf("publish %s event for todo %s: %v", eventType, todoID, err)
	}
}
