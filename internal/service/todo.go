package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaekwang-park/todo-store/internal/model"
	"github.com/jaekwang-park/todo-store/internal/repository"
)

const (
	msgTitleRequired = "Title is required"
	msgTitleEmpty    = "Title cannot be empty"
	msgTodoNotFound  = "Todo not found"
)

// OperationRecorder observes the outcome of each service operation.
type OperationRecorder interface {
	RecordOperation(operation, outcome string)
}

type CreateTodoInput struct {
	Title       string `validate:"required"`
	Description string
	Priority    model.Priority
}

// UpdateTodoInput is a sparse update; nil fields are not touched.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *model.Priority
}

type TodoService struct {
	repo     repository.TodoRepository
	validate *validator.Validate
	tracer   trace.Tracer
	recorder OperationRecorder
	now      func() time.Time
}

type Option func(*TodoService)

func WithRecorder(r OperationRecorder) Option {
	return func(s *TodoService) {
		s.recorder = r
	}
}

// WithClock overrides the timestamp source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) {
		s.now = now
	}
}

func NewTodoService(repo repository.TodoRepository, opts ...Option) *TodoService {
	s := &TodoService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("github.com/jaekwang-park/todo-store/internal/service"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is truncated to microseconds so every storage engine round-trips
// it unchanged.
func (s *TodoService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *TodoService) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "TodoService."+op, trace.WithAttributes(attrs...))
}

func (s *TodoService) finish(span trace.Span, op string, err error) {
	defer span.End()
	if s.recorder != nil {
		s.recorder.RecordOperation(op, KindOf(err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err))
	}
}

func (s *TodoService) Create(ctx context.Context, input CreateTodoInput) (_ model.Todo, err error) {
	ctx, span := s.start(ctx, "Create")
	defer func() { s.finish(span, "create", err) }()

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.validate.Struct(input); err != nil {
		return model.Todo{}, validationError(validationMessage(err))
	}

	now := s.timestamp()
	todo := model.Todo{
		Title:       input.Title,
		Description: input.Description,
		Completed:   false,
		Priority:    input.Priority.OrDefault(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, todo)
	if err != nil {
		return model.Todo{}, storageError("failed to create todo", err)
	}

	span.SetAttributes(attribute.Int64("todo.id", created.ID))
	return created, nil
}

func (s *TodoService) Get(ctx context.Context, id int64) (_ model.Todo, err error) {
	ctx, span := s.start(ctx, "Get", attribute.Int64("todo.id", id))
	defer func() { s.finish(span, "get", err) }()

	todo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Todo{}, repoError("failed to get todo", err)
	}
	return todo, nil
}

// Update applies the supplied fields. An invalid priority is ignored; if no
// field remains the stored todo is returned untouched.
func (s *TodoService) Update(ctx context.Context, id int64, input UpdateTodoInput) (_ model.Todo, err error) {
	ctx, span := s.start(ctx, "Update", attribute.Int64("todo.id", id))
	defer func() { s.finish(span, "update", err) }()

	var patch model.TodoPatch
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return model.Todo{}, validationError(msgTitleEmpty)
		}
		patch.Title = &title
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		patch.Description = &desc
	}
	if input.Completed != nil {
		completed := *input.Completed
		patch.Completed = &completed
	}
	if input.Priority != nil && input.Priority.IsValid() {
		priority := *input.Priority
		patch.Priority = &priority
	}

	if patch.IsEmpty() {
		todo, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return model.Todo{}, repoError("failed to get todo for update", err)
		}
		return todo, nil
	}

	updated, err := s.repo.Update(ctx, id, patch, s.timestamp())
	if err != nil {
		return model.Todo{}, repoError("failed to update todo", err)
	}
	return updated, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.start(ctx, "Delete", attribute.Int64("todo.id", id))
	defer func() { s.finish(span, "delete", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return repoError("failed to delete todo", err)
	}
	return nil
}

func (s *TodoService) List(ctx context.Context, filter model.TodoFilter) (_ model.TodoListResult, err error) {
	ctx, span := s.start(ctx, "List",
		attribute.Bool("filter.completed", filter.Completed != nil),
		attribute.Bool("filter.priority", filter.Priority != nil),
	)
	defer func() { s.finish(span, "list", err) }()

	todos, err := s.repo.List(ctx, filter)
	if err != nil {
		return model.TodoListResult{}, storageError("failed to list todos", err)
	}
	if todos == nil {
		todos = []model.Todo{}
	}

	return model.TodoListResult{Todos: todos, Count: len(todos)}, nil
}

func (s *TodoService) Stats(ctx context.Context) (_ model.TodoStats, err error) {
	ctx, span := s.start(ctx, "Stats")
	defer func() { s.finish(span, "stats", err) }()

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return model.TodoStats{}, storageError("failed to compute stats", err)
	}
	if stats.ByPriority == nil {
		stats.ByPriority = map[model.Priority]int64{}
	}
	return stats, nil
}

// repoError maps a missing row to ErrNotFound and anything else to ErrStorage.
func repoError(msg string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError(msgTodoNotFound)
	}
	return storageError(msg, err)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	if fe.Field() == "Title" && fe.Tag() == "required" {
		return msgTitleRequired
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
