package repository

import (
	"context"
	"time"

	"github.com/jaekwang-park/todo-store/internal/model"
)

// TodoRepository persists todos. Lookups of unknown ids return an error
// wrapping sql.ErrNoRows.
type TodoRepository interface {
	Create(ctx context.Context, todo model.Todo) (model.Todo, error)
	GetByID(ctx context.Context, id int64) (model.Todo, error)
	Update(ctx context.Context, id int64, patch model.TodoPatch, updatedAt time.Time) (model.Todo, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter model.TodoFilter) ([]model.Todo, error)
	Stats(ctx context.Context) (model.TodoStats, error)
}
