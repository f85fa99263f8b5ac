package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jaekwang-park/todo-store/internal/model"
)

const todoColumns = `id, title, description, completed, priority, created_at, updated_at`

// listVariant identifies which filters a list query binds.
type listVariant int

const (
	listAll listVariant = iota
	listByCompleted
	listByPriority
	listByCompletedAndPriority
)

// Queries are written with '?' placeholders and rebound for the driver once.
var rawListQueries = map[listVariant]string{
	listAll: `SELECT ` + todoColumns + ` FROM todos
		ORDER BY created_at DESC, id DESC`,
	listByCompleted: `SELECT ` + todoColumns + ` FROM todos
		WHERE completed = ?
		ORDER BY created_at DESC, id DESC`,
	listByPriority: `SELECT ` + todoColumns + ` FROM todos
		WHERE priority = ?
		ORDER BY created_at DESC, id DESC`,
	listByCompletedAndPriority: `SELECT ` + todoColumns + ` FROM todos
		WHERE completed = ? AND priority = ?
		ORDER BY created_at DESC, id DESC`,
}

const (
	createQuery = `
		INSERT INTO todos (title, description, completed, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING ` + todoColumns

	getByIDQuery = `SELECT ` + todoColumns + ` FROM todos WHERE id = ?`

	// Absent patch fields are bound as NULL and keep the stored value, so a
	// partial update is one statement with no prior existence check.
	updateQuery = `
		UPDATE todos
		SET title = COALESCE(?, title),
			description = COALESCE(?, description),
			completed = COALESCE(?, completed),
			priority = COALESCE(?, priority),
			updated_at = ?
		WHERE id = ?
		RETURNING ` + todoColumns

	deleteQuery = `DELETE FROM todos WHERE id = ?`

	statsQuery = `
		SELECT priority,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS done
		FROM todos
		GROUP BY priority`
)

type SQLTodoRepository struct {
	db      *DB
	list    map[listVariant]string
	create  string
	getByID string
	update  string
	delete  string
	stats   string
}

func NewSQLTodo(db *DB) *SQLTodoRepository {
	list := make(map[listVariant]string, len(rawListQueries))
	for v, q := range rawListQueries {
		list[v] = db.Rebind(q)
	}
	return &SQLTodoRepository{
		db:      db,
		list:    list,
		create:  db.Rebind(createQuery),
		getByID: db.Rebind(getByIDQuery),
		update:  db.Rebind(updateQuery),
		delete:  db.Rebind(deleteQuery),
		stats:   db.Rebind(statsQuery),
	}
}

func (r *SQLTodoRepository) Create(ctx context.Context, todo model.Todo) (model.Todo, error) {
	var created model.Todo
	err := r.db.GetContext(ctx, &created, r.create,
		todo.Title, todo.Description, todo.Completed, string(todo.Priority), todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to insert todo: %w", err)
	}
	return created, nil
}

func (r *SQLTodoRepository) GetByID(ctx context.Context, id int64) (model.Todo, error) {
	var todo model.Todo
	if err := r.db.GetContext(ctx, &todo, r.getByID, id); err != nil {
		return model.Todo{}, fmt.Errorf("failed to get todo %d: %w", id, err)
	}
	return todo, nil
}

func (r *SQLTodoRepository) Update(ctx context.Context, id int64, patch model.TodoPatch, updatedAt time.Time) (model.Todo, error) {
	var priority *string
	if patch.Priority != nil {
		p := string(*patch.Priority)
		priority = &p
	}

	var todo model.Todo
	err := r.db.GetContext(ctx, &todo, r.update,
		patch.Title, patch.Description, patch.Completed, priority, updatedAt, id,
	)
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to update todo %d: %w", id, err)
	}
	return todo, nil
}

func (r *SQLTodoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.delete, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *SQLTodoRepository) List(ctx context.Context, filter model.TodoFilter) ([]model.Todo, error) {
	variant, args := listQueryFor(filter)

	todos := []model.Todo{}
	if err := r.db.SelectContext(ctx, &todos, r.list[variant], args...); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func listQueryFor(filter model.TodoFilter) (listVariant, []any) {
	switch {
	case filter.Completed != nil && filter.Priority != nil:
		return listByCompletedAndPriority, []any{*filter.Completed, string(*filter.Priority)}
	case filter.Completed != nil:
		return listByCompleted, []any{*filter.Completed}
	case filter.Priority != nil:
		return listByPriority, []any{string(*filter.Priority)}
	default:
		return listAll, nil
	}
}

type priorityCount struct {
	Priority model.Priority `db:"priority"`
	Total    int64          `db:"total"`
	Done     int64          `db:"done"`
}

// Stats aggregates in one statement so the totals and the per-priority
// breakdown always describe the same snapshot.
func (r *SQLTodoRepository) Stats(ctx context.Context) (model.TodoStats, error) {
	var counts []priorityCount
	if err := r.db.SelectContext(ctx, &counts, r.stats); err != nil {
		return model.TodoStats{}, fmt.Errorf("failed to aggregate todos: %w", err)
	}

	stats := model.TodoStats{ByPriority: make(map[model.Priority]int64, len(counts))}
	for _, c := range counts {
		stats.Total += c.Total
		stats.Completed += c.Done
		stats.ByPriority[c.Priority] = c.Total
	}
	stats.Pending = stats.Total - stats.Completed

	return stats, nil
}

// ensure compile-time interface compliance
var _ TodoRepository = (*SQLTodoRepository)(nil)
