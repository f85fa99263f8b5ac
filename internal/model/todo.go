package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// OrDefault returns p when it is a known priority and PriorityMedium otherwise.
func (p Priority) OrDefault() Priority {
	if p.IsValid() {
		return p
	}
	return PriorityMedium
}

type Todo struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	Priority    Priority  `json:"priority" db:"priority"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TodoFilter selects todos for listing. Nil fields are not filtered on.
type TodoFilter struct {
	Completed *bool
	Priority  *Priority
}

// TodoPatch is a sparse update. Nil fields are left unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
}

func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.Priority == nil
}

type TodoListResult struct {
	Todos []Todo `json:"todos"`
	Count int    `json:"count"`
}

type TodoStats struct {
	Total      int64              `json:"total"`
	Completed  int64              `json:"completed"`
	Pending    int64              `json:"pending"`
	ByPriority map[Priority]int64 `json:"by_priority"`
}
