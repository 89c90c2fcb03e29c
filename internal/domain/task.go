package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "Not started"
	StatusInProgress TaskStatus = "In progress"
	StatusDone       TaskStatus = "Done"
)

// Valid reports whether the status is one of the declared values.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TaskPriority is the urgency label of a task. A nil *TaskPriority on a task
// means no priority is set.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// Valid reports whether the priority is one of the declared values.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a unit of work inside a workspace. Tasks nest at most one
// level deep: a task with a non-nil ParentID may not itself have subtasks.
// SortOrder is a dense 0..n-1 rank within the (workspace, parent) sibling
// scope, never a timestamp.
type Task struct {
	ID          uuid.UUID     `json:"id"`
	WorkspaceID uuid.UUID     `json:"workspace_id"`
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      TaskStatus    `json:"status"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	AssigneeID  *uuid.UUID    `json:"assignee_id,omitempty"`
	Assignee    *UserSummary  `json:"assignee,omitempty"`
	SortOrder   int           `json:"sort_order"`
	Subtasks    []Task        `json:"subtasks,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TaskCreate represents task creation data
type TaskCreate struct {
	Title      string     `json:"title" validate:"required,max=500"`
	Priority   *string    `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
}

// TaskRepository defines the interface for task storage. Create assigns the
// task's rank atomically with the insert; Reorder and Delete are
// all-or-nothing transactions.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	SetStatus(ctx context.Context, id uuid.UUID, status TaskStatus) error
	SetPriority(ctx context.Context, id uuid.UUID, priority *TaskPriority) error
	SetAssignee(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) error
	SetDescription(ctx context.Context, id uuid.UUID, description string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, ids []uuid.UUID) error
	ListTree(ctx context.Context, workspaceID uuid.UUID) ([]Task, error)
}
