package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TaskRepository handles task data access
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// scopeKey produces a stable lock key for one (workspace, parent) sibling
// scope. Concurrent creates into the same scope serialize on it.
func scopeKey(workspaceID uuid.UUID, parentID *uuid.UUID) string {
	if parentID == nil {
		return workspaceID.String()
	}
	return workspaceID.String() + ":" + parentID.String()
}

// Create inserts a task, assigning sort_order = max sibling rank + 1 (0 into
// an empty scope). The max computation and the insert run in one transaction
// holding a transaction-scoped advisory lock on the sibling scope, so two
// concurrent creates can never both observe the same max.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockQuery := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := tx.Exec(ctx, lockQuery, scopeKey(task.WorkspaceID, task.ParentID)); err != nil {
		return fmt.Errorf("failed to lock sibling scope: %w", err)
	}

	rankQuery := `
		SELECT COALESCE(MAX(sort_order) + 1, 0)
		FROM tasks
		WHERE workspace_id = $1 AND parent_id IS NOT DISTINCT FROM $2
	`
	if err := tx.QueryRow(ctx, rankQuery, task.WorkspaceID, task.ParentID).Scan(&task.SortOrder); err != nil {
		return fmt.Errorf("failed to compute sort order: %w", err)
	}

	insertQuery := `
		INSERT INTO tasks (id, workspace_id, parent_id, title, description, status, priority, assignee_id, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.Exec(ctx, insertQuery,
		task.ID,
		task.WorkspaceID,
		task.ParentID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AssigneeID,
		task.SortOrder,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit task create: %w", err)
	}

	return nil
}

// GetByID retrieves a single task row without its subtasks
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, workspace_id, parent_id, title, description, status, priority, assignee_id, sort_order, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var task domain.Task
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.WorkspaceID,
		&task.ParentID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AssigneeID,
		&task.SortOrder,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// SetStatus updates a task's status
func (r *TaskRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	return r.setField(ctx, id, "status", status)
}

// SetPriority updates a task's priority; nil clears it
func (r *TaskRepository) SetPriority(ctx context.Context, id uuid.UUID, priority *domain.TaskPriority) error {
	return r.setField(ctx, id, "priority", priority)
}

// SetAssignee updates a task's assignee; nil unassigns
func (r *TaskRepository) SetAssignee(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) error {
	return r.setField(ctx, id, "assignee_id", assigneeID)
}

// SetDescription updates a task's description
func (r *TaskRepository) SetDescription(ctx context.Context, id uuid.UUID, description string) error {
	return r.setField(ctx, id, "description", description)
}

func (r *TaskRepository) setField(ctx context.Context, id uuid.UUID, column string, value any) error {
	query := fmt.Sprintf(`UPDATE tasks SET %s = $2, updated_at = NOW() WHERE id = $1`, column)

	tag, err := r.db.Pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a task and its direct subtasks in one transaction.
// Deleting a subtask touches exactly one row; sibling ranks are left as-is.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete subtasks: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit task delete: %w", err)
	}

	return nil
}

// Reorder rewrites sort_order = index-in-list for every id, all-or-nothing.
// Because the full sibling sequence is resubmitted and ranks are recomputed
// as list indices, gaps and duplicates cannot survive a successful call.
func (r *TaskRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for index, id := range ids {
		if _, err := tx.Exec(ctx, `UPDATE tasks SET sort_order = $2, updated_at = NOW() WHERE id = $1`, id, index); err != nil {
			return fmt.Errorf("failed to reorder task %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}

	return nil
}

// ListTree returns the workspace's top-level tasks ordered by sort_order,
// each with its subtasks likewise ordered and assignee summaries inlined.
func (r *TaskRepository) ListTree(ctx context.Context, workspaceID uuid.UUID) ([]domain.Task, error) {
	query := `
		SELECT t.id, t.workspace_id, t.parent_id, t.title, t.description, t.status, t.priority, t.assignee_id, t.sort_order, t.created_at, t.updated_at,
		       u.id, u.name, u.email, u.image, u.availability
		FROM tasks t
		LEFT JOIN users u ON u.id = t.assignee_id
		WHERE t.workspace_id = $1
		ORDER BY t.parent_id NULLS FIRST, t.sort_order ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var topLevel []*domain.Task
	byID := make(map[uuid.UUID]*domain.Task)
	var orphans []domain.Task

	for rows.Next() {
		var task domain.Task
		var assigneeID *uuid.UUID
		var name, email, image, availability *string

		if err := rows.Scan(
			&task.ID,
			&task.WorkspaceID,
			&task.ParentID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.AssigneeID,
			&task.SortOrder,
			&task.CreatedAt,
			&task.UpdatedAt,
			&assigneeID,
			&name,
			&email,
			&image,
			&availability,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if assigneeID != nil {
			task.Assignee = &domain.UserSummary{
				ID:           *assigneeID,
				Name:         deref(name),
				Email:        deref(email),
				Image:        deref(image),
				Availability: deref(availability),
			}
		}

		if task.ParentID == nil {
			t := task
			topLevel = append(topLevel, &t)
			byID[t.ID] = &t
		} else if parent, ok := byID[*task.ParentID]; ok {
			parent.Subtasks = append(parent.Subtasks, task)
		} else {
			orphans = append(orphans, task)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	// parent_id NULLS FIRST makes orphans impossible in practice, but a row
	// racing with its parent's delete would otherwise vanish silently.
	for _, task := range orphans {
		if parent, ok := byID[*task.ParentID]; ok {
			parent.Subtasks = append(parent.Subtasks, task)
		}
	}

	tasks := make([]domain.Task, len(topLevel))
	for i, t := range topLevel {
		tasks[i] = *t
	}

	return tasks, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
