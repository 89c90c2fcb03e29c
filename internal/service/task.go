package service

import (
	"context"
	"fmt"
	"time"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
)

// TaskService handles task mutations. Every entry point resolves the task's
// workspace and re-reads the caller's membership row before touching data;
// tokens and earlier requests are never trusted for access.
type TaskService struct {
	taskRepo      domain.TaskRepository
	workspaceRepo domain.WorkspaceRepository
	treeCache     TreeCache
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo domain.TaskRepository, workspaceRepo domain.WorkspaceRepository, treeCache TreeCache) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		workspaceRepo: workspaceRepo,
		treeCache:     treeCache,
	}
}

// verifyTaskAccess loads the task, confirms the user holds a membership row
// in its workspace, and returns the workspace ID along with the task.
func (s *TaskService) verifyTaskAccess(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}

	isMember, err := s.workspaceRepo.IsMember(ctx, task.WorkspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrForbidden)
	}

	return task, nil
}

func (s *TaskService) invalidateTree(ctx context.Context, workspaceID uuid.UUID) {
	if s.treeCache != nil {
		_ = s.treeCache.Invalidate(ctx, workspaceID)
	}
}

// Create adds a task or subtask to the workspace. The new task enters at the
// end of its sibling scope; rank assignment happens atomically in the store.
func (s *TaskService) Create(ctx context.Context, userID, workspaceID uuid.UUID, input domain.TaskCreate) (*domain.Task, error) {
	isMember, err := s.workspaceRepo.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrForbidden)
	}

	var priority *domain.TaskPriority
	if input.Priority != nil {
		p := domain.TaskPriority(*input.Priority)
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unrecognized priority %q", domain.ErrValidation, *input.Priority)
		}
		priority = &p
	}

	if input.ParentID != nil {
		parent, err := s.taskRepo.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent task: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("parent task %s: %w", *input.ParentID, domain.ErrNotFound)
		}
		if parent.WorkspaceID != workspaceID {
			return nil, fmt.Errorf("%w: parent task belongs to another workspace", domain.ErrValidation)
		}
		if parent.ParentID != nil {
			return nil, fmt.Errorf("%w: subtasks cannot have subtasks", domain.ErrValidation)
		}
	}

	if input.AssigneeID != nil {
		assigned, err := s.workspaceRepo.IsMember(ctx, workspaceID, *input.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check assignee membership: %w", err)
		}
		if !assigned {
			return nil, fmt.Errorf("%w: assignee is not a workspace member", domain.ErrValidation)
		}
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		ParentID:    input.ParentID,
		Title:       input.Title,
		Status:      domain.StatusNotStarted,
		Priority:    priority,
		AssigneeID:  input.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.invalidateTree(ctx, workspaceID)

	return task, nil
}

// UpdateStatus sets a task's status
func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, status domain.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unrecognized status %q", domain.ErrValidation, status)
	}

	task, err := s.verifyTaskAccess(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.SetStatus(ctx, taskID, status); err != nil {
		return err
	}

	s.invalidateTree(ctx, task.WorkspaceID)

	return nil
}

// UpdatePriority sets a task's priority; nil clears it
func (s *TaskService) UpdatePriority(ctx context.Context, userID, taskID uuid.UUID, priority *domain.TaskPriority) error {
	if priority != nil && !priority.Valid() {
		return fmt.Errorf("%w: unrecognized priority %q", domain.ErrValidation, *priority)
	}

	task, err := s.verifyTaskAccess(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.SetPriority(ctx, taskID, priority); err != nil {
		return err
	}

	s.invalidateTree(ctx, task.WorkspaceID)

	return nil
}

// UpdateAssignee sets a task's assignee; nil unassigns. A non-nil assignee
// must hold a membership row in the task's workspace.
func (s *TaskService) UpdateAssignee(ctx context.Context, userID, taskID uuid.UUID, assigneeID *uuid.UUID) error {
	task, err := s.verifyTaskAccess(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if assigneeID != nil {
		assigned, err := s.workspaceRepo.IsMember(ctx, task.WorkspaceID, *assigneeID)
		if err != nil {
			return fmt.Errorf("failed to check assignee membership: %w", err)
		}
		if !assigned {
			return fmt.Errorf("%w: assignee is not a workspace member", domain.ErrValidation)
		}
	}

	if err := s.taskRepo.SetAssignee(ctx, taskID, assigneeID); err != nil {
		return err
	}

	s.invalidateTree(ctx, task.WorkspaceID)

	return nil
}

// UpdateDescription sets a task's description
func (s *TaskService) UpdateDescription(ctx context.Context, userID, taskID uuid.UUID, description string) error {
	task, err := s.verifyTaskAccess(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.SetDescription(ctx, taskID, description); err != nil {
		return err
	}

	s.invalidateTree(ctx, task.WorkspaceID)

	return nil
}

// Delete removes a task and, for a top-level task, its direct subtasks
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.verifyTaskAccess(ctx, taskID, userID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return err
	}

	s.invalidateTree(ctx, task.WorkspaceID)

	return nil
}

// Reorder persists a new sibling ordering. The caller submits the complete
// ordered id list for one sibling scope; access is gated through the first
// id, which also pins the workspace whose tree gets invalidated. An empty
// list is a no-op.
func (s *TaskService) Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	task, err := s.verifyTaskAccess(ctx, ids[0], userID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Reorder(ctx, ids); err != nil {
		return err
	}

	s.invalidateTree(ctx, task.WorkspaceID)

	return nil
}

// Get returns a single task after verifying access
func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.verifyTaskAccess(ctx, taskID, userID)
}
