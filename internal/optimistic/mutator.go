package optimistic

import (
	"context"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/arvidk/taskdeck/internal/service"
	"github.com/google/uuid"
)

// ServiceMutator adapts the task service to the engine's Mutator interface.
// The acting user is bound once at construction and threaded explicitly into
// every call; there is no ambient identity anywhere on the mutation path.
type ServiceMutator struct {
	tasks  *service.TaskService
	userID uuid.UUID
}

// NewServiceMutator binds the task service to one user's identity.
func NewServiceMutator(tasks *service.TaskService, userID uuid.UUID) *ServiceMutator {
	return &ServiceMutator{tasks: tasks, userID: userID}
}

func (m *ServiceMutator) CreateTask(ctx context.Context, workspaceID uuid.UUID, input domain.TaskCreate) (*domain.Task, error) {
	return m.tasks.Create(ctx, m.userID, workspaceID, input)
}

func (m *ServiceMutator) UpdateStatus(ctx context.Context, taskID uuid.UUID, status domain.TaskStatus) error {
	return m.tasks.UpdateStatus(ctx, m.userID, taskID, status)
}

func (m *ServiceMutator) UpdatePriority(ctx context.Context, taskID uuid.UUID, priority *domain.TaskPriority) error {
	return m.tasks.UpdatePriority(ctx, m.userID, taskID, priority)
}

func (m *ServiceMutator) UpdateAssignee(ctx context.Context, taskID uuid.UUID, assigneeID *uuid.UUID) error {
	return m.tasks.UpdateAssignee(ctx, m.userID, taskID, assigneeID)
}

func (m *ServiceMutator) UpdateDescription(ctx context.Context, taskID uuid.UUID, description string) error {
	return m.tasks.UpdateDescription(ctx, m.userID, taskID, description)
}

func (m *ServiceMutator) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return m.tasks.Delete(ctx, m.userID, taskID)
}

func (m *ServiceMutator) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return m.tasks.Reorder(ctx, m.userID, ids)
}

var _ Mutator = (*ServiceMutator)(nil)
