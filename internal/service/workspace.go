package service

import (
	"context"
	"fmt"
	"time"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
)

// TreeCache caches a workspace's task tree. A nil cache or a cache error
// degrades to the database read path, never to a request failure.
type TreeCache interface {
	Get(ctx context.Context, workspaceID uuid.UUID) ([]domain.Task, error)
	Set(ctx context.Context, workspaceID uuid.UUID, tasks []domain.Task) error
	Invalidate(ctx context.Context, workspaceID uuid.UUID) error
}

// WorkspaceService handles workspace lifecycle and membership
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
	taskRepo      domain.TaskRepository
	userRepo      domain.UserRepository
	treeCache     TreeCache
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(
	workspaceRepo domain.WorkspaceRepository,
	taskRepo domain.TaskRepository,
	userRepo domain.UserRepository,
	treeCache TreeCache,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		treeCache:     treeCache,
	}
}

// Create creates a workspace and enrolls the creator as its owner
func (s *WorkspaceService) Create(ctx context.Context, userID uuid.UUID, input domain.WorkspaceCreate) (*domain.Workspace, error) {
	now := time.Now()
	workspace := &domain.Workspace{
		ID:        uuid.New(),
		Name:      input.Name,
		CreatorID: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	member := &domain.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      userID,
		Role:        domain.RoleOwner,
		CreatedAt:   now,
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add workspace owner: %w", err)
	}

	return workspace, nil
}

// List returns the workspaces the user belongs to
func (s *WorkspaceService) List(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	return workspaces, nil
}

// GetDetail returns a workspace with its members and ordered task tree.
// Non-members get the same error whether or not the workspace exists.
func (s *WorkspaceService) GetDetail(ctx context.Context, userID, workspaceID uuid.UUID) (*domain.WorkspaceDetail, error) {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrForbidden)
	}

	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrNotFound)
	}

	members, err := s.workspaceRepo.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	tasks, err := s.loadTree(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	return &domain.WorkspaceDetail{
		Workspace: *workspace,
		Members:   members,
		Tasks:     tasks,
	}, nil
}

func (s *WorkspaceService) loadTree(ctx context.Context, workspaceID uuid.UUID) ([]domain.Task, error) {
	if s.treeCache != nil {
		if cached, err := s.treeCache.Get(ctx, workspaceID); err == nil && cached != nil {
			return cached, nil
		}
	}

	tasks, err := s.taskRepo.ListTree(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if s.treeCache != nil {
		_ = s.treeCache.Set(ctx, workspaceID, tasks)
	}

	return tasks, nil
}

// Delete removes a workspace. Owner only.
func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member == nil || member.Role != domain.RoleOwner {
		return fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrForbidden)
	}

	if err := s.workspaceRepo.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	if s.treeCache != nil {
		_ = s.treeCache.Invalidate(ctx, workspaceID)
	}

	return nil
}

// InviteMember adds a user to the workspace by email. Owners and admins only.
func (s *WorkspaceService) InviteMember(ctx context.Context, requesterID, workspaceID uuid.UUID, email string) (*domain.WorkspaceMember, error) {
	requester, err := s.workspaceRepo.GetMember(ctx, workspaceID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if requester == nil || !requester.CanManageMembers() {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrForbidden)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}

	member := &domain.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      user.ID,
		Role:        domain.RoleMember,
		CreatedAt:   time.Now(),
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	summary := user.Summary()
	member.User = &summary

	return member, nil
}

// RemoveMember removes a user from the workspace. Owners and admins only,
// and the owner row itself cannot be removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, requesterID, workspaceID, userID uuid.UUID) error {
	requester, err := s.workspaceRepo.GetMember(ctx, workspaceID, requesterID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if requester == nil || !requester.CanManageMembers() {
		return fmt.Errorf("workspace %s: %w", workspaceID, domain.ErrForbidden)
	}

	target, err := s.workspaceRepo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if target == nil {
		return fmt.Errorf("member %s: %w", userID, domain.ErrNotFound)
	}
	if target.Role == domain.RoleOwner {
		return fmt.Errorf("%w: cannot remove the workspace owner", domain.ErrValidation)
	}

	if err := s.workspaceRepo.RemoveMember(ctx, workspaceID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
