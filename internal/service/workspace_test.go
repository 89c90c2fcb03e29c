package service

import (
	"context"
	"testing"

	"github.com/arvidk/taskdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestWorkspaceService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockWorkspaceRepo := new(MockWorkspaceRepository)
	svc := NewWorkspaceService(mockWorkspaceRepo, nil, nil, nil)

	mockWorkspaceRepo.On("Create", ctx, mock.AnythingOfType("*domain.Workspace")).Return(nil)
	mockWorkspaceRepo.On("AddMember", ctx, mock.MatchedBy(func(m *domain.WorkspaceMember) bool {
		return m.UserID == userID && m.Role == domain.RoleOwner
	})).Return(nil)

	workspace, err := svc.Create(ctx, userID, domain.WorkspaceCreate{Name: "Engineering"})
	assert.NoError(t, err)
	assert.Equal(t, "Engineering", workspace.Name)
	assert.Equal(t, userID, workspace.CreatorID)

	mockWorkspaceRepo.AssertExpectations(t)
}

func TestWorkspaceService_GetDetail(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	workspaceID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		mockTaskRepo := new(MockTaskRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, mockTaskRepo, nil, nil)

		tasks := []domain.Task{
			{ID: uuid.New(), SortOrder: 0, Title: "first"},
			{ID: uuid.New(), SortOrder: 1, Title: "second"},
		}
		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, userID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: userID, Role: domain.RoleMember,
		}, nil)
		mockWorkspaceRepo.On("GetByID", ctx, workspaceID).Return(&domain.Workspace{ID: workspaceID, Name: "Engineering"}, nil)
		mockWorkspaceRepo.On("ListMembers", ctx, workspaceID).Return([]domain.WorkspaceMember{}, nil)
		mockTaskRepo.On("ListTree", ctx, workspaceID).Return(tasks, nil)

		detail, err := svc.GetDetail(ctx, userID, workspaceID)
		assert.NoError(t, err)
		assert.Equal(t, "Engineering", detail.Name)
		assert.Len(t, detail.Tasks, 2)
		assert.Equal(t, 0, detail.Tasks[0].SortOrder)

		mockWorkspaceRepo.AssertExpectations(t)
	})

	t.Run("non-member forbidden", func(t *testing.T) {
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, nil, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, userID).Return(nil, nil)

		_, err := svc.GetDetail(ctx, userID, workspaceID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		mockWorkspaceRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestWorkspaceService_Delete(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("owner can delete", func(t *testing.T) {
		ownerID := uuid.New()
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, nil, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, ownerID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: ownerID, Role: domain.RoleOwner,
		}, nil)
		mockWorkspaceRepo.On("Delete", ctx, workspaceID).Return(nil)

		err := svc.Delete(ctx, ownerID, workspaceID)
		assert.NoError(t, err)
		mockWorkspaceRepo.AssertExpectations(t)
	})

	t.Run("admin cannot delete", func(t *testing.T) {
		adminID := uuid.New()
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, nil, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, adminID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: adminID, Role: domain.RoleAdmin,
		}, nil)

		err := svc.Delete(ctx, adminID, workspaceID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		mockWorkspaceRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestWorkspaceService_InviteMember(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("admin invites by email", func(t *testing.T) {
		adminID := uuid.New()
		invitee := &domain.User{ID: uuid.New(), Email: "dev@example.com", Name: "Dev"}

		mockWorkspaceRepo := new(MockWorkspaceRepository)
		mockUserRepo := new(MockUserRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, mockUserRepo, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, adminID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: adminID, Role: domain.RoleAdmin,
		}, nil)
		mockUserRepo.On("GetByEmail", ctx, "dev@example.com").Return(invitee, nil)
		mockWorkspaceRepo.On("AddMember", ctx, mock.MatchedBy(func(m *domain.WorkspaceMember) bool {
			return m.UserID == invitee.ID && m.Role == domain.RoleMember
		})).Return(nil)

		member, err := svc.InviteMember(ctx, adminID, workspaceID, "dev@example.com")
		assert.NoError(t, err)
		assert.Equal(t, invitee.ID, member.UserID)
		assert.NotNil(t, member.User)

		mockWorkspaceRepo.AssertExpectations(t)
	})

	t.Run("plain member cannot invite", func(t *testing.T) {
		memberID := uuid.New()
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		mockUserRepo := new(MockUserRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, mockUserRepo, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, memberID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: memberID, Role: domain.RoleMember,
		}, nil)

		_, err := svc.InviteMember(ctx, memberID, workspaceID, "dev@example.com")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		mockWorkspaceRepo.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		adminID := uuid.New()
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		mockUserRepo := new(MockUserRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, mockUserRepo, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, adminID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: adminID, Role: domain.RoleAdmin,
		}, nil)
		mockUserRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, nil)

		_, err := svc.InviteMember(ctx, adminID, workspaceID, "ghost@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestWorkspaceService_RemoveMember(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()

	t.Run("owner row cannot be removed", func(t *testing.T) {
		adminID := uuid.New()
		ownerID := uuid.New()
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, nil, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, adminID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: adminID, Role: domain.RoleAdmin,
		}, nil)
		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, ownerID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: ownerID, Role: domain.RoleOwner,
		}, nil)

		err := svc.RemoveMember(ctx, adminID, workspaceID, ownerID)
		assert.ErrorIs(t, err, domain.ErrValidation)
		mockWorkspaceRepo.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin removes a member", func(t *testing.T) {
		adminID := uuid.New()
		memberID := uuid.New()
		mockWorkspaceRepo := new(MockWorkspaceRepository)
		svc := NewWorkspaceService(mockWorkspaceRepo, nil, nil, nil)

		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, adminID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: adminID, Role: domain.RoleAdmin,
		}, nil)
		mockWorkspaceRepo.On("GetMember", ctx, workspaceID, memberID).Return(&domain.WorkspaceMember{
			WorkspaceID: workspaceID, UserID: memberID, Role: domain.RoleMember,
		}, nil)
		mockWorkspaceRepo.On("RemoveMember", ctx, workspaceID, memberID).Return(nil)

		err := svc.RemoveMember(ctx, adminID, workspaceID, memberID)
		assert.NoError(t, err)
		mockWorkspaceRepo.AssertExpectations(t)
	})
}
