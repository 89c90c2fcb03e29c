package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Workspace represents a named container of tasks and members
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkspaceCreate represents workspace creation data
type WorkspaceCreate struct {
	Name string `json:"name" validate:"required,max=255"`
}

// WorkspaceMember represents workspace membership. Exactly one row exists
// per (workspace, user) pair; the row itself is what grants task-mutation
// rights, the role only gates privileged operations.
type WorkspaceMember struct {
	WorkspaceID uuid.UUID    `json:"workspace_id"`
	UserID      uuid.UUID    `json:"user_id"`
	Role        string       `json:"role"`
	CreatedAt   time.Time    `json:"created_at"`
	User        *UserSummary `json:"user,omitempty"`
}

// Role constants
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// CanManageMembers reports whether the member's role allows inviting or
// removing other members.
func (m *WorkspaceMember) CanManageMembers() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}

// WorkspaceDetail is the read-path shape: the workspace with its members and
// its top-level tasks ordered by rank, each carrying ordered subtasks.
type WorkspaceDetail struct {
	Workspace
	Members []WorkspaceMember `json:"members"`
	Tasks   []Task            `json:"tasks"`
}

// WorkspaceRepository defines the interface for workspace storage
type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, member *WorkspaceMember) error
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*WorkspaceMember, error)
	IsMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]WorkspaceMember, error)
	RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]Workspace, error)
}
