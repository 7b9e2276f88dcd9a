package model

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is the top-level container for projects.
type Workspace struct {
	Base
	Name        string    `gorm:"size:255;not null" json:"name"`
	Slug        string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Icon        string    `gorm:"size:50" json:"icon,omitempty"`
	Color       string    `gorm:"size:7" json:"color,omitempty"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null" json:"owner_id"`

	Projects []Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// MemberRole describes what a member may do inside a workspace or project.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"  // full access, can delete the workspace
	RoleAdmin  MemberRole = "admin"  // can manage members and settings
	RoleMember MemberRole = "member" // can create and edit tasks
	RoleViewer MemberRole = "viewer" // read-only access
)

// Valid reports whether the role is one of the known roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	Base
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_workspace_member" json:"workspace_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_workspace_member" json:"user_id"`
	Role        MemberRole `gorm:"size:50;not null;default:member" json:"role"`
	InvitedByID *uuid.UUID `gorm:"type:uuid" json:"invited_by_id,omitempty"`
	JoinedAt    time.Time  `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ProjectMember links a user to a single project for granular access.
type ProjectMember struct {
	Base
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_project_member" json:"project_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_project_member" json:"user_id"`
	Role      MemberRole `gorm:"size:50;not null;default:member" json:"role"`
	JoinedAt  time.Time  `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
