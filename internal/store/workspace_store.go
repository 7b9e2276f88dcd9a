package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/model"
)

// WorkspaceStore persists workspaces and their memberships.
type WorkspaceStore struct {
	db *gorm.DB
}

// Create inserts a workspace and an owner membership for its creator.
func (s *WorkspaceStore) Create(ctx context.Context, ws *model.Workspace) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ws).Error; err != nil {
			return err
		}
		member := &model.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      ws.OwnerID,
			Role:        model.RoleOwner,
		}
		return tx.Create(member).Error
	})
}

// ListByOwner returns the workspaces owned by a user.
func (s *WorkspaceStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Workspace, error) {
	var workspaces []model.Workspace
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&workspaces).Error
	return workspaces, err
}

// FindByID returns the workspace with the given id, or (nil, nil).
func (s *WorkspaceStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Workspace, error) {
	var ws model.Workspace
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// SlugTaken reports whether a workspace with the given slug exists.
func (s *WorkspaceStore) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Workspace{}).
		Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// Update persists changed fields of a workspace.
func (s *WorkspaceStore) Update(ctx context.Context, ws *model.Workspace) error {
	return s.db.WithContext(ctx).Save(ws).Error
}

// Delete removes a workspace.
func (s *WorkspaceStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.Workspace{}, "id = ?", id).Error
}

// --- Membership ---

// ListMembers returns a workspace's members with user records preloaded.
func (s *WorkspaceStore) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]model.WorkspaceMember, error) {
	var members []model.WorkspaceMember
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("workspace_id = ?", workspaceID).
		Find(&members).Error
	return members, err
}

// FindMember returns a user's membership in a workspace, or (nil, nil).
func (s *WorkspaceStore) FindMember(ctx context.Context, workspaceID, userID uuid.UUID) (*model.WorkspaceMember, error) {
	var member model.WorkspaceMember
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember inserts a membership.
func (s *WorkspaceStore) AddMember(ctx context.Context, member *model.WorkspaceMember) error {
	return s.db.WithContext(ctx).Create(member).Error
}

// UpdateMember persists a changed membership.
func (s *WorkspaceStore) UpdateMember(ctx context.Context, member *model.WorkspaceMember) error {
	return s.db.WithContext(ctx).Save(member).Error
}

// RemoveMember deletes a membership.
func (s *WorkspaceStore) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&model.WorkspaceMember{}).Error
}
