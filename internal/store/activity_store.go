package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/model"
)

// ActivityStore persists the activity feed.
type ActivityStore struct {
	db *gorm.DB
}

// Record inserts an activity entry.
func (s *ActivityStore) Record(ctx context.Context, activity *model.Activity) error {
	return s.db.WithContext(ctx).Create(activity).Error
}

// ListByEntity returns an entity's activity entries newest first.
func (s *ActivityStore) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]model.Activity, error) {
	q := s.db.WithContext(ctx).
		Preload("Actor").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var activities []model.Activity
	err := q.Find(&activities).Error
	return activities, err
}

// ListByWorkspace returns a workspace's recent activity newest first.
func (s *ActivityStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, limit int) ([]model.Activity, error) {
	q := s.db.WithContext(ctx).
		Preload("Actor").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var activities []model.Activity
	err := q.Find(&activities).Error
	return activities, err
}
