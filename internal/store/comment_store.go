package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/model"
)

// CommentStore persists comments on tasks and projects.
type CommentStore struct {
	db *gorm.DB
}

// Create inserts a comment.
func (s *CommentStore) Create(ctx context.Context, comment *model.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

// ListByEntity returns an entity's comments oldest first, authors
// preloaded.
func (s *CommentStore) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]model.Comment, error) {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at").
		Find(&comments).Error
	return comments, err
}

// FindByID returns a comment by id, or (nil, nil).
func (s *CommentStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	var comment model.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Update persists a changed comment.
func (s *CommentStore) Update(ctx context.Context, comment *model.Comment) error {
	return s.db.WithContext(ctx).Save(comment).Error
}

// Delete removes a comment and its replies.
func (s *CommentStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Comment{}, "parent_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Comment{}, "id = ?", id).Error
	})
}
