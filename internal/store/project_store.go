package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alanahq/alana-server/internal/model"
)

// ProjectStore persists projects and their workflow states and labels.
type ProjectStore struct {
	db *gorm.DB
}

// Create inserts a project and seeds its default workflow states in one
// transaction.
func (s *ProjectStore) Create(ctx context.Context, project *model.Project) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		states := model.DefaultStates(project.ID)
		return tx.Create(&states).Error
	})
}

// ListByWorkspace returns a workspace's projects.
func (s *ProjectStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("name").
		Find(&projects).Error
	return projects, err
}

// FindByID returns the project with the given id, or (nil, nil).
func (s *ProjectStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// PrefixTaken reports whether a project with the given prefix exists in
// the workspace.
func (s *ProjectStore) PrefixTaken(ctx context.Context, workspaceID uuid.UUID, prefix string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("workspace_id = ? AND prefix = ?", workspaceID, prefix).
		Count(&count).Error
	return count > 0, err
}

// Update persists changed fields of a project.
func (s *ProjectStore) Update(ctx context.Context, project *model.Project) error {
	return s.db.WithContext(ctx).Save(project).Error
}

// Delete removes a project and, through cascades, its states and tasks.
func (s *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id).Error
}

// --- States ---

// ListStates returns a project's workflow states in sequence order.
func (s *ProjectStore) ListStates(ctx context.Context, projectID uuid.UUID) ([]model.State, error) {
	var states []model.State
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sequence").
		Find(&states).Error
	return states, err
}

// FindState returns a state by id, or (nil, nil).
func (s *ProjectStore) FindState(ctx context.Context, id uuid.UUID) (*model.State, error) {
	var state model.State
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// DefaultState returns the project's default state, or (nil, nil) when
// none is flagged.
func (s *ProjectStore) DefaultState(ctx context.Context, projectID uuid.UUID) (*model.State, error) {
	var state model.State
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND is_default = ?", projectID, true).
		Order("sequence").
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// CreateState inserts a workflow state.
func (s *ProjectStore) CreateState(ctx context.Context, state *model.State) error {
	return s.db.WithContext(ctx).Create(state).Error
}

// UpdateState persists a changed workflow state.
func (s *ProjectStore) UpdateState(ctx context.Context, state *model.State) error {
	return s.db.WithContext(ctx).Save(state).Error
}

// DeleteState removes a workflow state. Tasks in the state keep their
// state id dangling until moved; callers should reassign first.
func (s *ProjectStore) DeleteState(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&model.State{}, "id = ?", id).Error
}

// StateInUse reports whether any task currently sits in the state.
func (s *ProjectStore) StateInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Task{}).
		Where("state_id = ?", id).Count(&count).Error
	return count > 0, err
}

// --- Labels ---

// ListLabels returns a workspace's labels, optionally narrowed to one
// project (workspace-wide labels are included either way).
func (s *ProjectStore) ListLabels(ctx context.Context, workspaceID uuid.UUID, projectID *uuid.UUID) ([]model.Label, error) {
	q := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if projectID != nil {
		q = q.Where("project_id = ? OR project_id IS NULL", *projectID)
	}
	var labels []model.Label
	err := q.Order("sort_order").Find(&labels).Error
	return labels, err
}

// FindLabel returns a label by id, or (nil, nil).
func (s *ProjectStore) FindLabel(ctx context.Context, id uuid.UUID) (*model.Label, error) {
	var label model.Label
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&label).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// CreateLabel inserts a label.
func (s *ProjectStore) CreateLabel(ctx context.Context, label *model.Label) error {
	return s.db.WithContext(ctx).Create(label).Error
}

// UpdateLabel persists a changed label.
func (s *ProjectStore) UpdateLabel(ctx context.Context, label *model.Label) error {
	return s.db.WithContext(ctx).Save(label).Error
}

// DeleteLabel removes a label and its task associations.
func (s *ProjectStore) DeleteLabel(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_labels WHERE label_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Label{}, "id = ?", id).Error
	})
}
